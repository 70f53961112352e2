// Copyright 2025
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package firmname_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/penny-vault/iarisk/firmname"
)

var _ = Describe("Cache", func() {
	var cache *firmname.Cache

	BeforeEach(func() {
		cache = firmname.New(time.Minute)
	})

	It("resolves unknown firms to the sentinel name", func() {
		Expect(cache.Name("801-1")).To(Equal(firmname.Unknown))
	})

	It("returns the stored name", func() {
		cache.Set("801-1", "Acme Advisers")
		Expect(cache.Name("801-1")).To(Equal("Acme Advisers"))
		Expect(cache.Len()).To(Equal(1))
	})

	It("ignores empty names", func() {
		cache.Set("801-1", "")
		Expect(cache.Len()).To(BeZero())
		Expect(cache.Name("801-1")).To(Equal(firmname.Unknown))
	})

	It("keeps the latest name for a firm", func() {
		cache.Set("801-1", "Acme Advisers")
		cache.Set("801-1", "Acme Wealth")
		Expect(cache.Name("801-1")).To(Equal("Acme Wealth"))
		Expect(cache.Len()).To(Equal(1))
	})
})
