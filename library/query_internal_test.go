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
package library

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/penny-vault/iarisk/data"
)

var _ = Describe("ScoreQuery", func() {
	DescribeTable("normalizes pagination",
		func(query ScoreQuery, page, pageSize int) {
			query.normalize()
			Expect(query.Page).To(Equal(page))
			Expect(query.PageSize).To(Equal(pageSize))
		},
		Entry("defaults", ScoreQuery{}, 1, DefaultPageSize),
		Entry("negative page", ScoreQuery{Page: -3, PageSize: 5}, 1, 5),
		Entry("oversized page", ScoreQuery{Page: 2, PageSize: 1_000}, 2, MaxPageSize),
		Entry("unchanged", ScoreQuery{Page: 4, PageSize: 50, Category: data.High}, 4, 50),
	)
})
