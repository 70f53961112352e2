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
package cmd

import (
	"context"
	"io"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/rs/zerolog"
)

var _ = Describe("Failed run recording", func() {
	It("outlives cancellation of the run context", func() {
		logger := zerolog.New(io.Discard)
		runCtx, stop := context.WithCancel(logger.WithContext(context.Background()))
		stop()
		Expect(runCtx.Err()).To(MatchError(context.Canceled))

		failCtx, cancel := detached(runCtx)
		defer cancel()

		Expect(failCtx.Err()).NotTo(HaveOccurred())
		Expect(zerolog.Ctx(failCtx)).To(BeIdenticalTo(zerolog.Ctx(runCtx)))
	})

	It("is bounded by the recording timeout", func() {
		failCtx, cancel := detached(context.Background())
		defer cancel()

		deadline, ok := failCtx.Deadline()
		Expect(ok).To(BeTrue())
		Expect(deadline).To(BeTemporally("~", time.Now().Add(failureRecordTimeout), time.Second))
	})

	It("ends when released", func() {
		failCtx, cancel := detached(context.Background())
		cancel()
		Expect(failCtx.Err()).To(MatchError(context.Canceled))
	})
})
