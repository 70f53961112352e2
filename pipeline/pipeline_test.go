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
package pipeline_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/penny-vault/iarisk/data"
	"github.com/penny-vault/iarisk/pipeline"
)

var errConnection = errors.New("connection refused")

type memorySource struct {
	filings []*data.Filing
	err     error
}

func (source *memorySource) Filings(context.Context) ([]*data.Filing, error) {
	return source.filings, source.err
}

type memorySink struct {
	mu        sync.Mutex
	published int
	summary   *data.RunSummary
	changes   []*data.ChangeRecord
	scores    []*data.RiskScore
	err       error
}

func (sink *memorySink) Publish(_ context.Context, summary *data.RunSummary, changes []*data.ChangeRecord, scores []*data.RiskScore) error {
	sink.mu.Lock()
	defer sink.mu.Unlock()

	if sink.err != nil {
		return sink.err
	}

	sink.published++
	sink.summary = summary
	sink.changes = changes
	sink.scores = scores
	return nil
}

func ptr[T any](val T) *T {
	return &val
}

func filing(firmID string, year int, raum float64, disclosures int64) *data.Filing {
	return &data.Filing{
		FirmID:                  firmID,
		FilingDate:              time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC),
		RAUM:                    ptr(raum),
		ClientCount:             ptr(int64(100)),
		AccountCount:            ptr(int64(100)),
		DisciplinaryDisclosures: ptr(disclosures),
		CCOName:                 ptr("Alice"),
	}
}

// scoreKey strips timestamps so runs can be compared
type scoreKey struct {
	FirmID     string
	FilingDate time.Time
	Score      int
	Category   data.Category
	Factors    data.Factors
}

func keys(scores []*data.RiskScore) []scoreKey {
	out := make([]scoreKey, 0, len(scores))
	for _, score := range scores {
		out = append(out, scoreKey{score.FirmID, score.FilingDate, score.Score, score.Category(), score.Factors})
	}
	return out
}

var _ = Describe("Pipeline", func() {
	var (
		ctx    context.Context
		source *memorySource
		sink   *memorySink
	)

	BeforeEach(func() {
		ctx = context.Background()
		source = &memorySource{filings: []*data.Filing{
			filing("X", 2023, 100_000_000, 0),
			filing("X", 2024, 70_000_000, 0),
			filing("X", 2025, 70_000_000, 1),
			filing("Y", 2024, 10_000_000, 0),
			filing("Z", 2022, 5_000_000, 0),
			filing("Z", 2023, 0, 0),
			filing("Z", 2024, 4_000_000, 0),
		}}
		sink = &memorySink{}
	})

	It("publishes a score for every change record", func() {
		summary, err := pipeline.New(source, sink, pipeline.WithWorkers(2)).Run(ctx)
		Expect(err).NotTo(HaveOccurred())

		Expect(summary.Status).To(Equal(data.RunSuccess))
		Expect(summary.FilingsRead).To(Equal(7))
		Expect(summary.ChangeRecords).To(Equal(3))
		Expect(summary.RowsScored).To(Equal(3))
		Expect(summary.FirmsScored).To(Equal(2))

		Expect(sink.published).To(Equal(1))
		Expect(sink.summary).To(BeIdenticalTo(summary))
		Expect(keys(sink.scores)).To(HaveLen(3))

		byKey := map[string]int{}
		for _, score := range sink.scores {
			byKey[fmt.Sprintf("%s/%d", score.FirmID, score.FilingDate.Year())] = score.Score
		}
		Expect(byKey).To(Equal(map[string]int{
			"X/2024": 30,
			"X/2025": 45,
			"Z/2024": 10,
		}))
	})

	It("produces identical output on every run", func() {
		clock := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
		first := &memorySink{}
		_, err := pipeline.New(source, first, pipeline.WithClock(func() time.Time { return clock })).Run(ctx)
		Expect(err).NotTo(HaveOccurred())

		clock = clock.Add(24 * time.Hour)
		second := &memorySink{}
		_, err = pipeline.New(source, second, pipeline.WithWorkers(1), pipeline.WithClock(func() time.Time { return clock })).Run(ctx)
		Expect(err).NotTo(HaveOccurred())

		Expect(keys(second.scores)).To(Equal(keys(first.scores)))
		Expect(second.changes).To(Equal(first.changes))
		Expect(second.scores[0].UpdatedAt).To(Equal(clock))
	})

	It("excludes malformed filings and counts them", func() {
		source.filings = append(source.filings,
			&data.Filing{FirmID: "", FilingDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
			&data.Filing{FirmID: "X", FilingDate: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), RAUM: ptr(-1.0)},
		)

		summary, err := pipeline.New(source, sink).Run(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(summary.FilingsSkipped).To(Equal(2))
		Expect(summary.ChangeRecords).To(Equal(3))
	})

	It("uses the requested run id", func() {
		runID := uuid.New()
		summary, err := pipeline.New(source, sink, pipeline.WithRunID(runID)).Run(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(summary.RunID).To(Equal(runID))
	})

	It("publishes an empty generation when there is nothing to score", func() {
		source.filings = nil
		summary, err := pipeline.New(source, sink).Run(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(summary.RowsScored).To(BeZero())
		Expect(sink.published).To(Equal(1))
		Expect(sink.scores).To(BeEmpty())
	})

	It("aborts without publishing when filings cannot be read", func() {
		source.err = errConnection

		summary, err := pipeline.New(source, sink).Run(ctx)
		Expect(errors.Is(err, pipeline.ErrStoreUnavailable)).To(BeTrue())
		Expect(errors.Is(err, errConnection)).To(BeTrue())
		Expect(summary.Status).To(Equal(data.RunFailed))
		Expect(sink.published).To(BeZero())
	})

	It("reports a failed publish", func() {
		sink.err = errConnection

		summary, err := pipeline.New(source, sink).Run(ctx)
		Expect(errors.Is(err, pipeline.ErrStoreUnavailable)).To(BeTrue())
		Expect(summary.Status).To(Equal(data.RunFailed))
		Expect(summary.RowsScored).To(Equal(3))
	})

	It("stops when the context is cancelled", func() {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		_, err := pipeline.New(source, sink).Run(cancelled)
		Expect(err).To(MatchError(context.Canceled))
		Expect(sink.published).To(BeZero())
	})
})
