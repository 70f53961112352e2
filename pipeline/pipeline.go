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
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/hako/durafmt"
	"github.com/penny-vault/iarisk/change"
	"github.com/penny-vault/iarisk/data"
	"github.com/penny-vault/iarisk/risk"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

var (
	ErrStoreUnavailable = errors.New("filing store unavailable")
)

// FilingSource provides the complete filing history
type FilingSource interface {
	Filings(ctx context.Context) ([]*data.Filing, error)
}

// ResultSink atomically replaces the published change and risk score records.
// Either every record becomes visible or none do.
type ResultSink interface {
	Publish(ctx context.Context, summary *data.RunSummary, changes []*data.ChangeRecord, scores []*data.RiskScore) error
}

type Pipeline struct {
	Source    FilingSource
	Sink      ResultSink
	Extractor *change.Extractor
	Workers   int

	// clock is replaced in tests
	clock func() time.Time
	runID uuid.UUID
}

// Option configures optional pipeline settings
type Option func(*Pipeline)

func WithWorkers(workers int) Option {
	return func(p *Pipeline) {
		if workers > 0 {
			p.Workers = workers
		}
	}
}

func WithOwnershipSource(ownership change.OwnershipSource) Option {
	return func(p *Pipeline) {
		p.Extractor = change.New(ownership)
	}
}

func WithClock(clock func() time.Time) Option {
	return func(p *Pipeline) {
		p.clock = clock
	}
}

// WithRunID fixes the identifier of the next run, letting callers report it
// before the run starts
func WithRunID(runID uuid.UUID) Option {
	return func(p *Pipeline) {
		p.runID = runID
	}
}

func New(source FilingSource, sink ResultSink, opts ...Option) *Pipeline {
	p := &Pipeline{
		Source:    source,
		Sink:      sink,
		Extractor: change.New(change.NoOwnershipData{}),
		Workers:   runtime.NumCPU(),
		clock:     time.Now,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

type firmResult struct {
	changes []*data.ChangeRecord
	scores  []*data.RiskScore
	skipped int
}

// Run executes a full recompute: read every filing, extract changes, score
// them and publish the results atomically. Row-level problems are counted in
// the summary; store failures abort the run and leave published output intact.
func (p *Pipeline) Run(ctx context.Context) (*data.RunSummary, error) {
	logger := zerolog.Ctx(ctx)

	summary := &data.RunSummary{
		RunID:     p.runID,
		StartTime: p.clock(),
		Status:    data.RunFailed,
	}

	if summary.RunID == uuid.Nil {
		summary.RunID = uuid.New()
	}

	runLogger := logger.With().Str("RunID", summary.RunID.String()).Logger()

	filings, err := p.Source.Filings(ctx)
	if err != nil {
		runLogger.Error().Err(err).Msg("could not read filings")
		return summary, fmt.Errorf("%w: reading filings: %w", ErrStoreUnavailable, err)
	}

	summary.FilingsRead = len(filings)

	valid := make([]*data.Filing, 0, len(filings))
	for _, filing := range filings {
		if err := filing.Validate(); err != nil {
			runLogger.Warn().Err(err).Object("Filing", filing).Msg("excluding malformed filing")
			summary.FilingsSkipped++
			continue
		}
		valid = append(valid, filing)
	}

	histories := change.Partition(valid)
	results := make([]firmResult, len(histories))
	scorer := risk.New(summary.StartTime)

	progress := rate.Sometimes{Interval: 5 * time.Second}
	var done atomic.Int64

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(p.Workers)

	for idx, history := range histories {
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}

			changes := p.Extractor.ExtractFirm(history)
			scores, skipped := scorer.ScoreAll(changes)
			results[idx] = firmResult{
				changes: changes,
				scores:  scores,
				skipped: skipped,
			}

			n := done.Add(1)
			progress.Do(func() {
				runLogger.Info().Int64("FirmsProcessed", n).Int("NumFirms", len(histories)).Msg("scoring progress")
			})

			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return summary, err
	}

	changes := make([]*data.ChangeRecord, 0, len(valid))
	scores := make([]*data.RiskScore, 0, len(valid))
	for _, result := range results {
		changes = append(changes, result.changes...)
		scores = append(scores, result.scores...)
		summary.RowsSkipped += result.skipped
		if len(result.scores) > 0 {
			summary.FirmsScored++
		}
	}

	summary.ChangeRecords = len(changes)
	summary.RowsScored = len(scores)

	summary.EndTime = p.clock()
	summary.Status = data.RunSuccess

	if err := p.Sink.Publish(ctx, summary, changes, scores); err != nil {
		summary.Status = data.RunFailed
		runLogger.Error().Err(err).Msg("could not publish results; previous results remain visible")
		return summary, fmt.Errorf("%w: publishing results: %w", ErrStoreUnavailable, err)
	}

	runLogger.Info().Object("Summary", summary).
		Str("RunTime", durafmt.Parse(summary.EndTime.Sub(summary.StartTime)).String()).
		Msg("risk scoring run complete")

	return summary, nil
}
