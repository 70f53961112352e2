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
package data

import (
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type RunStatus string

const (
	RunSuccess RunStatus = "success"
	RunFailed  RunStatus = "failed"
)

// RunSummary describes a single full recompute of change and risk score records
type RunSummary struct {
	RunID     uuid.UUID
	StartTime time.Time
	EndTime   time.Time
	Status    RunStatus

	FilingsRead    int
	FilingsSkipped int
	ChangeRecords  int
	RowsScored     int
	RowsSkipped    int
	FirmsScored    int
}

// RowsProcessed is the number of change records handed to the scorer
func (summary *RunSummary) RowsProcessed() int {
	return summary.RowsScored + summary.RowsSkipped
}

func (summary *RunSummary) MarshalZerologObject(e *zerolog.Event) {
	e.Str("RunID", summary.RunID.String())
	e.Str("Status", string(summary.Status))
	e.Int("FilingsRead", summary.FilingsRead)
	e.Int("FilingsSkipped", summary.FilingsSkipped)
	e.Int("RowsProcessed", summary.RowsProcessed())
	e.Int("RowsSkipped", summary.RowsSkipped)
	e.Int("FirmsScored", summary.FirmsScored)
}
