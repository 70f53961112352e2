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
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"
)

var (
	ErrMalformedFiling = errors.New("malformed filing")
)

// Filing is a single point-in-time disclosure submitted by a firm. Filings are
// append-only: a new filing date is a new record, never an update.
type Filing struct {
	FirmID                  string    `db:"firm_id"`
	FilingDate              time.Time `db:"filing_date"`
	FirmName                *string   `db:"firm_name"`
	RAUM                    *float64  `db:"raum"`
	ClientCount             *int64    `db:"client_count"`
	AccountCount            *int64    `db:"account_count"`
	DisciplinaryDisclosures *int64    `db:"disciplinary_disclosures"`
	CCOName                 *string   `db:"cco_name"`
}

// Validate checks that the filing can participate in delta computation
func (filing *Filing) Validate() error {
	if filing.FirmID == "" {
		return fmt.Errorf("%w: missing firm identifier", ErrMalformedFiling)
	}

	if filing.FilingDate.IsZero() {
		return fmt.Errorf("%w: missing filing date", ErrMalformedFiling)
	}

	if filing.RAUM != nil {
		if math.IsNaN(*filing.RAUM) || math.IsInf(*filing.RAUM, 0) || *filing.RAUM < 0 {
			return fmt.Errorf("%w: invalid regulatory assets under management %v", ErrMalformedFiling, *filing.RAUM)
		}
	}

	counts := map[string]*int64{
		"client count":             filing.ClientCount,
		"account count":            filing.AccountCount,
		"disciplinary disclosures": filing.DisciplinaryDisclosures,
	}

	for name, val := range counts {
		if val != nil && *val < 0 {
			return fmt.Errorf("%w: negative %s %d", ErrMalformedFiling, name, *val)
		}
	}

	return nil
}

// Assets returns the reported regulatory assets under management, or 0 when absent
func (filing *Filing) Assets() float64 {
	if filing.RAUM == nil {
		return 0
	}
	return *filing.RAUM
}

// Disclosures returns the disciplinary disclosure count with absent treated as 0
func (filing *Filing) Disclosures() int64 {
	if filing.DisciplinaryDisclosures == nil {
		return 0
	}
	return *filing.DisciplinaryDisclosures
}

// ComplianceOfficer returns the chief compliance officer name and whether it is known
func (filing *Filing) ComplianceOfficer() (string, bool) {
	if filing.CCOName == nil || *filing.CCOName == "" {
		return "", false
	}
	return *filing.CCOName, true
}

func (filing *Filing) MarshalZerologObject(e *zerolog.Event) {
	e.Str("FirmID", filing.FirmID)
	e.Time("FilingDate", filing.FilingDate)
}
