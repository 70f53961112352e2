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

	"github.com/rs/zerolog"
)

// ChangeRecord holds the deltas between a filing and the most recent earlier
// filing of the same firm
type ChangeRecord struct {
	FirmID          string    `db:"firm_id" json:"firm_id"`
	FilingDate      time.Time `db:"filing_date" json:"filing_date"`
	AUMDropPct      float64   `db:"aum_drop_pct" json:"aum_drop_pct"`
	ClientDropPct   float64   `db:"client_drop_pct" json:"client_drop_pct"`
	AccountDropPct  float64   `db:"acct_drop_pct" json:"acct_drop_pct"`
	NewDisclosure   bool      `db:"new_disc_flag" json:"new_disc_flag"`
	CCOChanged      bool      `db:"cco_changed" json:"cco_changed"`
	TrendDown       bool      `db:"trend_down_flag" json:"trend_down_flag"`
	OwnerMoves12m   int       `db:"owner_moves_12m" json:"owner_moves_12m"`
	AdviserAgeYears int       `db:"adviser_age_years" json:"adviser_age_years"`
	RAUM            float64   `db:"raum" json:"raum"`
}

// ChangeColumns lists the ia_change columns in the order Values returns them
var ChangeColumns = []string{
	"firm_id",
	"filing_date",
	"aum_drop_pct",
	"client_drop_pct",
	"acct_drop_pct",
	"new_disc_flag",
	"cco_changed",
	"trend_down_flag",
	"owner_moves_12m",
	"adviser_age_years",
	"raum",
}

// Values returns the record as a row suitable for pgx.CopyFrom
func (change *ChangeRecord) Values() []any {
	return []any{
		change.FirmID,
		change.FilingDate,
		change.AUMDropPct,
		change.ClientDropPct,
		change.AccountDropPct,
		change.NewDisclosure,
		change.CCOChanged,
		change.TrendDown,
		change.OwnerMoves12m,
		change.AdviserAgeYears,
		change.RAUM,
	}
}

func (change *ChangeRecord) MarshalZerologObject(e *zerolog.Event) {
	e.Str("FirmID", change.FirmID)
	e.Time("FilingDate", change.FilingDate)
	e.Float64("AUMDropPct", change.AUMDropPct)
}
