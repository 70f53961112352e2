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

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

// Factors records the raw inputs that produced a score along with the points
// contributed by every rule that fired
type Factors struct {
	AUMDropPct      float64        `json:"aum_drop_pct"`
	ClientDropPct   float64        `json:"client_drop_pct"`
	AccountDropPct  float64        `json:"acct_drop_pct"`
	NewDisclosure   bool           `json:"new_disc_flag"`
	CCOChanged      bool           `json:"cco_changed"`
	TrendDown       bool           `json:"trend_down_flag"`
	OwnerMoves12m   int            `json:"owner_moves_12m"`
	AdviserAgeYears int            `json:"adviser_age_years"`
	RAUM            float64        `json:"raum"`
	Contributions   map[string]int `json:"contributions"`
}

// RiskScore is the scored result for a single (firm, filing date). The risk
// category is not a field: it is always derived from Score.
type RiskScore struct {
	FirmID     string    `db:"firm_id"`
	FilingDate time.Time `db:"filing_date"`
	Score      int       `db:"score"`
	Factors    Factors   `db:"-"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}

// ScoreColumns lists the ia_risk_score columns in the order Values returns them
var ScoreColumns = []string{
	"firm_id",
	"filing_date",
	"score",
	"risk_category",
	"factors",
	"created_at",
	"updated_at",
}

func (score *RiskScore) Category() Category {
	return CategoryForScore(score.Score)
}

// Values returns the record as a row suitable for pgx.CopyFrom
func (score *RiskScore) Values() ([]any, error) {
	factors, err := json.Marshal(score.Factors)
	if err != nil {
		return nil, err
	}

	return []any{
		score.FirmID,
		score.FilingDate,
		score.Score,
		score.Category().String(),
		factors,
		score.CreatedAt,
		score.UpdatedAt,
	}, nil
}

func (score *RiskScore) MarshalZerologObject(e *zerolog.Event) {
	e.Str("FirmID", score.FirmID)
	e.Time("FilingDate", score.FilingDate)
	e.Int("Score", score.Score)
	e.Str("Category", score.Category().String())
}

// ScoredFirm is a risk score joined with the firm's resolved name, as returned
// by the query layer
type ScoredFirm struct {
	FirmID      string    `db:"firm_id" json:"firm_id"`
	FirmName    string    `db:"firm_name" json:"firm_name"`
	Score       int       `db:"score" json:"score"`
	FilingDate  time.Time `db:"filing_date" json:"filing_date"`
	FactorsJSON []byte    `db:"factors" json:"-"`
	Factors     Factors   `db:"-" json:"factors"`
}

func (firm *ScoredFirm) Category() Category {
	return CategoryForScore(firm.Score)
}

// DecodeFactors parses the stored factor document into Factors
func (firm *ScoredFirm) DecodeFactors() error {
	if len(firm.FactorsJSON) == 0 {
		return nil
	}
	return json.Unmarshal(firm.FactorsJSON, &firm.Factors)
}

// CategoryStats summarizes the latest scored filing of every firm in a category
type CategoryStats struct {
	Category     Category `db:"risk_category"`
	FirmCount    int      `db:"firm_count"`
	Percentage   float64  `db:"percentage"`
	AverageScore float64  `db:"avg_score"`
}
