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
package risk

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/penny-vault/iarisk/data"
	"github.com/rs/zerolog/log"
)

var (
	ErrMalformedChange = errors.New("malformed change record")
)

const (
	SevereDropPct   = 25.0
	ModerateDropPct = 15.0

	YoungFirmYears       = 3
	SmallFirmAUM         = 50_000_000.0
	LeadershipMovesLimit = 2
)

// Rule is a single weighted factor. Each rule contributes its full weight or
// nothing.
type Rule struct {
	Key    string
	Weight int
	Fires  func(change *data.ChangeRecord) bool
}

// Rules is the fixed rule table, in the order contributions are evaluated
var Rules = []Rule{
	{Key: "new_disclosure", Weight: 40, Fires: func(c *data.ChangeRecord) bool { return c.NewDisclosure }},
	{Key: "severe_aum_drop", Weight: 25, Fires: func(c *data.ChangeRecord) bool { return severe(c.AUMDropPct) }},
	{Key: "moderate_aum_drop", Weight: 15, Fires: func(c *data.ChangeRecord) bool { return moderate(c.AUMDropPct) }},
	{Key: "severe_client_drop", Weight: 15, Fires: func(c *data.ChangeRecord) bool { return severe(c.ClientDropPct) }},
	{Key: "moderate_client_drop", Weight: 8, Fires: func(c *data.ChangeRecord) bool { return moderate(c.ClientDropPct) }},
	{Key: "severe_account_drop", Weight: 10, Fires: func(c *data.ChangeRecord) bool { return severe(c.AccountDropPct) }},
	{Key: "moderate_account_drop", Weight: 5, Fires: func(c *data.ChangeRecord) bool { return moderate(c.AccountDropPct) }},
	{Key: "cco_changed", Weight: 10, Fires: func(c *data.ChangeRecord) bool { return c.CCOChanged }},
	{Key: "long_term_downtrend", Weight: 10, Fires: func(c *data.ChangeRecord) bool { return c.TrendDown }},
	{Key: "leadership_instability", Weight: 10, Fires: func(c *data.ChangeRecord) bool { return c.OwnerMoves12m >= LeadershipMovesLimit }},
	{Key: "young_firm", Weight: 5, Fires: func(c *data.ChangeRecord) bool { return c.AdviserAgeYears < YoungFirmYears }},
	{Key: "small_firm", Weight: 5, Fires: func(c *data.ChangeRecord) bool { return c.RAUM < SmallFirmAUM }},
}

// MaxScore is the score of a record that fires every rule
func MaxScore() int {
	total := 0
	for _, rule := range Rules {
		total += rule.Weight
	}
	return total
}

// severe and moderate bands are mutually exclusive: moderate is [15, 25)
func severe(pct float64) bool {
	return pct >= SevereDropPct
}

func moderate(pct float64) bool {
	return pct >= ModerateDropPct && pct < SevereDropPct
}

type Scorer struct {
	// Now stamps created/updated times; it is fixed per run
	Now time.Time
}

func New(now time.Time) *Scorer {
	return &Scorer{
		Now: now,
	}
}

// Score applies the rule table to a single change record
func (scorer *Scorer) Score(change *data.ChangeRecord) (*data.RiskScore, error) {
	if err := validate(change); err != nil {
		return nil, err
	}

	factors := data.Factors{
		AUMDropPct:      change.AUMDropPct,
		ClientDropPct:   change.ClientDropPct,
		AccountDropPct:  change.AccountDropPct,
		NewDisclosure:   change.NewDisclosure,
		CCOChanged:      change.CCOChanged,
		TrendDown:       change.TrendDown,
		OwnerMoves12m:   change.OwnerMoves12m,
		AdviserAgeYears: change.AdviserAgeYears,
		RAUM:            change.RAUM,
		Contributions:   make(map[string]int),
	}

	score := 0
	for _, rule := range Rules {
		if rule.Fires(change) {
			score += rule.Weight
			factors.Contributions[rule.Key] = rule.Weight
		}
	}

	return &data.RiskScore{
		FirmID:     change.FirmID,
		FilingDate: change.FilingDate,
		Score:      score,
		Factors:    factors,
		CreatedAt:  scorer.Now,
		UpdatedAt:  scorer.Now,
	}, nil
}

// ScoreAll scores every change record. Malformed records are logged and
// skipped; the number skipped is returned alongside the scores.
func (scorer *Scorer) ScoreAll(changes []*data.ChangeRecord) ([]*data.RiskScore, int) {
	scores := make([]*data.RiskScore, 0, len(changes))
	skipped := 0

	for _, change := range changes {
		score, err := scorer.Score(change)
		if err != nil {
			log.Warn().Err(err).Object("Change", change).Msg("skipping change record")
			skipped++
			continue
		}
		scores = append(scores, score)
	}

	return scores, skipped
}

func validate(change *data.ChangeRecord) error {
	if change.FirmID == "" || change.FilingDate.IsZero() {
		return fmt.Errorf("%w: missing firm identifier or filing date", ErrMalformedChange)
	}

	pcts := []struct {
		name string
		val  float64
	}{
		{"aum_drop_pct", change.AUMDropPct},
		{"client_drop_pct", change.ClientDropPct},
		{"acct_drop_pct", change.AccountDropPct},
	}

	for _, pct := range pcts {
		if math.IsNaN(pct.val) || pct.val < 0 || pct.val > 100 {
			return fmt.Errorf("%w: %s out of range: %v", ErrMalformedChange, pct.name, pct.val)
		}
	}

	if math.IsNaN(change.RAUM) || math.IsInf(change.RAUM, 0) || change.RAUM < 0 {
		return fmt.Errorf("%w: invalid raum %v", ErrMalformedChange, change.RAUM)
	}

	if change.OwnerMoves12m < 0 {
		return fmt.Errorf("%w: negative owner moves %d", ErrMalformedChange, change.OwnerMoves12m)
	}

	return nil
}
