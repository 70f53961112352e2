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
package change

import (
	"github.com/penny-vault/iarisk/data"
	"github.com/rs/zerolog/log"
)

const (
	MaxDropPct = 100.0

	// TrendWindow is the number of consecutive asset drops averaged for the
	// trend-down flag, the current one included
	TrendWindow    = 3
	TrendThreshold = 7.0
)

type Extractor struct {
	Ownership OwnershipSource
}

// New creates an extractor; a nil ownership source reports no moves
func New(ownership OwnershipSource) *Extractor {
	if ownership == nil {
		ownership = NoOwnershipData{}
	}

	return &Extractor{
		Ownership: ownership,
	}
}

// Extract computes change records for every firm in filings
func (extractor *Extractor) Extract(filings []*data.Filing) []*data.ChangeRecord {
	changes := make([]*data.ChangeRecord, 0, len(filings))
	for _, history := range Partition(filings) {
		changes = append(changes, extractor.ExtractFirm(history)...)
	}
	return changes
}

// ExtractFirm walks the firm's filings in date order and emits one change
// record for every filing that has a predecessor and positive assets. Filings
// without assets are still used as the predecessor of the next filing and
// still feed the trend window.
func (extractor *Extractor) ExtractFirm(history *History) []*data.ChangeRecord {
	if len(history.Filings) < 2 {
		log.Debug().Str("FirmID", history.FirmID).Msg("firm has a single filing; not scored until a second filing exists")
		return nil
	}

	changes := make([]*data.ChangeRecord, 0, len(history.Filings)-1)
	window := make([]float64, 0, TrendWindow)
	firstYear := history.FirstFilingYear()

	for prev, curr := range history.Pairs() {
		aumDrop := DropPct(prev.RAUM, curr.RAUM)

		window = append(window, aumDrop)
		if len(window) > TrendWindow {
			window = window[1:]
		}

		if curr.Assets() <= 0 {
			continue
		}

		changes = append(changes, &data.ChangeRecord{
			FirmID:          curr.FirmID,
			FilingDate:      curr.FilingDate,
			AUMDropPct:      aumDrop,
			ClientDropPct:   DropPct(asFloat(prev.ClientCount), asFloat(curr.ClientCount)),
			AccountDropPct:  DropPct(asFloat(prev.AccountCount), asFloat(curr.AccountCount)),
			NewDisclosure:   curr.Disclosures() > prev.Disclosures(),
			CCOChanged:      OfficerChanged(prev, curr),
			TrendDown:       TrendDown(window),
			OwnerMoves12m:   extractor.Ownership.OwnerMoves(curr.FirmID, curr.FilingDate),
			AdviserAgeYears: curr.FilingDate.Year() - firstYear,
			RAUM:            curr.Assets(),
		})
	}

	return changes
}

// DropPct is the clamped, non-negative percentage decrease from prev to curr.
// An increase, an absent value or a non-positive previous value yields 0.
func DropPct(prev, curr *float64) float64 {
	if prev == nil || curr == nil {
		return 0
	}

	if *prev <= 0 || *curr >= *prev {
		return 0
	}

	pct := (*prev - *curr) * 100 / *prev
	if pct > MaxDropPct {
		pct = MaxDropPct
	}

	return pct
}

// OfficerChanged is true only when both compliance officer names are known and
// differ; an unknown name on either side is never a change
func OfficerChanged(prev, curr *data.Filing) bool {
	prevName, prevOK := prev.ComplianceOfficer()
	currName, currOK := curr.ComplianceOfficer()
	if !prevOK || !currOK {
		return false
	}
	return prevName != currName
}

// TrendDown reports whether the average of a full trailing window of asset
// drops reaches TrendThreshold. Windows shorter than TrendWindow do not have
// enough lookback to establish a trend: fewer than three drops never trends,
// and missing drops are not zero-filled.
func TrendDown(window []float64) bool {
	if len(window) < TrendWindow {
		return false
	}

	total := 0.0
	for _, drop := range window[len(window)-TrendWindow:] {
		total += drop
	}

	return total/TrendWindow >= TrendThreshold
}

func asFloat(val *int64) *float64 {
	if val == nil {
		return nil
	}
	f := float64(*val)
	return &f
}
