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
	"iter"
	"sort"

	"github.com/penny-vault/iarisk/data"
)

// History is the date-ordered list of filings for a single firm
type History struct {
	FirmID  string
	Filings []*data.Filing
}

// Partition groups filings by firm and orders each group by filing date
// ascending. Histories are returned sorted by firm identifier.
func Partition(filings []*data.Filing) []*History {
	byFirm := make(map[string]*History)
	for _, filing := range filings {
		history, ok := byFirm[filing.FirmID]
		if !ok {
			history = &History{FirmID: filing.FirmID}
			byFirm[filing.FirmID] = history
		}
		history.Filings = append(history.Filings, filing)
	}

	histories := make([]*History, 0, len(byFirm))
	for _, history := range byFirm {
		sort.SliceStable(history.Filings, func(i, j int) bool {
			return history.Filings[i].FilingDate.Before(history.Filings[j].FilingDate)
		})
		histories = append(histories, history)
	}

	sort.Slice(histories, func(i, j int) bool {
		return histories[i].FirmID < histories[j].FirmID
	})

	return histories
}

// Pairs yields every consecutive (previous, current) pair of filings. A
// history with a single filing yields nothing.
func (history *History) Pairs() iter.Seq2[*data.Filing, *data.Filing] {
	return func(yield func(*data.Filing, *data.Filing) bool) {
		for idx := 1; idx < len(history.Filings); idx++ {
			if !yield(history.Filings[idx-1], history.Filings[idx]) {
				return
			}
		}
	}
}

// FirstFilingYear is the year of the earliest known filing for the firm
func (history *History) FirstFilingYear() int {
	if len(history.Filings) == 0 {
		return 0
	}
	return history.Filings[0].FilingDate.Year()
}
