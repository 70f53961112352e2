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
package library

import (
	"context"
	"fmt"
	"strings"

	"github.com/xeonx/timeago"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Summary returns a description of the library in markdown
func (myLibrary *Library) Summary(ctx context.Context) (string, error) {
	p := message.NewPrinter(language.English)
	builder := strings.Builder{}

	if _, err := builder.WriteString(fmt.Sprintf("# %s\n", myLibrary.Name)); err != nil {
		return "", err
	}

	if _, err := builder.WriteString("## Details\n\n"); err != nil {
		return "", err
	}

	if _, err := builder.WriteString(fmt.Sprintf("Database: %s\n\n", myLibrary.DBUrl)); err != nil {
		return "", err
	}

	numFilings, numFirms, err := myLibrary.NumFilings(ctx)
	if err != nil {
		return "", err
	}

	if _, err := builder.WriteString(p.Sprintf("  * Firms Tracked: %d\n", numFirms)); err != nil {
		return "", err
	}

	if _, err := builder.WriteString(p.Sprintf("  * Filings: %d\n\n", numFilings)); err != nil {
		return "", err
	}

	lastRun, err := myLibrary.LastRun(ctx)
	if err != nil {
		return "", err
	}

	if lastRun == nil {
		if _, err := builder.WriteString("Last Scored: Never\n\n"); err != nil {
			return "", err
		}
	} else {
		age := timeago.English.Format(lastRun.EndTime)
		if _, err := builder.WriteString(p.Sprintf("Last Scored: %s (%s) [%s]\n\n", age,
			lastRun.EndTime.Local().Format("01/02/2006"), lastRun.RunID.String()[:6])); err != nil {
			return "", err
		}

		if _, err := builder.WriteString(p.Sprintf("  * Change Records: %d\n  * Rows Scored: %d\n  * Rows Skipped: %d\n  * Firms Scored: %d\n\n",
			lastRun.ChangeRecords, lastRun.RowsScored, lastRun.RowsSkipped, lastRun.FirmsScored)); err != nil {
			return "", err
		}
	}

	if _, err := builder.WriteString("## Risk categories\n\n"); err != nil {
		return "", err
	}

	stats, err := myLibrary.RiskStatistics(ctx)
	if err != nil {
		return "", err
	}

	if _, err := builder.WriteString("| Category | Firms | Share | Avg Score |\n|---|---:|---:|---:|\n"); err != nil {
		return "", err
	}

	for _, row := range stats {
		if _, err := builder.WriteString(p.Sprintf("| %s | %d | %.2f%% | %.2f |\n",
			row.Category, row.FirmCount, row.Percentage, row.AverageScore)); err != nil {
			return "", err
		}
	}

	return builder.String(), nil
}
