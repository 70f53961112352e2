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
package cmd

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/penny-vault/iarisk/data"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)

	categoryColors = map[data.Category]lipgloss.Color{
		data.Critical: lipgloss.Color("196"),
		data.High:     lipgloss.Color("208"),
		data.Medium:   lipgloss.Color("220"),
		data.Low:      lipgloss.Color("42"),
	}
)

// firmTable renders scored firms with the category column colored by severity
func firmTable(firms []*data.ScoredFirm) string {
	rows := make([][]string, 0, len(firms))
	for _, firm := range firms {
		rows = append(rows, []string{
			firm.FirmID,
			firm.FirmName,
			strconv.Itoa(firm.Score),
			firm.Category().String(),
			firm.FilingDate.Format("2006-01-02"),
			fmt.Sprintf("%.1f%%", firm.Factors.AUMDropPct),
		})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("63"))).
		Headers("FIRM", "NAME", "SCORE", "CATEGORY", "FILED", "AUM DROP").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}

			if col == 3 && row >= 0 && row < len(firms) {
				return cellStyle.Foreground(categoryColors[firms[row].Category()])
			}

			return cellStyle
		})

	return t.Render()
}
