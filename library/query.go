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
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/penny-vault/iarisk/data"
	"github.com/penny-vault/iarisk/firmname"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
	DefaultTopN     = 10

	firmNameMaxAge = 10 * time.Minute
)

// latestScoresSQL selects the most recent scored filing of every firm
const latestScoresSQL = `SELECT DISTINCT ON (firm_id) firm_id, filing_date, score, risk_category, factors
FROM ia_risk_score ORDER BY firm_id, filing_date DESC`

const allScoresSQL = `SELECT firm_id, filing_date, score, risk_category, factors FROM ia_risk_score`

// ScoreQuery filters and paginates risk score records. An empty Category
// matches every category.
type ScoreQuery struct {
	Category   data.Category
	Page       int
	PageSize   int
	LatestOnly bool
}

// ScorePage is one page of results plus the total number of matching records
type ScorePage struct {
	Firms      []*data.ScoredFirm
	Total      int
	Page       int
	PageSize   int
	TotalPages int
}

func (myLibrary *Library) firmNames(ctx context.Context) (*firmname.Cache, error) {
	myLibrary.namesMu.Lock()
	if myLibrary.names == nil {
		myLibrary.names = firmname.New(firmNameMaxAge)
	}
	myLibrary.namesMu.Unlock()

	if err := myLibrary.names.Refresh(ctx, myLibrary.Pool); err != nil {
		return nil, err
	}

	return myLibrary.names, nil
}

// RiskStatistics returns the firm count, share and average score of every
// category over the latest scored filing of each firm. All categories are
// present, most severe first.
func (myLibrary *Library) RiskStatistics(ctx context.Context) ([]*data.CategoryStats, error) {
	var rows []*data.CategoryStats
	err := pgxscan.Select(ctx, myLibrary.Pool, &rows, fmt.Sprintf(`WITH latest AS (%s)
SELECT risk_category, count(*)::int AS firm_count,
	round(count(*) * 100.0 / sum(count(*)) OVER (), 2)::double precision AS percentage,
	round(avg(score), 2)::double precision AS avg_score
FROM latest GROUP BY risk_category`, latestScoresSQL))
	if err != nil {
		return nil, err
	}

	byCategory := make(map[data.Category]*data.CategoryStats, len(rows))
	for _, row := range rows {
		byCategory[row.Category] = row
	}

	stats := make([]*data.CategoryStats, 0, len(data.Categories))
	for idx := len(data.Categories) - 1; idx >= 0; idx-- {
		category := data.Categories[idx]
		if row, ok := byCategory[category]; ok {
			stats = append(stats, row)
		} else {
			stats = append(stats, &data.CategoryStats{Category: category})
		}
	}

	return stats, nil
}

// FirmsByCategory returns risk score records sorted by score descending then
// filing date descending
func (myLibrary *Library) FirmsByCategory(ctx context.Context, query ScoreQuery) (*ScorePage, error) {
	query.normalize()

	source := allScoresSQL
	if query.LatestOnly {
		source = latestScoresSQL
	}

	where := ""
	args := []any{}
	if query.Category != "" {
		where = "WHERE risk_category = $1"
		args = append(args, query.Category.String())
	}

	page := &ScorePage{
		Page:     query.Page,
		PageSize: query.PageSize,
	}

	countSQL := fmt.Sprintf("WITH scores AS (%s) SELECT count(*) FROM scores %s", source, where)
	if err := myLibrary.Pool.QueryRow(ctx, countSQL, args...).Scan(&page.Total); err != nil {
		return nil, err
	}

	page.TotalPages = (page.Total + query.PageSize - 1) / query.PageSize

	limitArg := len(args) + 1
	sql := fmt.Sprintf(`WITH scores AS (%s)
SELECT firm_id, score, filing_date, factors FROM scores %s
ORDER BY score DESC, filing_date DESC, firm_id
LIMIT $%d OFFSET $%d`, source, where, limitArg, limitArg+1)
	args = append(args, query.PageSize, (query.Page-1)*query.PageSize)

	firms, err := myLibrary.selectScoredFirms(ctx, sql, args...)
	if err != nil {
		return nil, err
	}

	page.Firms = firms
	return page, nil
}

// TopRisk returns the n highest scoring firms in the High and Critical
// categories, using each firm's latest scored filing
func (myLibrary *Library) TopRisk(ctx context.Context, n int) ([]*data.ScoredFirm, error) {
	if n <= 0 {
		n = DefaultTopN
	}

	sql := fmt.Sprintf(`WITH scores AS (%s)
SELECT firm_id, score, filing_date, factors FROM scores
WHERE risk_category IN ($1, $2)
ORDER BY score DESC, filing_date DESC, firm_id
LIMIT $3`, latestScoresSQL)

	return myLibrary.selectScoredFirms(ctx, sql, data.High.String(), data.Critical.String(), n)
}

// LatestScores returns the latest scored filing of every firm, most severe first
func (myLibrary *Library) LatestScores(ctx context.Context) ([]*data.ScoredFirm, error) {
	sql := fmt.Sprintf(`WITH scores AS (%s)
SELECT firm_id, score, filing_date, factors FROM scores
ORDER BY score DESC, filing_date DESC, firm_id`, latestScoresSQL)

	return myLibrary.selectScoredFirms(ctx, sql)
}

func (myLibrary *Library) selectScoredFirms(ctx context.Context, sql string, args ...any) ([]*data.ScoredFirm, error) {
	names, err := myLibrary.firmNames(ctx)
	if err != nil {
		return nil, err
	}

	var firms []*data.ScoredFirm
	if err := pgxscan.Select(ctx, myLibrary.Pool, &firms, sql, args...); err != nil {
		return nil, err
	}

	for _, firm := range firms {
		firm.FirmName = names.Name(firm.FirmID)
		if err := firm.DecodeFactors(); err != nil {
			return nil, fmt.Errorf("decode factors for %s: %w", firm.FirmID, err)
		}
	}

	return firms, nil
}

func (query *ScoreQuery) normalize() {
	if query.Page < 1 {
		query.Page = 1
	}

	if query.PageSize < 1 {
		query.PageSize = DefaultPageSize
	}

	if query.PageSize > MaxPageSize {
		query.PageSize = MaxPageSize
	}
}
