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
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/penny-vault/iarisk/data"
	"github.com/rs/zerolog/log"
)

// Publish replaces the visible change and risk score records with a new
// generation. Everything happens in one transaction: readers continue to see
// the previous generation until commit and a failure leaves it untouched.
func (myLibrary *Library) Publish(ctx context.Context, summary *data.RunSummary, changes []*data.ChangeRecord, scores []*data.RiskScore) error {
	return myLibrary.publish(ctx, summary.RunID, summary.StartTime, summary, changes, scores)
}

// Bootstrap publishes an empty generation so the reader-facing views exist
// before the first scoring run. It is a no-op once views are registered.
func (myLibrary *Library) Bootstrap(ctx context.Context) error {
	var count int
	if err := myLibrary.Pool.QueryRow(ctx, "SELECT count(*) FROM materialized_views").Scan(&count); err != nil {
		return err
	}

	if count == len(data.DataTypes) {
		return nil
	}

	return myLibrary.publish(ctx, uuid.New(), time.Now(), nil, nil, nil)
}

func (myLibrary *Library) publish(ctx context.Context, runID uuid.UUID, runDate time.Time, summary *data.RunSummary, changes []*data.ChangeRecord, scores []*data.RiskScore) error {
	tx, err := myLibrary.Pool.Begin(ctx)
	if err != nil {
		return err
	}

	defer func() {
		if err := tx.Rollback(ctx); err != nil {
			if !errors.Is(err, pgx.ErrTxClosed) {
				log.Error().Err(err).Msg("error rollingback tx")
			}
		}
	}()

	// serialize concurrent publishers on the registry
	if _, err := tx.Exec(ctx, "LOCK TABLE materialized_views IN EXCLUSIVE MODE"); err != nil {
		return err
	}

	previous, err := registeredTables(ctx, tx)
	if err != nil {
		return err
	}

	changeType := data.DataTypes[data.ChangeKey]
	scoreType := data.DataTypes[data.RiskScoreKey]

	generation := map[string]string{
		data.ChangeKey:    changeType.GenerationTable(runID, runDate),
		data.RiskScoreKey: scoreType.GenerationTable(runID, runDate),
	}

	for key, tbl := range generation {
		// generation names are slugs so they are safe to interpolate unquoted
		schema := data.DataTypes[key].ExpandedSchema(tbl)
		log.Debug().Str("TableName", tbl).Msg("creating generation table")
		if _, err := tx.Exec(ctx, schema); err != nil {
			return err
		}
	}

	changeRows := make([][]any, len(changes))
	for idx, change := range changes {
		changeRows[idx] = change.Values()
	}

	if _, err := tx.CopyFrom(ctx, pgx.Identifier{generation[data.ChangeKey]}, changeType.Columns, pgx.CopyFromRows(changeRows)); err != nil {
		return fmt.Errorf("copy change records: %w", err)
	}

	scoreRows := make([][]any, len(scores))
	for idx, score := range scores {
		row, err := score.Values()
		if err != nil {
			return fmt.Errorf("encode risk score factors: %w", err)
		}
		scoreRows[idx] = row
	}

	if _, err := tx.CopyFrom(ctx, pgx.Identifier{generation[data.RiskScoreKey]}, scoreType.Columns, pgx.CopyFromRows(scoreRows)); err != nil {
		return fmt.Errorf("copy risk scores: %w", err)
	}

	// a recomputed (firm, filing date) keeps the creation time of its first scoring
	if prevScores, ok := previous[data.RiskScoreKey]; ok {
		sql := fmt.Sprintf(`UPDATE %[1]s AS curr SET created_at = prev.created_at
FROM %[2]s AS prev
WHERE curr.firm_id = prev.firm_id AND curr.filing_date = prev.filing_date`,
			pgx.Identifier{generation[data.RiskScoreKey]}.Sanitize(), pgx.Identifier{prevScores}.Sanitize())
		if _, err := tx.Exec(ctx, sql); err != nil {
			return err
		}
	}

	for key, tbl := range generation {
		view := pgx.Identifier{key}.Sanitize()
		sql := fmt.Sprintf("CREATE OR REPLACE VIEW %s AS SELECT * FROM %s", view, pgx.Identifier{tbl}.Sanitize())
		if _, err := tx.Exec(ctx, sql); err != nil {
			return err
		}

		if _, err := tx.Exec(ctx, `INSERT INTO materialized_views ("view_name", "table_name", "run_id", "updated_on")
VALUES ($1, $2, $3, now())
ON CONFLICT ON CONSTRAINT materialized_views_pkey DO UPDATE SET
	table_name = EXCLUDED.table_name,
	run_id = EXCLUDED.run_id,
	updated_on = EXCLUDED.updated_on`, key, tbl, runID); err != nil {
			return err
		}

		if old, ok := previous[key]; ok && old != tbl {
			log.Debug().Str("TableName", old).Msg("dropping previous generation")
			if _, err := tx.Exec(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", pgx.Identifier{old}.Sanitize())); err != nil {
				return err
			}
		}
	}

	if summary != nil {
		if err := insertRun(ctx, tx, summary, nil); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// RecordFailedRun saves a failed run outside of any publish transaction so
// operators can see why the visible results did not change
func (myLibrary *Library) RecordFailedRun(ctx context.Context, summary *data.RunSummary, runErr error) error {
	return insertRun(ctx, myLibrary.Pool, summary, runErr)
}

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func insertRun(ctx context.Context, db execer, summary *data.RunSummary, runErr error) error {
	var errMsg *string
	if runErr != nil {
		msg := runErr.Error()
		errMsg = &msg
	}

	var finished *time.Time
	if !summary.EndTime.IsZero() {
		finished = &summary.EndTime
	}

	_, err := db.Exec(ctx, `INSERT INTO risk_runs (
		"id",
		"started_on",
		"finished_on",
		"status",
		"filings_read",
		"filings_skipped",
		"change_records",
		"rows_scored",
		"rows_skipped",
		"firms_scored",
		"error"
	) VALUES (
		$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11
	) ON CONFLICT ON CONSTRAINT risk_runs_pkey DO UPDATE SET
		finished_on = EXCLUDED.finished_on,
		status = EXCLUDED.status,
		error = EXCLUDED.error`,
		summary.RunID, summary.StartTime, finished, string(summary.Status), summary.FilingsRead,
		summary.FilingsSkipped, summary.ChangeRecords, summary.RowsScored, summary.RowsSkipped,
		summary.FirmsScored, errMsg)

	return err
}

func registeredTables(ctx context.Context, tx pgx.Tx) (map[string]string, error) {
	rows, err := tx.Query(ctx, "SELECT view_name, table_name FROM materialized_views")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tables := make(map[string]string)
	for rows.Next() {
		var view, tbl string
		if err := rows.Scan(&view, &tbl); err != nil {
			return nil, err
		}
		tables[view] = tbl
	}

	return tables, rows.Err()
}
