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
	"sync"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/penny-vault/iarisk/data"
	"github.com/penny-vault/iarisk/firmname"
	"github.com/rs/zerolog/log"
)

type Library struct {
	DBUrl string
	Name  string
	Owner string

	Pool *pgxpool.Pool `toml:"-"`

	names   *firmname.Cache
	namesMu sync.Mutex
}

// Connect to the database configured for the library
func (myLibrary *Library) Connect(ctx context.Context) error {
	if myLibrary.Pool != nil {
		return nil
	}

	pool, err := pgxpool.New(ctx, myLibrary.DBUrl)
	if err != nil {
		return err
	}
	myLibrary.Pool = pool

	return nil
}

// Close the database pool
func (myLibrary *Library) Close() {
	if myLibrary.Pool != nil {
		myLibrary.Pool.Close()
	}
}

// NewFromDB creates a new library object with values from the database
func NewFromDB(ctx context.Context, dbURL string) (*Library, error) {
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		return nil, err
	}

	myLibrary := Library{
		DBUrl: dbURL,
		Pool:  pool,
	}

	if err := pool.QueryRow(ctx, "SELECT name, owner FROM library LIMIT 1").Scan(&myLibrary.Name, &myLibrary.Owner); err != nil {
		pool.Close()
		return nil, err
	}

	return &myLibrary, nil
}

// SaveDB creates a new record in the library table for this library
func (myLibrary *Library) SaveDB(ctx context.Context) error {
	_, err := myLibrary.Pool.Exec(ctx, `INSERT INTO library ("name", "owner") VALUES ($1, $2)`, myLibrary.Name, myLibrary.Owner)
	return err
}

// Filings returns every stored filing ordered by firm and filing date
func (myLibrary *Library) Filings(ctx context.Context) ([]*data.Filing, error) {
	var filings []*data.Filing
	err := pgxscan.Select(ctx, myLibrary.Pool, &filings,
		`SELECT firm_id, filing_date, firm_name, raum::double precision AS raum, client_count,
account_count, disciplinary_disclosures, cco_name FROM ia_filing ORDER BY firm_id, filing_date`)
	if err != nil {
		return nil, err
	}

	return filings, nil
}

// SaveFilings appends filings to the store. Filings are immutable so an
// existing (firm, filing date) is left untouched. Returns the number inserted.
func (myLibrary *Library) SaveFilings(ctx context.Context, filings []*data.Filing) (int, error) {
	tx, err := myLibrary.Pool.Begin(ctx)
	if err != nil {
		return 0, err
	}

	defer func() {
		if err := tx.Rollback(ctx); err != nil {
			if !errors.Is(err, pgx.ErrTxClosed) {
				log.Error().Err(err).Msg("error rollingback tx")
			}
		}
	}()

	batch := &pgx.Batch{}
	for _, filing := range filings {
		batch.Queue(`INSERT INTO ia_filing (
		"firm_id",
		"filing_date",
		"firm_name",
		"raum",
		"client_count",
		"account_count",
		"disciplinary_disclosures",
		"cco_name"
	) VALUES (
		$1, $2, $3, $4, $5, $6, $7, $8
	) ON CONFLICT ON CONSTRAINT ia_filing_pkey DO NOTHING`,
			filing.FirmID, filing.FilingDate, filing.FirmName, filing.RAUM, filing.ClientCount,
			filing.AccountCount, filing.DisciplinaryDisclosures, filing.CCOName)
	}

	results := tx.SendBatch(ctx, batch)
	inserted := 0
	for _, filing := range filings {
		tag, err := results.Exec()
		if err != nil {
			results.Close()
			log.Error().Err(err).Object("Filing", filing).Msg("save filing to DB failed")
			return 0, err
		}
		inserted += int(tag.RowsAffected())
	}

	if err := results.Close(); err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}

	return inserted, nil
}

// NumFilings returns the total count of filings and distinct firms in the store
func (myLibrary *Library) NumFilings(ctx context.Context) (filings int, firms int, err error) {
	err = myLibrary.Pool.QueryRow(ctx, "SELECT count(*), count(DISTINCT firm_id) FROM ia_filing").Scan(&filings, &firms)
	return
}

// LastRun returns the most recent successful scoring run
func (myLibrary *Library) LastRun(ctx context.Context) (*data.RunSummary, error) {
	summary := &data.RunSummary{}
	var status string
	var finished *time.Time

	err := myLibrary.Pool.QueryRow(ctx, `SELECT id, started_on, finished_on, status, filings_read,
filings_skipped, change_records, rows_scored, rows_skipped, firms_scored FROM risk_runs
WHERE status = $1 ORDER BY started_on DESC LIMIT 1`, string(data.RunSuccess)).Scan(
		&summary.RunID, &summary.StartTime, &finished, &status, &summary.FilingsRead,
		&summary.FilingsSkipped, &summary.ChangeRecords, &summary.RowsScored,
		&summary.RowsSkipped, &summary.FirmsScored)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("query last run: %w", err)
	}

	summary.Status = data.RunStatus(status)
	if finished != nil {
		summary.EndTime = *finished
	}

	return summary, nil
}
