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
package importer

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/penny-vault/iarisk/data"
	"github.com/rs/zerolog/log"
)

// DateLayouts are the filing date formats accepted on import
var DateLayouts = []string{"2006-01-02", "01/02/2006", "20060102"}

// csvFiling is a raw row of a normalized filings export. Every column is read
// as text so a single bad cell skips only its row.
type csvFiling struct {
	FirmID                  string `csv:"firm_id"`
	FilingDate              string `csv:"filing_date"`
	FirmName                string `csv:"firm_name"`
	RAUM                    string `csv:"raum"`
	ClientCount             string `csv:"client_count"`
	AccountCount            string `csv:"account_count"`
	DisciplinaryDisclosures string `csv:"disciplinary_disclosures"`
	CCOName                 string `csv:"cco_name"`
}

// Result of parsing a filings file
type Result struct {
	Filings   []*data.Filing
	RowsRead  int
	Malformed int
}

// ReadFile parses the filings CSV at fn
func ReadFile(fn string) (*Result, error) {
	fh, err := os.Open(fn)
	if err != nil {
		return nil, err
	}
	defer fh.Close()

	return Read(fh)
}

// Read parses filings from a CSV stream with a header row. Malformed rows are
// logged and counted but do not stop the import.
func Read(r io.Reader) (*Result, error) {
	rows := []*csvFiling{}
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		log.Error().Err(err).Msg("failed to unmarshal filings csv")
		return nil, err
	}

	result := &Result{
		Filings:  make([]*data.Filing, 0, len(rows)),
		RowsRead: len(rows),
	}

	for idx, row := range rows {
		filing, err := row.toFiling()
		if err == nil {
			err = filing.Validate()
		}

		if err != nil {
			log.Warn().Err(err).Int("Row", idx+2).Str("FirmID", row.FirmID).Str("FilingDate", row.FilingDate).
				Msg("skipping malformed filing")
			result.Malformed++
			continue
		}

		result.Filings = append(result.Filings, filing)
	}

	return result, nil
}

// ParseDate accepts any of DateLayouts
func ParseDate(val string) (time.Time, error) {
	val = strings.TrimSpace(val)
	for _, layout := range DateLayouts {
		if dt, err := time.Parse(layout, val); err == nil {
			return dt, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: unrecognized filing date %q", data.ErrMalformedFiling, val)
}

func (row *csvFiling) toFiling() (*data.Filing, error) {
	var err error

	filing := &data.Filing{
		FirmID:   strings.TrimSpace(row.FirmID),
		FirmName: optionalString(row.FirmName),
		CCOName:  optionalString(row.CCOName),
	}

	if filing.FilingDate, err = ParseDate(row.FilingDate); err != nil {
		return nil, err
	}

	if filing.RAUM, err = optionalFloat(row.RAUM); err != nil {
		return nil, fmt.Errorf("raum: %w", err)
	}

	if filing.ClientCount, err = optionalInt(row.ClientCount); err != nil {
		return nil, fmt.Errorf("client_count: %w", err)
	}

	if filing.AccountCount, err = optionalInt(row.AccountCount); err != nil {
		return nil, fmt.Errorf("account_count: %w", err)
	}

	if filing.DisciplinaryDisclosures, err = optionalInt(row.DisciplinaryDisclosures); err != nil {
		return nil, fmt.Errorf("disciplinary_disclosures: %w", err)
	}

	return filing, nil
}

func optionalString(val string) *string {
	val = strings.TrimSpace(val)
	if val == "" {
		return nil
	}
	return &val
}

func optionalFloat(val string) (*float64, error) {
	val = strings.ReplaceAll(strings.TrimSpace(val), ",", "")
	if val == "" || strings.EqualFold(val, "NA") {
		return nil, nil
	}

	num, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return nil, errors.Join(data.ErrMalformedFiling, err)
	}
	return &num, nil
}

func optionalInt(val string) (*int64, error) {
	val = strings.ReplaceAll(strings.TrimSpace(val), ",", "")
	if val == "" || strings.EqualFold(val, "NA") {
		return nil, nil
	}

	num, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return nil, errors.Join(data.ErrMalformedFiling, err)
	}
	return &num, nil
}
