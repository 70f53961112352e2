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
package export

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/gosimple/slug"
	"github.com/penny-vault/iarisk/data"
	"github.com/rs/zerolog/log"
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"
)

// ScoreRecord is the flattened parquet row for one firm's latest risk score
type ScoreRecord struct {
	FirmID        string  `parquet:"name=firm_id, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	FirmName      string  `parquet:"name=firm_name, type=BYTE_ARRAY, convertedtype=UTF8"`
	FilingDate    string  `parquet:"name=filing_date, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Score         int32   `parquet:"name=score, type=INT32"`
	RiskCategory  string  `parquet:"name=risk_category, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	AUMDropPct    float64 `parquet:"name=aum_drop_pct, type=DOUBLE"`
	ClientDropPct float64 `parquet:"name=client_drop_pct, type=DOUBLE"`
	AcctDropPct   float64 `parquet:"name=acct_drop_pct, type=DOUBLE"`
	NewDisclosure bool    `parquet:"name=new_disc_flag, type=BOOLEAN"`
	CCOChanged    bool    `parquet:"name=cco_changed, type=BOOLEAN"`
	TrendDown     bool    `parquet:"name=trend_down_flag, type=BOOLEAN"`
	Factors       string  `parquet:"name=factors, type=BYTE_ARRAY, convertedtype=UTF8"`
}

// NewScoreRecord flattens a scored firm into a parquet row
func NewScoreRecord(firm *data.ScoredFirm) *ScoreRecord {
	return &ScoreRecord{
		FirmID:        firm.FirmID,
		FirmName:      firm.FirmName,
		FilingDate:    firm.FilingDate.Format("2006-01-02"),
		Score:         int32(firm.Score),
		RiskCategory:  firm.Category().String(),
		AUMDropPct:    firm.Factors.AUMDropPct,
		ClientDropPct: firm.Factors.ClientDropPct,
		AcctDropPct:   firm.Factors.AccountDropPct,
		NewDisclosure: firm.Factors.NewDisclosure,
		CCOChanged:    firm.Factors.CCOChanged,
		TrendDown:     firm.Factors.TrendDown,
		Factors:       string(firm.FactorsJSON),
	}
}

// FileName returns the export file name for a run on the given date
func FileName(dir string, asOf time.Time) string {
	return filepath.Join(dir, fmt.Sprintf("%s.parquet", slug.Make("ia risk scores "+asOf.Format("2006-01-02"))))
}

// SaveToParquet writes the scored firms to fn. Records that fail to encode
// are logged and left out; the number written is returned.
func SaveToParquet(firms []*data.ScoredFirm, fn string) (int, error) {
	var err error

	fh, err := local.NewLocalFileWriter(fn)
	if err != nil {
		log.Error().Err(err).Str("FileName", fn).Msg("cannot create local file")
		return 0, err
	}
	defer fh.Close()

	pw, err := writer.NewParquetWriter(fh, new(ScoreRecord), 4)
	if err != nil {
		log.Error().Err(err).Msg("parquet write failed")
		return 0, err
	}

	pw.RowGroupSize = 128 * 1024 * 1024 // 128M
	pw.PageSize = 8 * 1024              // 8k
	pw.CompressionType = parquet.CompressionCodec_ZSTD

	written := 0
	for _, firm := range firms {
		if err = pw.Write(NewScoreRecord(firm)); err != nil {
			log.Error().Err(err).Str("FirmID", firm.FirmID).Time("FilingDate", firm.FilingDate).
				Msg("parquet write failed for record")
			continue
		}
		written++
	}

	if err = pw.WriteStop(); err != nil {
		log.Error().Err(err).Msg("parquet write failed")
		return written, err
	}

	log.Info().Int("NumRecords", written).Str("FileName", fn).Msg("parquet write finished")
	return written, nil
}
