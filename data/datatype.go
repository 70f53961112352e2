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
package data

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

// DataType describes a derived dataset that is materialized into generation
// tables and exposed to readers through a view of the same name
type DataType struct {
	Name    string
	Schema  string
	Columns []string
}

const (
	ChangeKey    = "ia_change"
	RiskScoreKey = "ia_risk_score"
)

var DataTypes = map[string]*DataType{
	ChangeKey: {
		Name: ChangeKey,
		Schema: `CREATE TABLE %[1]s (
firm_id           TEXT             NOT NULL,
filing_date       DATE             NOT NULL,
aum_drop_pct      DOUBLE PRECISION NOT NULL DEFAULT 0,
client_drop_pct   DOUBLE PRECISION NOT NULL DEFAULT 0,
acct_drop_pct     DOUBLE PRECISION NOT NULL DEFAULT 0,
new_disc_flag     BOOLEAN          NOT NULL DEFAULT false,
cco_changed       BOOLEAN          NOT NULL DEFAULT false,
trend_down_flag   BOOLEAN          NOT NULL DEFAULT false,
owner_moves_12m   INT              NOT NULL DEFAULT 0,
adviser_age_years INT              NOT NULL DEFAULT 0,
raum              NUMERIC(20, 2)   NOT NULL DEFAULT 0,
CHECK (aum_drop_pct BETWEEN 0 AND 100),
CHECK (client_drop_pct BETWEEN 0 AND 100),
CHECK (acct_drop_pct BETWEEN 0 AND 100),
PRIMARY KEY (firm_id, filing_date)
);`,
		Columns: ChangeColumns,
	},
	RiskScoreKey: {
		Name: RiskScoreKey,
		Schema: `CREATE TABLE %[1]s (
firm_id       TEXT        NOT NULL,
filing_date   DATE        NOT NULL,
score         INT         NOT NULL CHECK (score >= 0),
risk_category TEXT        NOT NULL,
factors       JSONB       NOT NULL DEFAULT '{}'::jsonb,
created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
updated_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
PRIMARY KEY (firm_id, filing_date)
);

CREATE INDEX %[1]s_category_idx ON %[1]s(risk_category, score DESC, filing_date DESC);
CREATE INDEX %[1]s_factors_idx ON %[1]s USING GIN (factors);`,
		Columns: ScoreColumns,
	},
}

// ExpandedSchema returns the DDL for a generation table of the data type
func (dt *DataType) ExpandedSchema(tableName string) string {
	return fmt.Sprintf(dt.Schema, tableName)
}

// GenerationTable computes the physical table name holding the output of a run
func (dt *DataType) GenerationTable(runID uuid.UUID, runDate time.Time) string {
	tbl := slug.Make(fmt.Sprintf("%s %s %s", dt.Name, runDate.Format("20060102"), runID.String()[:8]))
	return strings.ReplaceAll(tbl, "-", "_")
}
