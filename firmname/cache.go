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
package firmname

import (
	"context"
	"sync"
	"time"

	"github.com/alphadose/haxmap"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/rs/zerolog/log"
)

// Unknown is returned for firms that never reported a name
const Unknown = "Unknown"

// Cache maps firm identifiers to the name reported on each firm's most recent
// filing that carried a name
type Cache struct {
	names *haxmap.Map[string, string]

	mu       sync.Mutex
	loadedOn time.Time
	maxAge   time.Duration
}

type firmName struct {
	FirmID   string `db:"firm_id"`
	FirmName string `db:"firm_name"`
}

func New(maxAge time.Duration) *Cache {
	return &Cache{
		names:  haxmap.New[string, string](),
		maxAge: maxAge,
	}
}

// Name returns the resolved firm name or Unknown
func (cache *Cache) Name(firmID string) string {
	if name, ok := cache.names.Get(firmID); ok && name != "" {
		return name
	}
	return Unknown
}

// Set records a firm name directly
func (cache *Cache) Set(firmID, name string) {
	if name == "" {
		return
	}
	cache.names.Set(firmID, name)
}

func (cache *Cache) Len() int {
	return int(cache.names.Len())
}

// Refresh reloads firm names from the filing store if the cache is older than
// its max age
func (cache *Cache) Refresh(ctx context.Context, db pgxscan.Querier) error {
	cache.mu.Lock()
	defer cache.mu.Unlock()

	if !cache.loadedOn.IsZero() && time.Since(cache.loadedOn) < cache.maxAge {
		return nil
	}

	sql := `SELECT DISTINCT ON (firm_id) firm_id, firm_name FROM ia_filing
WHERE firm_name IS NOT NULL AND firm_name <> ''
ORDER BY firm_id, filing_date DESC`

	var names []*firmName
	if err := pgxscan.Select(ctx, db, &names, sql); err != nil {
		log.Error().Err(err).Str("SQL", sql).Msg("load firm names failed")
		return err
	}

	for _, name := range names {
		cache.names.Set(name.FirmID, name.FirmName)
	}

	cache.loadedOn = time.Now()
	log.Debug().Int("NumFirms", len(names)).Msg("loaded firm name cache")

	return nil
}
