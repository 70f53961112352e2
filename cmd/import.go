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
	"context"

	"github.com/penny-vault/iarisk/importer"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import <file.csv>...",
	Short: "Load normalized adviser filings from CSV",
	Long: `Import reads CSV files with the header

	firm_id,filing_date,firm_name,raum,client_count,account_count,disciplinary_disclosures,cco_name

and appends the filings to the library. Filings already stored for the same
firm and filing date are left unchanged. Malformed rows are skipped.`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		myLibrary := openLibrary(ctx)
		defer myLibrary.Close()

		for _, fn := range args {
			fileLogger := log.With().Str("FileName", fn).Logger()

			result, err := importer.ReadFile(fn)
			if err != nil {
				fileLogger.Fatal().Err(err).Msg("could not read filings file")
			}

			inserted, err := myLibrary.SaveFilings(ctx, result.Filings)
			if err != nil {
				fileLogger.Fatal().Err(err).Msg("could not save filings")
			}

			fileLogger.Info().
				Int("RowsRead", result.RowsRead).
				Int("NumMalformed", result.Malformed).
				Int("NumInserted", inserted).
				Int("NumExisting", len(result.Filings)-inserted).
				Msg("imported filings")
		}
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
}
