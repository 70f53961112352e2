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
	"fmt"

	"github.com/penny-vault/iarisk/data"
	"github.com/penny-vault/iarisk/library"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var (
	firmsCategory   string
	firmsPage       int
	firmsPageSize   int
	firmsAllFilings bool
)

// firmsCmd lists risk score records in a category
var firmsCmd = &cobra.Command{
	Use:   "firms",
	Short: "List scored firms by risk category",
	Long: `List risk score records sorted by score, highest first, then by filing date.
By default only the latest scored filing of each firm is shown; use
--all-filings to include every scored filing.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		query := library.ScoreQuery{
			Page:       firmsPage,
			PageSize:   firmsPageSize,
			LatestOnly: !firmsAllFilings,
		}

		if firmsCategory != "" {
			category, err := data.ParseCategory(firmsCategory)
			if err != nil {
				log.Fatal().Err(err).Str("Category", firmsCategory).Msg("unknown risk category")
			}
			query.Category = category
		}

		myLibrary := openLibrary(ctx)
		defer myLibrary.Close()

		page, err := myLibrary.FirmsByCategory(ctx, query)
		if err != nil {
			log.Fatal().Err(err).Msg("could not query risk scores")
		}

		p := message.NewPrinter(language.English)
		fmt.Println(firmTable(page.Firms))
		p.Printf("page %d of %d (%d records)\n", page.Page, max(page.TotalPages, 1), page.Total)
	},
}

func init() {
	rootCmd.AddCommand(firmsCmd)
	firmsCmd.Flags().StringVarP(&firmsCategory, "category", "c", "", "risk category (Low, Medium, High, Critical)")
	firmsCmd.Flags().IntVarP(&firmsPage, "page", "p", 1, "page number starting at 1")
	firmsCmd.Flags().IntVar(&firmsPageSize, "page-size", library.DefaultPageSize, "records per page")
	firmsCmd.Flags().BoolVar(&firmsAllFilings, "all-filings", false, "include every scored filing, not just the latest per firm")
}
