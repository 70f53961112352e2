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

	"github.com/penny-vault/iarisk/library"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var topN int

var topCmd = &cobra.Command{
	Use:   "top",
	Short: "Show the highest risk firms in the High and Critical categories",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		myLibrary := openLibrary(ctx)
		defer myLibrary.Close()

		firms, err := myLibrary.TopRisk(ctx, topN)
		if err != nil {
			log.Fatal().Err(err).Msg("could not query top risk firms")
		}

		if len(firms) == 0 {
			fmt.Println("no firms in the High or Critical categories")
			return
		}

		fmt.Println(firmTable(firms))
	},
}

func init() {
	rootCmd.AddCommand(topCmd)
	topCmd.Flags().IntVarP(&topN, "number", "n", library.DefaultTopN, "number of firms to show")
}
