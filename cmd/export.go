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
	"time"

	"github.com/penny-vault/iarisk/backblaze"
	"github.com/penny-vault/iarisk/export"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var upload bool

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the latest risk score of every firm to a parquet file",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		myLibrary := openLibrary(ctx)
		defer myLibrary.Close()

		firms, err := myLibrary.LatestScores(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("could not load latest risk scores")
		}

		now := time.Now()
		parquetFn := export.FileName(viper.GetString("export.dir"), now)
		log.Info().Str("FileName", parquetFn).Int("NumFirms", len(firms)).Msg("writing risk scores to parquet")

		if _, err := export.SaveToParquet(firms, parquetFn); err != nil {
			log.Fatal().Err(err).Msg("failed writing parquet file")
		}

		if upload {
			bucket := viper.GetString("backblaze.bucket")
			if err := backblaze.Upload(parquetFn, bucket, now.Format("2006")); err != nil {
				log.Fatal().Err(err).Msg("failed uploading parquet file to Backblaze")
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().BoolVar(&upload, "upload", false, "upload the parquet file to the backblaze.bucket")
}
