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
	"os"
	"path/filepath"

	"github.com/charmbracelet/huh"
	"github.com/jackc/pgx/v5"
	"github.com/pelletier/go-toml/v2"
	"github.com/penny-vault/iarisk/db"
	"github.com/penny-vault/iarisk/healthcheck"
	"github.com/penny-vault/iarisk/library"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// configFile mirrors the keys read through viper
type configFile struct {
	DB struct {
		URL string `toml:"url"`
	} `toml:"db"`
	Log struct {
		Level string `toml:"level"`
	} `toml:"log"`
	Pipeline struct {
		Workers  int    `toml:"workers,omitempty"`
		Schedule string `toml:"schedule"`
	} `toml:"pipeline"`
	Healthchecks struct {
		APIKey  string `toml:"apikey,omitempty"`
		CheckID string `toml:"check_id,omitempty"`
	} `toml:"healthchecks"`
	Export struct {
		Dir string `toml:"dir"`
	} `toml:"export"`
}

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Gather database configuration and setup schema",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		myLibrary := &library.Library{}
		config := configFile{}
		config.Log.Level = "info"
		config.Pipeline.Schedule = viper.GetString("pipeline.schedule")
		config.Export.Dir = viper.GetString("export.dir")

		form := huh.NewForm(
			// Gather details about the library and who owns it
			huh.NewGroup(
				huh.NewInput().
					Title("Give the library a name:").
					Value(&myLibrary.Name),

				huh.NewInput().
					Title("Who owns the library?").
					Value(&myLibrary.Owner),
			),

			// Get details about the database
			huh.NewGroup(
				huh.NewInput().
					Title("Provide the DSN for connecting to your PostgreSQL database (postgres://[user[:password]@][netloc][:port][/dbname][?param1=value1&...])").
					Value(&myLibrary.DBUrl).
					Validate(func(dsn string) error {
						_, err := pgx.ParseConfig(dsn)
						return err
					}),
			),

			// Optional monitoring of scheduled runs
			huh.NewGroup(
				huh.NewInput().
					Title("healthchecks.io API key (leave blank to disable monitoring):").
					Value(&config.Healthchecks.APIKey),
			),
		)

		err := form.Run()
		if err != nil {
			log.Fatal().Err(err).Msg("error gathering database settings")
		}

		log.Info().Msg("creating database tables")

		err = db.Migrate(myLibrary.DBUrl)
		if err != nil {
			log.Fatal().Err(err).Msg("error running database migration")
		}

		log.Info().Msg("database tables created")
		log.Info().Msg("Saving library name and owner to database")

		// save library name and owner to database
		if err := myLibrary.Connect(ctx); err != nil {
			log.Fatal().Err(err).Msg("could not connect to database")
		}
		defer myLibrary.Close()

		err = myLibrary.SaveDB(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("error saving library settings to database")
		}

		// publish empty score views so readers never see missing relations
		if err := myLibrary.Bootstrap(ctx); err != nil {
			log.Fatal().Err(err).Msg("error creating risk score views")
		}

		if config.Healthchecks.APIKey != "" {
			viper.Set("healthchecks.apikey", config.Healthchecks.APIKey)
			checkID, err := healthcheck.Create("iarisk "+myLibrary.Name, "iarisk-run", []string{"iarisk"}, config.Pipeline.Schedule)
			if err != nil {
				log.Error().Err(err).Msg("could not create healthcheck; monitoring disabled")
			} else {
				config.Healthchecks.CheckID = checkID
			}
		}

		// save database settings to config file
		home, err := os.UserHomeDir()
		if err != nil {
			log.Fatal().Err(err).Msg("could not determine user home directory")
		}

		config.DB.URL = myLibrary.DBUrl

		configFN := filepath.Join(home, ".iarisk.toml")
		log.Info().Str("ConfigFile", configFN).Msg("Saving database connection info to config file")
		configData, err := toml.Marshal(config)
		if err != nil {
			log.Fatal().Err(err).Msg("could not marshal configuration data")
		}

		err = os.WriteFile(configFN, configData, 0600)
		if err != nil {
			log.Fatal().Err(err).Str("FileName", configFN).Msg("could not save configuration to file")
		}

		log.Info().Msg("Your risk library has been initialized")
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
