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
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/penny-vault/iarisk/healthcheck"
	"github.com/penny-vault/iarisk/library"
	"github.com/penny-vault/iarisk/pipeline"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var daemon bool

const failureRecordTimeout = 30 * time.Second

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Recompute change and risk score records",
	Long: `The run sub-command reads every stored filing, derives change records between
consecutive filings of each firm, scores them and publishes the results. With
--daemon the run repeats on the pipeline.schedule cron spec until interrupted;
a run still in progress when the next one is due causes that tick to be skipped.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		ctx = log.Logger.WithContext(ctx)

		myLibrary := openLibrary(ctx)
		defer myLibrary.Close()

		pinger := healthcheck.NewPinger()

		if !daemon {
			if err := runOnce(ctx, myLibrary, pinger); err != nil {
				log.Fatal().Err(err).Msg("risk scoring run failed")
			}
			return
		}

		schedule := viper.GetString("pipeline.schedule")
		scheduler := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))
		if _, err := scheduler.AddFunc(schedule, func() {
			if err := runOnce(ctx, myLibrary, pinger); err != nil {
				log.Error().Err(err).Msg("scheduled risk scoring run failed")
			}
		}); err != nil {
			log.Fatal().Err(err).Str("Schedule", schedule).Msg("invalid pipeline schedule")
		}

		log.Info().Str("Schedule", schedule).Msg("starting risk scoring daemon")
		scheduler.Start()

		<-ctx.Done()
		log.Info().Msg("waiting for in-flight run to finish")
		<-scheduler.Stop().Done()
	},
}

// runOnce executes a single pipeline run and records its outcome
func runOnce(ctx context.Context, myLibrary *library.Library, pinger *healthcheck.Pinger) error {
	runID := uuid.New()
	if err := pinger.Start(runID.String()); err != nil {
		log.Warn().Err(err).Msg("healthcheck start ping failed")
	}

	p := pipeline.New(myLibrary, myLibrary,
		pipeline.WithWorkers(viper.GetInt("pipeline.workers")),
		pipeline.WithRunID(runID))

	summary, err := p.Run(ctx)
	if err != nil {
		// the run context is cancelled on shutdown; the failure must still be recorded
		failCtx, cancel := detached(ctx)
		defer cancel()

		if recordErr := myLibrary.RecordFailedRun(failCtx, summary, err); recordErr != nil {
			log.Error().Err(recordErr).Msg("could not record failed run")
		}

		if pingErr := pinger.Fail(runID.String(), err.Error()); pingErr != nil {
			log.Warn().Err(pingErr).Msg("healthcheck fail ping failed")
		}
		return err
	}

	msg := fmt.Sprintf("scored %d rows for %d firms, skipped %d rows and %d filings",
		summary.RowsScored, summary.FirmsScored, summary.RowsSkipped, summary.FilingsSkipped)
	if pingErr := pinger.Success(runID.String(), msg); pingErr != nil {
		log.Warn().Err(pingErr).Msg("healthcheck success ping failed")
	}

	return nil
}

// detached keeps ctx values (the logger) but not its cancellation, bounded by
// failureRecordTimeout
func detached(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), failureRecordTimeout)
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().BoolVar(&daemon, "daemon", false, "run on the configured schedule until interrupted")
}
