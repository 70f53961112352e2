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
package export_test

import (
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/reader"

	"github.com/penny-vault/iarisk/data"
	"github.com/penny-vault/iarisk/export"
)

var _ = Describe("Parquet export", func() {
	var firms []*data.ScoredFirm

	BeforeEach(func() {
		firms = []*data.ScoredFirm{
			{
				FirmID:      "801-1",
				FirmName:    "Acme Advisers",
				Score:       85,
				FilingDate:  time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC),
				FactorsJSON: []byte(`{"aum_drop_pct":60}`),
				Factors:     data.Factors{AUMDropPct: 60, NewDisclosure: true, CCOChanged: true},
			},
			{
				FirmID:     "801-2",
				FirmName:   "Unknown",
				Score:      5,
				FilingDate: time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC),
			},
		}
	})

	It("flattens scored firms with a derived category", func() {
		record := export.NewScoreRecord(firms[0])
		Expect(record.RiskCategory).To(Equal("Critical"))
		Expect(record.FilingDate).To(Equal("2024-03-31"))
		Expect(record.AUMDropPct).To(BeNumerically("~", 60.0))
		Expect(record.NewDisclosure).To(BeTrue())
		Expect(record.Factors).To(Equal(`{"aum_drop_pct":60}`))
	})

	It("names files by date", func() {
		fn := export.FileName("/tmp/out", time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC))
		Expect(fn).To(Equal("/tmp/out/ia-risk-scores-2024-07-01.parquet"))
	})

	It("writes every record to the parquet file", func() {
		fn := filepath.Join(GinkgoT().TempDir(), "scores.parquet")

		written, err := export.SaveToParquet(firms, fn)
		Expect(err).NotTo(HaveOccurred())
		Expect(written).To(Equal(2))

		fr, err := local.NewLocalFileReader(fn)
		Expect(err).NotTo(HaveOccurred())
		defer fr.Close()

		pr, err := reader.NewParquetReader(fr, new(export.ScoreRecord), 1)
		Expect(err).NotTo(HaveOccurred())
		defer pr.ReadStop()

		Expect(pr.GetNumRows()).To(Equal(int64(2)))

		rows := make([]export.ScoreRecord, 2)
		Expect(pr.Read(&rows)).To(Succeed())
		Expect(rows[0].FirmID).To(Equal("801-1"))
		Expect(rows[1].RiskCategory).To(Equal("Low"))
	})
})
