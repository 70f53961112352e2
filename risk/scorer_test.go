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
package risk_test

import (
	"errors"
	"math"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/penny-vault/iarisk/data"
	"github.com/penny-vault/iarisk/risk"
)

var runTime = time.Date(2025, 2, 1, 12, 0, 0, 0, time.UTC)

// established is a change record that fires no rule
func established() *data.ChangeRecord {
	return &data.ChangeRecord{
		FirmID:          "801-12345",
		FilingDate:      time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC),
		AdviserAgeYears: 10,
		RAUM:            500_000_000,
	}
}

var _ = Describe("Scorer", func() {
	var scorer *risk.Scorer

	BeforeEach(func() {
		scorer = risk.New(runTime)
	})

	score := func(change *data.ChangeRecord) *data.RiskScore {
		result, err := scorer.Score(change)
		Expect(err).NotTo(HaveOccurred())
		return result
	}

	It("scores a quiet established firm as zero", func() {
		result := score(established())
		Expect(result.Score).To(BeZero())
		Expect(result.Category()).To(Equal(data.Low))
		Expect(result.Factors.Contributions).To(BeEmpty())
	})

	It("scores a young firm with a severe asset drop", func() {
		change := established()
		change.AUMDropPct = 30
		change.AdviserAgeYears = 1
		change.RAUM = 70_000_000

		result := score(change)
		Expect(result.Score).To(Equal(30))
		Expect(result.Category()).To(Equal(data.Medium))
		Expect(result.Factors.Contributions).To(Equal(map[string]int{"severe_aum_drop": 25, "young_firm": 5}))
	})

	It("scores a young firm with a new disclosure", func() {
		change := established()
		change.NewDisclosure = true
		change.AdviserAgeYears = 2
		change.RAUM = 70_000_000

		result := score(change)
		Expect(result.Score).To(Equal(45))
		Expect(result.Category()).To(Equal(data.Medium))
	})

	DescribeTable("drop bands",
		func(field string, pct float64, expected int) {
			change := established()
			switch field {
			case "aum":
				change.AUMDropPct = pct
			case "client":
				change.ClientDropPct = pct
			case "account":
				change.AccountDropPct = pct
			}
			Expect(score(change).Score).To(Equal(expected))
		},
		Entry("aum below moderate", "aum", 14.99, 0),
		Entry("aum moderate lower edge", "aum", 15.0, 15),
		Entry("aum just under severe", "aum", 24.99, 15),
		Entry("aum severe edge", "aum", 25.0, 25),
		Entry("aum total loss", "aum", 100.0, 25),
		Entry("client moderate", "client", 20.0, 8),
		Entry("client severe", "client", 25.0, 15),
		Entry("account moderate", "account", 15.0, 5),
		Entry("account severe", "account", 60.0, 10),
	)

	DescribeTable("single flags",
		func(mutate func(*data.ChangeRecord), expected int) {
			change := established()
			mutate(change)
			Expect(score(change).Score).To(Equal(expected))
		},
		Entry("new disclosure", func(c *data.ChangeRecord) { c.NewDisclosure = true }, 40),
		Entry("compliance officer change", func(c *data.ChangeRecord) { c.CCOChanged = true }, 10),
		Entry("downtrend", func(c *data.ChangeRecord) { c.TrendDown = true }, 10),
		Entry("one owner move", func(c *data.ChangeRecord) { c.OwnerMoves12m = 1 }, 0),
		Entry("two owner moves", func(c *data.ChangeRecord) { c.OwnerMoves12m = 2 }, 10),
		Entry("age at young limit", func(c *data.ChangeRecord) { c.AdviserAgeYears = 3 }, 0),
		Entry("age below young limit", func(c *data.ChangeRecord) { c.AdviserAgeYears = 2 }, 5),
		Entry("assets at small limit", func(c *data.ChangeRecord) { c.RAUM = 50_000_000 }, 0),
		Entry("assets below small limit", func(c *data.ChangeRecord) { c.RAUM = 49_999_999 }, 5),
	)

	It("is the sum of all weights when every rule fires", func() {
		change := &data.ChangeRecord{
			FirmID:         "801-1",
			FilingDate:     time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC),
			AUMDropPct:     90,
			ClientDropPct:  90,
			AccountDropPct: 90,
			NewDisclosure:  true,
			CCOChanged:     true,
			TrendDown:      true,
			OwnerMoves12m:  5,
			RAUM:           1_000,
		}

		result := score(change)
		Expect(result.Score).To(Equal(risk.MaxScore() - 15 - 8 - 5))
		Expect(result.Category()).To(Equal(data.Critical))
	})

	It("never lowers the score when a flag turns on", func() {
		base := established()
		baseline := score(base).Score

		mutations := []func(*data.ChangeRecord){
			func(c *data.ChangeRecord) { c.NewDisclosure = true },
			func(c *data.ChangeRecord) { c.CCOChanged = true },
			func(c *data.ChangeRecord) { c.TrendDown = true },
		}

		for _, mutate := range mutations {
			change := established()
			mutate(change)
			Expect(score(change).Score).To(BeNumerically(">=", baseline))
		}
	})

	It("never lowers the score as a drop grows", func() {
		previous := 0
		for pct := 0.0; pct <= 100; pct += 0.5 {
			change := established()
			change.AUMDropPct = pct
			change.ClientDropPct = pct
			change.AccountDropPct = pct

			current := score(change).Score
			Expect(current).To(BeNumerically(">=", previous), "drop %v", pct)
			previous = current
		}
	})

	It("derives the category from the score", func() {
		for _, change := range []*data.ChangeRecord{established(), {
			FirmID: "801-2", FilingDate: runTime, NewDisclosure: true, CCOChanged: true, AUMDropPct: 40, RAUM: 1,
		}} {
			result := score(change)
			Expect(result.Category()).To(Equal(data.CategoryForScore(result.Score)))
		}
	})

	It("is deterministic", func() {
		change := established()
		change.AUMDropPct = 18
		change.CCOChanged = true

		Expect(score(change)).To(Equal(score(change)))
	})

	It("stamps the run time", func() {
		result := score(established())
		Expect(result.CreatedAt).To(Equal(runTime))
		Expect(result.UpdatedAt).To(Equal(runTime))
	})

	DescribeTable("malformed records",
		func(mutate func(*data.ChangeRecord)) {
			change := established()
			mutate(change)
			_, err := scorer.Score(change)
			Expect(errors.Is(err, risk.ErrMalformedChange)).To(BeTrue())
		},
		Entry("missing firm", func(c *data.ChangeRecord) { c.FirmID = "" }),
		Entry("missing date", func(c *data.ChangeRecord) { c.FilingDate = time.Time{} }),
		Entry("NaN drop", func(c *data.ChangeRecord) { c.AUMDropPct = math.NaN() }),
		Entry("drop above 100", func(c *data.ChangeRecord) { c.ClientDropPct = 101 }),
		Entry("negative drop", func(c *data.ChangeRecord) { c.AccountDropPct = -1 }),
		Entry("infinite assets", func(c *data.ChangeRecord) { c.RAUM = math.Inf(1) }),
		Entry("negative owner moves", func(c *data.ChangeRecord) { c.OwnerMoves12m = -1 }),
	)

	It("skips and counts malformed records", func() {
		bad := established()
		bad.AUMDropPct = math.NaN()

		scores, skipped := scorer.ScoreAll([]*data.ChangeRecord{established(), bad, established()})
		Expect(scores).To(HaveLen(2))
		Expect(skipped).To(Equal(1))
	})
})
