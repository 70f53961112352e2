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
package importer_test

import (
	"errors"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/penny-vault/iarisk/data"
	"github.com/penny-vault/iarisk/importer"
)

const filingsCSV = `firm_id,filing_date,firm_name,raum,client_count,account_count,disciplinary_disclosures,cco_name
801-1,2023-01-01,Acme Advisers,"100,000,000",100,200,0,Alice
801-1,2024-01-01,Acme Advisers,60000000,80,180,1,Bob
801-2,01/31/2024,,NA,,,,
801-3,not-a-date,Broken,1,1,1,0,Carol
801-4,2024-02-01,Negative,-5,1,1,0,Dave
801-5,2024-02-01,Fractional,5,1.5,1,0,Erin
,2024-02-01,No Firm,5,1,1,0,Frank
`

var _ = Describe("CSV import", func() {
	var result *importer.Result

	BeforeEach(func() {
		var err error
		result, err = importer.Read(strings.NewReader(filingsCSV))
		Expect(err).NotTo(HaveOccurred())
	})

	It("counts every row read", func() {
		Expect(result.RowsRead).To(Equal(7))
	})

	It("skips malformed rows", func() {
		Expect(result.Malformed).To(Equal(4))
		Expect(result.Filings).To(HaveLen(3))
	})

	It("parses numeric columns with thousands separators", func() {
		filing := result.Filings[0]
		Expect(filing.FirmID).To(Equal("801-1"))
		Expect(filing.FilingDate).To(Equal(time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)))
		Expect(*filing.RAUM).To(BeNumerically("~", 100_000_000.0))
		Expect(*filing.ClientCount).To(Equal(int64(100)))
		Expect(*filing.CCOName).To(Equal("Alice"))
	})

	It("treats empty and NA cells as absent", func() {
		filing := result.Filings[2]
		Expect(filing.FirmID).To(Equal("801-2"))
		Expect(filing.FilingDate).To(Equal(time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)))
		Expect(filing.FirmName).To(BeNil())
		Expect(filing.RAUM).To(BeNil())
		Expect(filing.ClientCount).To(BeNil())
		Expect(filing.CCOName).To(BeNil())
	})
})

var _ = Describe("ParseDate", func() {
	DescribeTable("accepted layouts",
		func(val string) {
			dt, err := importer.ParseDate(val)
			Expect(err).NotTo(HaveOccurred())
			Expect(dt).To(Equal(time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)))
		},
		Entry("iso", "2024-03-31"),
		Entry("us", "03/31/2024"),
		Entry("compact", "20240331"),
		Entry("padded", " 2024-03-31 "),
	)

	It("rejects unknown formats as malformed", func() {
		_, err := importer.ParseDate("March 31")
		Expect(errors.Is(err, data.ErrMalformedFiling)).To(BeTrue())
	})
})
