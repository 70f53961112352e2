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
package change

import (
	"time"
)

// OwnershipSource reports the number of ownership or leadership moves a firm
// made in the 12 months ending on a filing date
type OwnershipSource interface {
	OwnerMoves(firmID string, asOf time.Time) int
}

// NoOwnershipData is used until an ownership feed is modeled; it reports zero
// moves for every firm
type NoOwnershipData struct{}

func (NoOwnershipData) OwnerMoves(string, time.Time) int {
	return 0
}
