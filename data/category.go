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
package data

import (
	"fmt"
	"strings"
)

type Category string

const (
	Low      Category = "Low"
	Medium   Category = "Medium"
	High     Category = "High"
	Critical Category = "Critical"
)

const (
	CriticalThreshold = 80
	HighThreshold     = 60
	MediumThreshold   = 30
)

// Categories in ascending order of severity
var Categories = []Category{Low, Medium, High, Critical}

// CategoryForScore is the only place a risk category is derived. Thresholds are
// inclusive lower bounds evaluated from the highest down.
func CategoryForScore(score int) Category {
	switch {
	case score >= CriticalThreshold:
		return Critical
	case score >= HighThreshold:
		return High
	case score >= MediumThreshold:
		return Medium
	default:
		return Low
	}
}

// ParseCategory converts a category name (case-insensitive) into a Category
func ParseCategory(name string) (Category, error) {
	for _, category := range Categories {
		if strings.EqualFold(string(category), strings.TrimSpace(name)) {
			return category, nil
		}
	}
	return "", fmt.Errorf("unknown risk category %q", name)
}

// Rank returns the ordinal position of the category, Low = 0
func (category Category) Rank() int {
	for idx, c := range Categories {
		if c == category {
			return idx
		}
	}
	return -1
}

func (category Category) String() string {
	return string(category)
}
