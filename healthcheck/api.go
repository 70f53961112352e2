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
package healthcheck

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/spf13/viper"
)

var (
	ErrStatus = errors.New("status code is invalid")
)

const (
	DefaultAPIURL  = "https://healthchecks.io/api/v3"
	DefaultPingURL = "https://hc-ping.com"
)

type createReq struct {
	APIKey      string `json:"api_key"`
	Name        string `json:"name"`
	Description string `json:"desc,omitempty"`
	Grace       int    `json:"grace"`
	Schedule    string `json:"schedule"`
	Slug        string `json:"slug"`
	Tags        string `json:"tags"`
	Timezone    string `json:"tz"`
}

type createResp struct {
	PingURL string `json:"ping_url"`
}

// Create a new healthchecks.io check and return the id
func Create(name string, slug string, tags []string, schedule string) (string, error) {
	command := createReq{
		APIKey:   viper.GetString("healthchecks.apikey"),
		Name:     name,
		Slug:     slug,
		Tags:     strings.Join(tags, " "),
		Grace:    3600,
		Schedule: schedule,
		Timezone: "America/New_York",
	}

	result := createResp{}

	client := resty.New()
	resp, err := client.R().
		SetHeader("Content-Type", "application/json").
		SetBody(command).
		SetResult(&result).
		Post(DefaultAPIURL + "/checks/")

	if err != nil {
		return "", err
	}

	if resp.StatusCode() > 201 {
		return "", fmt.Errorf("%w: %d", ErrStatus, resp.StatusCode())
	}

	checkID := strings.Split(result.PingURL, "/")
	healthCheckID := checkID[len(checkID)-1]

	return healthCheckID, nil
}

// Pinger reports the lifecycle of scoring runs to a single check. A Pinger
// with an empty CheckID does nothing.
type Pinger struct {
	BaseURL string
	CheckID string

	client *resty.Client
}

// NewPinger returns a pinger for the configured healthchecks.check_id
func NewPinger() *Pinger {
	return &Pinger{
		BaseURL: DefaultPingURL,
		CheckID: viper.GetString("healthchecks.check_id"),
		client:  resty.New(),
	}
}

// Enabled reports whether a check is configured
func (pinger *Pinger) Enabled() bool {
	return pinger != nil && pinger.CheckID != ""
}

// Start signals that a run has begun
func (pinger *Pinger) Start(runID string) error {
	return pinger.ping("/start", runID, "")
}

// Success signals that a run finished and its results were published
func (pinger *Pinger) Success(runID string, msg string) error {
	return pinger.ping("", runID, msg)
}

// Fail signals that a run did not publish; msg is attached to the ping body
func (pinger *Pinger) Fail(runID string, msg string) error {
	return pinger.ping("/fail", runID, msg)
}

func (pinger *Pinger) ping(suffix, runID, body string) error {
	if !pinger.Enabled() {
		return nil
	}

	if pinger.client == nil {
		pinger.client = resty.New()
	}

	req := pinger.client.R()
	if runID != "" {
		req.SetQueryParam("rid", runID)
	}

	if body != "" {
		req.SetHeader("Content-Type", "text/plain").SetBody(body)
	}

	resp, err := req.Post(fmt.Sprintf("%s/%s%s", strings.TrimRight(pinger.BaseURL, "/"), pinger.CheckID, suffix))
	if err != nil {
		return err
	}

	if resp.StatusCode() != 200 {
		return fmt.Errorf("%w: %d", ErrStatus, resp.StatusCode())
	}

	return nil
}
