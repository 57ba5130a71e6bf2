// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package framework

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// e2eReportAsserter asserts the JSON report of a run.
type e2eReportAsserter struct {
	e2e         *E2E
	destination *bool
	gateways    map[string]bool
	minHops     int
}

// reportDocument is the subset of the JSON report asserted by the framework.
type reportDocument struct {
	Destination struct {
		ID      string `json:"id"`
		Replied bool   `json:"replied"`
	} `json:"destination"`
	Gateways []struct {
		ID      string `json:"id"`
		Replied bool   `json:"replied"`
		Hop     int    `json:"hop"`
	} `json:"gateways"`
	Hops []struct {
		TTL     int    `json:"ttl"`
		Address string `json:"address"`
	} `json:"hops"`
}

// ReportAssertion creates a new assertion for the report of the run.
func (e *E2E) ReportAssertion() *e2eReportAsserter {
	return &e2eReportAsserter{e2e: e, gateways: map[string]bool{}}
}

// WithDestination sets whether the destination is expected to have replied.
func (a *e2eReportAsserter) WithDestination(replied bool) *e2eReportAsserter {
	a.destination = &replied
	return a
}

// WithGateway sets whether the gateway with the given id is expected to have replied.
func (a *e2eReportAsserter) WithGateway(id string, replied bool) *e2eReportAsserter {
	a.gateways[id] = replied
	return a
}

// WithMinHops sets the minimum number of hops expected in the report.
func (a *e2eReportAsserter) WithMinHops(n int) *e2eReportAsserter {
	a.minHops = n
	return a
}

// Assert decodes the report and checks the expectations.
func (a *e2eReportAsserter) Assert() {
	t := a.e2e.t
	t.Helper()
	if !a.e2e.isRunning() {
		t.Fatal("e2eReportAsserter.Assert must be called after E2E.Run")
	}

	var doc reportDocument
	require.NoError(t, json.Unmarshal(a.e2e.out.Bytes(), &doc), "report is not valid JSON")

	if a.destination != nil {
		assert.Equal(t, *a.destination, doc.Destination.Replied, "destination %s", doc.Destination.ID)
	}

	seen := map[string]bool{}
	for _, gw := range doc.Gateways {
		want, ok := a.gateways[gw.ID]
		if !ok {
			continue
		}
		seen[gw.ID] = true
		assert.Equal(t, want, gw.Replied, "gateway %s", gw.ID)
		if want {
			assert.Positive(t, gw.Hop, "gateway %s replied without hop", gw.ID)
		}
	}
	for id := range a.gateways {
		assert.True(t, seen[id], "gateway %s missing in report", id)
	}

	assert.GreaterOrEqual(t, len(doc.Hops), a.minHops, "number of hops")
}

// MetricsAssertion asserts the lines of the metrics textfile written by the run.
func (e *E2E) MetricsAssertion(lines ...string) {
	e.t.Helper()
	if !e.isRunning() {
		e.t.Fatal("E2E.MetricsAssertion must be called after E2E.Run")
	}
	if e.config.MetricsFile == "" {
		e.t.Fatal("E2E.MetricsAssertion requires E2E.WithMetricsFile")
	}

	b, err := os.ReadFile(e.config.MetricsFile)
	require.NoError(e.t, err, "metrics file not written")
	for _, l := range lines {
		assert.True(e.t, strings.Contains(string(b), l), fmt.Sprintf("metrics file does not contain %q", l))
	}
}
