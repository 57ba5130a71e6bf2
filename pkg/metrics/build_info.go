// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	buildInfoMetricName = "routecheck_build_info"
	buildInfoHelp       = "Version of the routecheck binary that wrote the metrics. The value is always 1."
)

// RegisterBuildInfo registers the routecheck_build_info info-style metric on the given registry.
// An empty version is reported as "unknown".
func RegisterBuildInfo(registry prometheus.Registerer, version string) error {
	if version == "" {
		version = "unknown"
	}
	info := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: buildInfoMetricName,
			Help: buildInfoHelp,
		},
		[]string{"version"},
	)
	info.WithLabelValues(version).Set(1)
	return registry.Register(info)
}
