// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"github.com/prometheus/client_golang/prometheus"
)

var backendErrorsCounter = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "horizon_api_backend_errors_total",
		Help: "Counter for errors returned by OpenStack APIs while serving the JSON API.",
	},
	[]string{"service"},
)

func init() {
	prometheus.MustRegister(backendErrorsCounter)
}
