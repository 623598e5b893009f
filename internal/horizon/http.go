// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company
// SPDX-License-Identifier: Apache-2.0

package horizon

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sapcc/go-api-declarations/bininfo"
	"github.com/sapcc/go-bits/httpext"
	"github.com/sapcc/go-bits/logg"
	"github.com/sapcc/go-bits/osext"
)

var (
	openstackTransport *httpext.WrappedTransport

	openstackRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "horizon_openstack_request_duration_seconds",
			Help:    "Duration of HTTP requests made by the dashboard to OpenStack APIs.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "code"},
	)
)

func init() {
	prometheus.MustRegister(openstackRequestDuration)
}

// UserAgent is sent on every request to an OpenStack API, e.g.
// "horizon-dashboard/1.2.3". It changes once SetTaskName has been called.
func UserAgent() string {
	return bininfo.Component() + "/" + bininfo.VersionOr("rolling")
}

// SetupHTTPClient prepares http.DefaultTransport for talking to OpenStack.
// All OpenStack clients in this process must be built on http.DefaultClient
// to pick this up.
func SetupHTTPClient() {
	openstackTransport = httpext.WrapTransport(&http.DefaultTransport)
	openstackTransport.SetInsecureSkipVerify(skipTLSVerification())
	openstackTransport.Attach(func(inner http.RoundTripper) http.RoundTripper {
		return promhttp.InstrumentRoundTripperDuration(openstackRequestDuration, inner)
	})
	openstackTransport.SetOverrideUserAgent(bininfo.Component(), bininfo.VersionOr("rolling"))
}

// skipTLSVerification reads HORIZON_INSECURE. This is only for debugging with
// mitmproxy etc. and must never be set in production.
func skipTLSVerification() bool {
	insecure := osext.GetenvBool("HORIZON_INSECURE")
	if insecure {
		logg.Error("HORIZON_INSECURE is set: TLS certificates of OpenStack APIs will not be verified")
	}
	return insecure
}

// SetTaskName identifies the running subcommand in logs and User-Agent headers.
func SetTaskName(taskName string) {
	bininfo.SetTaskName(taskName)
	if openstackTransport != nil {
		openstackTransport.SetOverrideUserAgent(bininfo.Component(), bininfo.VersionOr("rolling"))
	}
	logg.Info("starting %s", UserAgent())
}
