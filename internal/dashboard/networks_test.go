// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company
// SPDX-License-Identifier: Apache-2.0

package dashboard_test

import (
	"net/http"
	"testing"

	"github.com/sapcc/horizon/internal/horizon"
	"github.com/sapcc/horizon/internal/test"
)

func TestNetworks(t *testing.T) {
	s := test.NewSetup(t, test.WithPageSize(1))
	s.Backend.Networks = []horizon.Network{
		{ID: "n1", Name: "private", Status: "ACTIVE", AdminStateUp: true, SubnetIDs: []string{"sn1", "sn2"}},
		{ID: "n2", Name: "public", Status: "ACTIVE", External: true, Shared: true},
	}
	b := s.LoggedInBrowser(t)

	// Neutron lists are not paged, so everything is shown on one page
	resp := b.Get("/project/networks/").ExpectStatus(t, http.StatusOK)
	expectPage(t, resp, []string{"n1", "n2"}, "", "")

	b.Get("/project/networks/n1/").ExpectStatus(t, http.StatusOK).
		ExpectText(t, "Network Details: private", "sn1, sn2", "UP")
	b.Get("/project/networks/n9/").ExpectStatus(t, http.StatusNotFound)

	s.Backend.Errors["GetNetwork"] = test.ErrBackendDown
	b.Get("/project/networks/n1/").ExpectRedirect(t, "/project/networks/")
	b.Get("/project/networks/").ExpectStatus(t, http.StatusOK).
		ExpectMessage(t, "error", `Unable to retrieve details for network "n1".`)
}
