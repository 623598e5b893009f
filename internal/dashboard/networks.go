// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company
// SPDX-License-Identifier: Apache-2.0

package dashboard

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/sapcc/go-bits/httpapi"

	"github.com/sapcc/horizon/internal/horizon"
)

const networksPath = "/project/networks/"

func formatAdminState(up bool) string {
	if up {
		return "UP"
	}
	return "DOWN"
}

var networksTable = Table[horizon.Network]{
	Name:  "networks",
	Title: "Networks",
	Columns: []Column[horizon.Network]{
		{
			Name:  "name",
			Title: "Name",
			Value: func(n horizon.Network) string { return n.Name },
			Link:  func(n horizon.Network) string { return detailURL(networksPath, n.ID) },
		},
		{Name: "subnets", Title: "Subnets", Value: func(n horizon.Network) string { return strconv.Itoa(len(n.SubnetIDs)) }},
		{Name: "shared", Title: "Shared", Value: func(n horizon.Network) string { return formatBool(n.Shared) }},
		{Name: "external", Title: "External", Value: func(n horizon.Network) string { return formatBool(n.External) }},
		{Name: "status", Title: "Status", Value: func(n horizon.Network) string { return n.Status }},
		{Name: "admin_state", Title: "Admin State", Value: func(n horizon.Network) string { return formatAdminState(n.AdminStateUp) }},
	},
}

func (a *API) handleListNetworks(w http.ResponseWriter, r *http.Request) {
	httpapi.IdentifyEndpoint(r, "/project/networks/")
	rc := a.authenticateWithRules(w, r, horizon.RuleListNetworks)
	if rc == nil {
		return
	}

	page, err := rc.Backend.ListNetworks(r.Context())
	if err != nil {
		a.handleError(w, r, rc, err, "Unable to retrieve network list.", "")
		page = horizon.Page[horizon.Network]{}
	}
	a.render(w, r, rc, http.StatusOK, pageTable, "Networks", networksTable.Render(r, page, rc.Token))
}

func (a *API) handleShowNetwork(w http.ResponseWriter, r *http.Request) {
	httpapi.IdentifyEndpoint(r, "/project/networks/:id/")
	rc := a.authenticateWithRules(w, r, horizon.RuleShowNetwork)
	if rc == nil {
		return
	}

	id := mux.Vars(r)["id"]
	network, err := rc.Backend.GetNetwork(r.Context(), id)
	if err != nil {
		a.handleDetailError(w, r, rc, err, fmt.Sprintf("Unable to retrieve details for network %q.", id), networksPath)
		return
	}

	page := DetailPage{
		Fields: []DetailField{
			{Label: "Name", Value: network.Name},
			{Label: "ID", Value: network.ID},
			{Label: "Project ID", Value: network.ProjectID},
			{Label: "Status", Value: network.Status},
			{Label: "Admin State", Value: formatAdminState(network.AdminStateUp)},
			{Label: "Shared", Value: formatBool(network.Shared)},
			{Label: "External Network", Value: formatBool(network.External)},
			{Label: "Subnets", Value: strings.Join(network.SubnetIDs, ", ")},
		},
		BackURL: networksPath,
	}
	a.render(w, r, rc, http.StatusOK, pageDetail, "Network Details: "+network.Name, page)
}
