// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company
// SPDX-License-Identifier: Apache-2.0

package dashboard_test

import (
	"fmt"
	"html"
	"regexp"
	"testing"
	"time"

	"github.com/sapcc/go-bits/easypg"

	"github.com/sapcc/horizon/internal/horizon"
	"github.com/sapcc/horizon/internal/test"
)

func TestMain(m *testing.M) {
	easypg.WithTestDB(m, func() int { return m.Run() })
}

var (
	rowIDRx   = regexp.MustCompile(`<tr data-id="([^"]*)">`)
	nextURLRx = regexp.MustCompile(`<a href="([^"]*)" class="next">`)
	prevURLRx = regexp.MustCompile(`<a href="([^"]*)" class="prev">`)
)

// rowIDs returns the IDs of all table rows on the page, in order.
func rowIDs(resp test.Response) []string {
	var result []string
	for _, match := range rowIDRx.FindAllStringSubmatch(resp.Body, -1) {
		result = append(result, html.UnescapeString(match[1]))
	}
	return result
}

func linkURL(rx *regexp.Regexp, resp test.Response) string {
	match := rx.FindStringSubmatch(resp.Body)
	if match == nil {
		return ""
	}
	return html.UnescapeString(match[1])
}

// expectPage checks the rows and pagination links on a rendered table page.
func expectPage(t *testing.T, resp test.Response, ids []string, nextURL, prevURL string) {
	t.Helper()
	actualIDs := rowIDs(resp)
	if fmt.Sprint(actualIDs) != fmt.Sprint(ids) {
		t.Errorf("expected rows %v, got %v", ids, actualIDs)
	}
	if actual := linkURL(nextURLRx, resp); actual != nextURL {
		t.Errorf("expected next URL %q, got %q", nextURL, actual)
	}
	if actual := linkURL(prevURLRx, resp); actual != prevURL {
		t.Errorf("expected prev URL %q, got %q", prevURL, actual)
	}
}

func makeVolumes(count int) []horizon.Volume {
	result := make([]horizon.Volume, count)
	for idx := range result {
		result[idx] = horizon.Volume{
			ID:        fmt.Sprintf("v%d", idx+1),
			Name:      fmt.Sprintf("volume%d", idx+1),
			Status:    "available",
			SizeGiB:   10,
			CreatedAt: time.Unix(int64(1000-idx), 0),
		}
	}
	return result
}

func makeServers(count int) []horizon.Server {
	result := make([]horizon.Server, count)
	for idx := range result {
		result[idx] = horizon.Server{
			ID:        fmt.Sprintf("s%d", idx+1),
			Name:      fmt.Sprintf("server%d", idx+1),
			Status:    "ACTIVE",
			FlavorID:  "flavor-small",
			ProjectID: test.ProjectID,
		}
	}
	return result
}
