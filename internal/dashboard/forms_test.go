// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company
// SPDX-License-Identifier: Apache-2.0

package dashboard

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/sapcc/go-bits/assert"
)

type exampleForm struct {
	Name      string `form:"name" label:"Name" validate:"required,max=5"`
	Notes     string `form:"notes" input:"textarea"`
	Count     int    `form:"count" label:"Count" validate:"min=1,max=10"`
	Enabled   bool   `form:"enabled" label:"Enabled"`
	Container string `form:"container" validate:"excludesall=/"`
}

func postForm(values url.Values) *http.Request {
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(values.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return r
}

func TestParseFormValid(t *testing.T) {
	var form exampleForm
	errs, err := parseForm(postForm(url.Values{
		"name":    {"  foo "},
		"notes":   {"bar"},
		"count":   {"3"},
		"enabled": {"true"},
	}), &form)
	if err != nil {
		t.Fatal(err.Error())
	}
	assert.DeepEqual(t, "errors", len(errs), 0)
	assert.DeepEqual(t, "form", form, exampleForm{Name: "foo", Notes: "bar", Count: 3, Enabled: true})
}

func TestParseFormInvalid(t *testing.T) {
	testCases := []struct {
		values   url.Values
		expected fieldErrors
	}{
		{url.Values{"count": {"1"}}, fieldErrors{"name": "This field is required."}},
		{url.Values{"name": {"toolong"}, "count": {"1"}}, fieldErrors{"name": "Enter at most 5 characters."}},
		{url.Values{"name": {"foo"}, "count": {"many"}}, fieldErrors{"count": "Enter a whole number."}},
		{url.Values{"name": {"foo"}, "count": {"0"}}, fieldErrors{"count": "Enter a value of at least 1."}},
		{url.Values{"name": {"foo"}, "count": {"11"}}, fieldErrors{"count": "Enter a value of at most 10."}},
		{url.Values{"name": {"foo"}, "count": {"1"}, "container": {"a/b"}},
			fieldErrors{"container": "This value contains characters that are not allowed."}},
	}
	for _, tc := range testCases {
		var form exampleForm
		errs, err := parseForm(postForm(tc.values), &form)
		if err != nil {
			t.Fatal(err.Error())
		}
		assert.DeepEqual(t, "errors for "+tc.values.Encode(), errs, tc.expected)
	}
}

func TestRenderFormFields(t *testing.T) {
	form := exampleForm{Name: "foo", Count: 0, Enabled: true}
	fields := renderFormFields(&form, fieldErrors{"count": "Enter a value of at least 1."})
	assert.DeepEqual(t, "fields", fields, []FormField{
		{Name: "name", Label: "Name", Input: "text", Value: "foo"},
		{Name: "notes", Label: "notes", Input: "textarea"},
		{Name: "count", Label: "Count", Input: "number", Error: "Enter a value of at least 1."},
		{Name: "enabled", Label: "Enabled", Input: "checkbox", Checked: true},
		{Name: "container", Label: "container", Input: "text"},
	})
}
