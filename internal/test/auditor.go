// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company
// SPDX-License-Identifier: Apache-2.0

package test

import (
	"testing"

	"github.com/sapcc/go-api-declarations/cadf"
	"github.com/sapcc/go-bits/assert"
	"github.com/sapcc/go-bits/audittools"
)

// CADFReasonOK is a helper to make cadf.Event literals shorter.
var CADFReasonOK = cadf.Reason{
	ReasonType: "HTTP",
	ReasonCode: "200",
}

// Auditor is a test recorder that satisfies the horizon.Auditor interface.
//
// Only the parts of an event that a dashboard action decides are recorded:
// which request caused it, what was done to which resource, and how it went.
// Event IDs, timestamps and the initiator (which is always the test user)
// are dropped.
type Auditor struct {
	events []cadf.Event
}

// Record implements the horizon.Auditor interface.
func (a *Auditor) Record(params audittools.EventParameters) {
	a.events = append(a.events, actionOf(audittools.NewEvent(params)))
}

// ExpectEvents checks that exactly the given events were recorded since the
// last call, in this order.
func (a *Auditor) ExpectEvents(t *testing.T, expectedEvents ...cadf.Event) {
	t.Helper()
	var expected []cadf.Event
	for _, event := range expectedEvents {
		expected = append(expected, actionOf(event))
	}
	assert.DeepEqual(t, "CADF events", a.events, expected)
	a.events = nil
}

// ExpectDeletions is a shorthand for ExpectEvents for the outcome of a batch
// delete: one successful delete event per ID, in this order.
func (a *Auditor) ExpectDeletions(t *testing.T, requestPath, typeURI string, ids ...string) {
	t.Helper()
	var expected []cadf.Event
	for _, id := range ids {
		expected = append(expected, cadf.Event{
			RequestPath: requestPath,
			Action:      cadf.DeleteAction,
			Outcome:     cadf.SuccessOutcome,
			Reason:      CADFReasonOK,
			Target: cadf.Resource{
				TypeURI:   typeURI,
				ID:        id,
				ProjectID: ProjectID,
			},
		})
	}
	a.ExpectEvents(t, expected...)
}

// IgnoreEventsUntilNow clears the list of recorded events, so that the next
// ExpectEvents() will only cover events generated after this point.
func (a *Auditor) IgnoreEventsUntilNow() {
	a.events = nil
}

func actionOf(event cadf.Event) cadf.Event {
	return cadf.Event{
		RequestPath: event.RequestPath,
		Action:      event.Action,
		Outcome:     event.Outcome,
		Reason:      event.Reason,
		Target:      event.Target,
	}
}
