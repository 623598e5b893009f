// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company
// SPDX-License-Identifier: Apache-2.0

package horizon

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sapcc/go-api-declarations/cadf"
	"github.com/sapcc/go-bits/audittools"
	"github.com/sapcc/go-bits/logg"
	"github.com/sapcc/go-bits/osext"
)

// Auditor is a component that forwards audit events to the appropriate logs.
// It is used by the dashboard for every action that changes a resource.
type Auditor interface {
	// Record forwards the given audit event to the audit log.
	// EventParameters.Observer will be filled by the auditor.
	Record(params audittools.EventParameters)
}

var (
	auditEventPublishSuccessCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "horizon_successful_auditevent_publish",
			Help: "Counter for successful audit event publish to RabbitMQ server.",
		})
	auditEventPublishFailedCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "horizon_failed_auditevent_publish",
			Help: "Counter for failed audit event publish to RabbitMQ server.",
		})
)

type auditor struct {
	OnStdout     bool
	EventSink    chan<- cadf.Event // nil if not wanted
	ObserverUUID string
}

// InitAuditTrail initializes an Auditor from the HORIZON_AUDIT_* environment
// variables. Events are logged to stdout unless HORIZON_AUDIT_SILENT is set,
// and are sent to RabbitMQ if HORIZON_AUDIT_RABBITMQ_URI is set.
func InitAuditTrail(ctx context.Context) (Auditor, error) {
	prometheus.MustRegister(auditEventPublishSuccessCounter)
	prometheus.MustRegister(auditEventPublishFailedCounter)

	var eventSink chan cadf.Event
	if rabbitURIStr := osext.GetenvOrDefault("HORIZON_AUDIT_RABBITMQ_URI", ""); rabbitURIStr != "" {
		rabbitURI, err := url.Parse(rabbitURIStr)
		if err != nil {
			return nil, fmt.Errorf("cannot parse HORIZON_AUDIT_RABBITMQ_URI: %w", err)
		}
		queueName, err := osext.NeedGetenv("HORIZON_AUDIT_RABBITMQ_QUEUE_NAME")
		if err != nil {
			return nil, err
		}

		eventSink = make(chan cadf.Event, 20)
		auditEventPublishSuccessCounter.Add(0)
		auditEventPublishFailedCounter.Add(0)

		go audittools.AuditTrail{
			EventSink:           eventSink,
			OnSuccessfulPublish: func() { auditEventPublishSuccessCounter.Inc() },
			OnFailedPublish:     func() { auditEventPublishFailedCounter.Inc() },
		}.Commit(ctx, *rabbitURI, queueName)
	}

	return auditor{
		OnStdout:     !osext.GetenvBool("HORIZON_AUDIT_SILENT"),
		EventSink:    eventSink,
		ObserverUUID: audittools.GenerateUUID(),
	}, nil
}

// Record implements the Auditor interface.
func (a auditor) Record(params audittools.EventParameters) {
	params.Observer.TypeURI = "service/dashboard"
	params.Observer.Name = "horizon"
	params.Observer.ID = a.ObserverUUID

	event := audittools.NewEvent(params)

	if a.OnStdout {
		msg, _ := json.Marshal(event)
		logg.Other("AUDIT", string(msg))
	}

	if a.EventSink != nil {
		a.EventSink <- event
	}
}

// AuditResource is an audittools.TargetRenderer for any OpenStack resource
// that was changed through the dashboard.
type AuditResource struct {
	// TypeURI follows the CADF taxonomy, e.g. "compute/server" or "storage/volume".
	TypeURI   string
	ID        string
	Name      string
	ProjectID string
	// Payload is attached to the event in JSON form if non-nil.
	Payload any
}

// Render implements the audittools.TargetRenderer interface.
func (r AuditResource) Render() cadf.Resource {
	res := cadf.Resource{
		TypeURI:   r.TypeURI,
		ID:        r.ID,
		Name:      r.Name,
		ProjectID: r.ProjectID,
	}
	if r.Payload != nil {
		attachment, err := cadf.NewJSONAttachment("payload", r.Payload)
		if err == nil {
			res.Attachments = append(res.Attachments, attachment)
		}
	}
	return res
}

// CADF type URIs for the resources managed by the dashboard.
const (
	AuditTypeServer    = "compute/server"
	AuditTypeVolume    = "storage/volume"
	AuditTypeSnapshot  = "storage/volume/snapshot"
	AuditTypeBackup    = "storage/volume/backup"
	AuditTypeImage     = "storage/image"
	AuditTypeContainer = "storage/object/container"
)

// Actions that have no direct equivalent in the CADF taxonomy.
const (
	RebootAction cadf.Action = "update/reboot"
)
