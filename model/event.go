/*
Copyright 2024 Blnk Finance Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package model

import "time"

// EventType classifies an entry of a certification's audit trail.
type EventType string

const (
	EventSubmissionStarted  EventType = "submission_started"
	EventSubmissionAccepted EventType = "submission_accepted"
	EventSubmissionRejected EventType = "submission_rejected"
	EventSubmissionFailed   EventType = "submission_failed"
	EventStatusChanged      EventType = "status_changed"
)

// CertificationEvent is one append-only audit record of an interaction with the certification authority.
type CertificationEvent struct {
	EventID         string                 `json:"event_id"`
	CertificationID string                 `json:"certification_id"`
	Type            EventType              `json:"type"`
	Data            map[string]interface{} `json:"data"`
	CreatedAt       time.Time              `json:"created_at"`
}

// NewCertificationEvent stamps a new event for the certification.
func NewCertificationEvent(certificationID string, eventType EventType, data map[string]interface{}, at time.Time) CertificationEvent {
	if data == nil {
		data = make(map[string]interface{})
	}
	return CertificationEvent{
		EventID:         GenerateUUIDWithSuffix("evt"),
		CertificationID: certificationID,
		Type:            eventType,
		Data:            data,
		CreatedAt:       at,
	}
}

// EventsOfType filters an ordered event log, keeping order.
func EventsOfType(events []CertificationEvent, eventType EventType) []CertificationEvent {
	var out []CertificationEvent
	for _, e := range events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}
