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

package database

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/blnkfinance/certify/model"
	"github.com/pkg/errors"
)

func insertEvent(ctx context.Context, tx *sql.Tx, certificationID string, event model.CertificationEvent) error {
	if event.EventID == "" {
		event.EventID = model.GenerateUUIDWithSuffix("evt")
	}
	dataJSON, err := json.Marshal(event.Data)
	if err != nil {
		return errors.Wrap(err, "failed to marshal event data")
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO certify.certification_events (event_id, certification_id, type, data, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, event.EventID, certificationID, string(event.Type), dataJSON, event.CreatedAt)
	if err != nil {
		return errors.Wrapf(err, "failed to append %s event", event.Type)
	}
	return nil
}

// GetCertificationEvents returns the audit trail of a certification in the order it was written.
func (d Datasource) GetCertificationEvents(ctx context.Context, certificationID string) ([]model.CertificationEvent, error) {
	rows, err := d.Conn.QueryContext(ctx, `
		SELECT event_id, certification_id, type, data, created_at
		FROM certify.certification_events
		WHERE certification_id = $1
		ORDER BY created_at ASC, id ASC
	`, certificationID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to retrieve certification events")
	}
	defer rows.Close()

	events := []model.CertificationEvent{}
	for rows.Next() {
		var event model.CertificationEvent
		var dataJSON []byte
		if err := rows.Scan(&event.EventID, &event.CertificationID, &event.Type, &dataJSON, &event.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "failed to scan certification event")
		}
		if len(dataJSON) > 0 {
			if err := json.Unmarshal(dataJSON, &event.Data); err != nil {
				return nil, errors.Wrap(err, "failed to unmarshal event data")
			}
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "error occurred while iterating over certification events")
	}
	return events, nil
}
