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
	"encoding/json"
	"time"

	"github.com/blnkfinance/certify/internal/apierror"
	"github.com/blnkfinance/certify/model"
	"github.com/lib/pq"
	"github.com/pkg/errors"
)

func (d Datasource) CreatePayment(ctx context.Context, payment model.Payment) (model.Payment, error) {
	if payment.PaymentID == "" {
		payment.PaymentID = model.GenerateUUIDWithSuffix("pay")
	}
	payment.CreatedAt = time.Now().UTC()
	if payment.PaidAt.IsZero() {
		payment.PaidAt = payment.CreatedAt
	}

	detailJSON, err := json.Marshal(payment.Detail)
	if err != nil {
		return model.Payment{}, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to marshal payment detail", err)
	}

	_, err = d.Conn.ExecContext(ctx, `
		INSERT INTO certify.payments (payment_id, certification_id, amount, currency, method, detail, paid_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, payment.PaymentID, payment.CertificationID, payment.Amount, payment.Currency, string(payment.Method), detailJSON, payment.PaidAt, payment.CreatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Code {
			case "23505":
				return model.Payment{}, apierror.NewAPIError(apierror.ErrConflict, "Payment with this ID already exists", err)
			case "23503":
				return model.Payment{}, apierror.NewAPIError(apierror.ErrBadRequest, "Invalid certification ID", err)
			}
		}
		return model.Payment{}, errors.Wrap(err, "failed to create payment")
	}
	return payment, nil
}

func (d Datasource) GetPaymentsByCertification(ctx context.Context, certificationID string) ([]model.Payment, error) {
	rows, err := d.Conn.QueryContext(ctx, `
		SELECT payment_id, certification_id, amount, currency, method, detail, paid_at, created_at
		FROM certify.payments
		WHERE certification_id = $1
		ORDER BY paid_at ASC
	`, certificationID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to retrieve payments")
	}
	defer rows.Close()

	payments := []model.Payment{}
	for rows.Next() {
		var payment model.Payment
		var detailJSON []byte
		if err := rows.Scan(&payment.PaymentID, &payment.CertificationID, &payment.Amount, &payment.Currency,
			&payment.Method, &detailJSON, &payment.PaidAt, &payment.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "failed to scan payment")
		}
		if len(detailJSON) > 0 {
			if err := json.Unmarshal(detailJSON, &payment.Detail); err != nil {
				return nil, errors.Wrap(err, "failed to unmarshal payment detail")
			}
		}
		payments = append(payments, payment)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "error occurred while iterating over payments")
	}
	return payments, nil
}
