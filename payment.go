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

package certify

import (
	"context"
	"strings"

	"github.com/blnkfinance/certify/internal/apierror"
	"github.com/blnkfinance/certify/model"
	"go.opentelemetry.io/otel/attribute"
)

// RecordPayment stores money received for a certification. Payments never influence the
// submission workflow.
func (c *Certify) RecordPayment(ctx context.Context, certificationID string, payment model.Payment) (model.Payment, error) {
	ctx, span := tracer.Start(ctx, "RecordPayment")
	defer span.End()
	span.SetAttributes(attribute.String("certification.id", certificationID))

	if _, err := c.datasource.GetCertificationByID(ctx, certificationID); err != nil {
		return model.Payment{}, recordError(span, err)
	}

	payment.PaymentID = model.GenerateUUIDWithSuffix("pay")
	payment.CertificationID = certificationID
	payment.Currency = strings.ToUpper(payment.Currency)
	if !payment.Amount.IsPositive() {
		return model.Payment{}, recordError(span, apierror.NewAPIError(apierror.ErrInvalidInput, "Payment amount must be greater than zero", payment.Amount.String()))
	}
	if !payment.HasDetailFor() {
		return model.Payment{}, recordError(span, apierror.NewAPIError(apierror.ErrInvalidInput, "Payment detail does not match the payment method", payment.Method))
	}

	created, err := c.datasource.CreatePayment(ctx, payment)
	if err != nil {
		return model.Payment{}, recordError(span, err)
	}
	return created, nil
}

func (c *Certify) GetPayments(ctx context.Context, certificationID string) ([]model.Payment, error) {
	if _, err := c.datasource.GetCertificationByID(ctx, certificationID); err != nil {
		return nil, err
	}
	return c.datasource.GetPaymentsByCertification(ctx, certificationID)
}
