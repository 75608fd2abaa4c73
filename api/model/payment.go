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

import (
	"time"

	"github.com/blnkfinance/certify/model"
	"github.com/shopspring/decimal"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

type RecordPayment struct {
	Amount   decimal.Decimal     `json:"amount"`
	Currency string              `json:"currency"`
	Method   model.PaymentMethod `json:"method"`
	Detail   model.PaymentDetail `json:"detail"`
	PaidAt   string              `json:"paid_at"`
}

func (p *RecordPayment) ValidateRecordPayment() error {
	return validation.ValidateStruct(p,
		validation.Field(&p.Currency, validation.Required, validation.Length(3, 3)),
		validation.Field(&p.Method, validation.Required, validation.In(model.PaymentCash, model.PaymentCard, model.PaymentTransfer)),
		validation.Field(&p.PaidAt, validation.When(p.PaidAt != "", validation.Date(time.RFC3339).Error("please format the paid date as 'YYYY-MM-DDTHH:MM:SS+00:00'"))),
	)
}

func (p *RecordPayment) ToPayment() model.Payment {
	payment := model.Payment{
		Amount:   p.Amount,
		Currency: p.Currency,
		Method:   p.Method,
		Detail:   p.Detail,
	}
	if p.PaidAt != "" {
		payment.PaidAt, _ = time.Parse(time.RFC3339, p.PaidAt)
	}
	return payment
}
