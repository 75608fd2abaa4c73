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

	"github.com/shopspring/decimal"
)

type PaymentMethod string

const (
	PaymentCash     PaymentMethod = "cash"
	PaymentCard     PaymentMethod = "card"
	PaymentTransfer PaymentMethod = "transfer"
)

type CashDetail struct {
	ReceivedBy string `json:"received_by"`
}

type CardDetail struct {
	CardBrand         string `json:"card_brand"`
	LastFour          string `json:"last_four"`
	AuthorizationCode string `json:"authorization_code"`
}

type TransferDetail struct {
	BankName         string `json:"bank_name"`
	AccountNumber    string `json:"account_number"`
	DepositReference string `json:"deposit_reference"`
}

// PaymentDetail holds exactly one variant, selected by the payment method.
type PaymentDetail struct {
	Cash     *CashDetail     `json:"cash,omitempty"`
	Card     *CardDetail     `json:"card,omitempty"`
	Transfer *TransferDetail `json:"transfer,omitempty"`
}

// Payment records money received against a certification.
type Payment struct {
	PaymentID       string          `json:"payment_id"`
	CertificationID string          `json:"certification_id"`
	Amount          decimal.Decimal `json:"amount"`
	Currency        string          `json:"currency"`
	Method          PaymentMethod   `json:"method"`
	Detail          PaymentDetail   `json:"detail"`
	PaidAt          time.Time       `json:"paid_at"`
	CreatedAt       time.Time       `json:"created_at"`
}

// HasDetailFor reports whether the populated detail variant matches the method.
func (p *Payment) HasDetailFor() bool {
	switch p.Method {
	case PaymentCash:
		return p.Detail.Cash != nil && p.Detail.Card == nil && p.Detail.Transfer == nil
	case PaymentCard:
		return p.Detail.Card != nil && p.Detail.Cash == nil && p.Detail.Transfer == nil
	case PaymentTransfer:
		return p.Detail.Transfer != nil && p.Detail.Cash == nil && p.Detail.Card == nil
	}
	return false
}
