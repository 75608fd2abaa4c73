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
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/blnkfinance/certify/internal/apierror"
	"github.com/blnkfinance/certify/model"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreatePayment_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	ds := Datasource{Conn: db}
	payment := model.Payment{
		CertificationID: "cert_1",
		Amount:          decimal.RequireFromString("24.50"),
		Currency:        "USD",
		Method:          model.PaymentCash,
		Detail:          model.PaymentDetail{Cash: &model.CashDetail{ReceivedBy: "caja-1"}},
	}

	mock.ExpectExec(`INSERT INTO certify.payments \(payment_id, certification_id, amount, currency, method, detail, paid_at, created_at\) VALUES \(\$1, \$2, \$3, \$4, \$5, \$6, \$7, \$8\)`).
		WithArgs(sqlmock.AnyArg(), "cert_1", "24.5", "USD", "cash", []byte(`{"cash":{"received_by":"caja-1"}}`), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	created, err := ds.CreatePayment(context.Background(), payment)
	require.NoError(t, err)
	assert.Contains(t, created.PaymentID, "pay_")
	assert.Equal(t, created.CreatedAt, created.PaidAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreatePayment_UnknownCertification(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	ds := Datasource{Conn: db}

	mock.ExpectExec("INSERT INTO certify.payments").
		WillReturnError(&pq.Error{Code: "23503", Message: "foreign_key_violation"})

	_, err = ds.CreatePayment(context.Background(), model.Payment{CertificationID: "cert_missing", Method: model.PaymentCash})
	apiErr, ok := err.(apierror.APIError)
	require.True(t, ok)
	assert.Equal(t, apierror.ErrBadRequest, apiErr.Code)
}

func TestGetPaymentsByCertification(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	ds := Datasource{Conn: db}
	paidAt := time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows([]string{"payment_id", "certification_id", "amount", "currency", "method", "detail", "paid_at", "created_at"}).
		AddRow("pay_1", "cert_1", "24.50", "USD", "transfer",
			[]byte(`{"transfer":{"bank_name":"Banco Pichincha","account_number":"2200112233","deposit_reference":"DEP-99"}}`), paidAt, paidAt)
	mock.ExpectQuery(`SELECT payment_id, certification_id, amount, currency, method, detail, paid_at, created_at FROM certify.payments WHERE certification_id = \$1 ORDER BY paid_at ASC`).
		WithArgs("cert_1").
		WillReturnRows(rows)

	payments, err := ds.GetPaymentsByCertification(context.Background(), "cert_1")
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.True(t, decimal.RequireFromString("24.5").Equal(payments[0].Amount))
	assert.Equal(t, model.PaymentTransfer, payments[0].Method)
	require.NotNil(t, payments[0].Detail.Transfer)
	assert.Equal(t, "DEP-99", payments[0].Detail.Transfer.DepositReference)
	assert.True(t, payments[0].HasDetailFor())
}
