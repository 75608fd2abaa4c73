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
package mocks

import (
	"context"

	"github.com/blnkfinance/certify/model"
	"github.com/stretchr/testify/mock"
)

// MockDataSource is a mock implementation of the IDataSource interface
type MockDataSource struct {
	mock.Mock
}

// Certification methods

func (m *MockDataSource) CreateCertification(ctx context.Context, cert model.Certification) (model.Certification, error) {
	args := m.Called(ctx, cert)
	return args.Get(0).(model.Certification), args.Error(1)
}

func (m *MockDataSource) GetCertificationByID(ctx context.Context, id string) (*model.Certification, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Certification), args.Error(1)
}

func (m *MockDataSource) GetAllCertifications(ctx context.Context, limit, offset int) ([]model.Certification, error) {
	args := m.Called(ctx, limit, offset)
	result, _ := args.Get(0).([]model.Certification)
	return result, args.Error(1)
}

func (m *MockDataSource) GetCertificationsByStatus(ctx context.Context, statuses []model.CertificationStatus) ([]model.Certification, error) {
	args := m.Called(ctx, statuses)
	result, _ := args.Get(0).([]model.Certification)
	return result, args.Error(1)
}

func (m *MockDataSource) UpdateCertification(ctx context.Context, cert *model.Certification) error {
	args := m.Called(ctx, cert)
	return args.Error(0)
}

func (m *MockDataSource) ApplyCertificationUpdate(ctx context.Context, id string, update model.CertificationUpdate) error {
	args := m.Called(ctx, id, update)
	return args.Error(0)
}

// Event methods

func (m *MockDataSource) GetCertificationEvents(ctx context.Context, certificationID string) ([]model.CertificationEvent, error) {
	args := m.Called(ctx, certificationID)
	result, _ := args.Get(0).([]model.CertificationEvent)
	return result, args.Error(1)
}

// Payment methods

func (m *MockDataSource) CreatePayment(ctx context.Context, payment model.Payment) (model.Payment, error) {
	args := m.Called(ctx, payment)
	return args.Get(0).(model.Payment), args.Error(1)
}

func (m *MockDataSource) GetPaymentsByCertification(ctx context.Context, certificationID string) ([]model.Payment, error) {
	args := m.Called(ctx, certificationID)
	result, _ := args.Get(0).([]model.Payment)
	return result, args.Error(1)
}
