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

	"github.com/blnkfinance/certify/model"
)

// IDataSource defines the interface for data source operations, grouping related functionalities.
type IDataSource interface {
	certification      // Interface for certification-related operations
	certificationEvent // Interface for the certification audit trail
	payment            // Interface for payment-related operations
}

// certification defines methods for handling certifications.
type certification interface {
	CreateCertification(ctx context.Context, cert model.Certification) (model.Certification, error)                     // Creates a new certification
	GetCertificationByID(ctx context.Context, id string) (*model.Certification, error)                                  // Retrieves a certification by ID
	GetAllCertifications(ctx context.Context, limit, offset int) ([]model.Certification, error)                         // Retrieves certifications, newest first
	GetCertificationsByStatus(ctx context.Context, statuses []model.CertificationStatus) ([]model.Certification, error) // Retrieves certifications in any of the statuses
	UpdateCertification(ctx context.Context, cert *model.Certification) error                                           // Updates applicant fields and documents
	ApplyCertificationUpdate(ctx context.Context, id string, update model.CertificationUpdate) error                    // Writes workflow fields and appends events atomically
}

// certificationEvent defines methods for reading the audit trail.
type certificationEvent interface {
	GetCertificationEvents(ctx context.Context, certificationID string) ([]model.CertificationEvent, error) // Retrieves events in creation order
}

// payment defines methods for handling payments.
type payment interface {
	CreatePayment(ctx context.Context, payment model.Payment) (model.Payment, error)                 // Records a payment
	GetPaymentsByCertification(ctx context.Context, certificationID string) ([]model.Payment, error) // Retrieves payments of a certification
}
