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
	"time"

	"github.com/blnkfinance/certify/internal/apierror"
	"github.com/blnkfinance/certify/model"
	"github.com/lib/pq"
	"github.com/pkg/errors"
)

const certificationColumns = `certification_id, reference_transaction, identification_number, name, last_name,
		second_last_name, finger_code, birth_date, client_age, email, phone, address, country_code, city,
		province, document_type, application_type, period, signature_id, company_ruc, position_company,
		company_social_reason, appointment_expiration_date, documents, status, validation_status,
		rejection_reason, submitted_at, validated_at, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanCertification(row rowScanner) (model.Certification, error) {
	var cert model.Certification
	var documentsJSON []byte
	err := row.Scan(
		&cert.CertificationID, &cert.ReferenceTransaction, &cert.IdentificationNumber, &cert.Name, &cert.LastName,
		&cert.SecondLastName, &cert.FingerCode, &cert.BirthDate, &cert.ClientAge, &cert.Email, &cert.Phone, &cert.Address, &cert.CountryCode, &cert.City,
		&cert.Province, &cert.DocumentType, &cert.ApplicationType, &cert.Period, &cert.SignatureID, &cert.CompanyRuc, &cert.PositionCompany,
		&cert.CompanySocialReason, &cert.AppointmentExpirationDate, &documentsJSON, &cert.Status, &cert.ValidationStatus,
		&cert.RejectionReason, &cert.SubmittedAt, &cert.ValidatedAt, &cert.CreatedAt, &cert.UpdatedAt,
	)
	if err != nil {
		return cert, err
	}
	if len(documentsJSON) > 0 {
		if err := json.Unmarshal(documentsJSON, &cert.Documents); err != nil {
			return cert, errors.Wrap(err, "failed to unmarshal documents")
		}
	}
	return cert, nil
}

// CreateCertification inserts a new certification. IDs and timestamps are expected to be set by the caller
// when present; missing ones are generated here.
func (d Datasource) CreateCertification(ctx context.Context, cert model.Certification) (model.Certification, error) {
	if cert.CertificationID == "" {
		cert.CertificationID = model.GenerateUUIDWithSuffix("cert")
	}
	now := time.Now().UTC()
	if cert.CreatedAt.IsZero() {
		cert.CreatedAt = now
	}
	cert.UpdatedAt = cert.CreatedAt

	documentsJSON, err := json.Marshal(cert.Documents)
	if err != nil {
		return model.Certification{}, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to marshal documents", err)
	}

	_, err = d.Conn.ExecContext(ctx, `
		INSERT INTO certify.certifications (`+certificationColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20,
			$21, $22, $23, $24, $25, $26, $27, $28, $29, $30, $31)
	`,
		cert.CertificationID, cert.ReferenceTransaction, cert.IdentificationNumber, cert.Name, cert.LastName,
		cert.SecondLastName, cert.FingerCode, cert.BirthDate, cert.ClientAge, cert.Email, cert.Phone, cert.Address, cert.CountryCode, cert.City,
		cert.Province, cert.DocumentType, cert.ApplicationType, cert.Period, cert.SignatureID, cert.CompanyRuc, cert.PositionCompany,
		cert.CompanySocialReason, cert.AppointmentExpirationDate, documentsJSON, cert.Status, cert.ValidationStatus,
		cert.RejectionReason, cert.SubmittedAt, cert.ValidatedAt, cert.CreatedAt, cert.UpdatedAt,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return model.Certification{}, apierror.NewAPIError(apierror.ErrConflict, "Certification with this ID or reference already exists", err)
		}
		return model.Certification{}, errors.Wrap(err, "failed to create certification")
	}

	return cert, nil
}

// GetCertificationByID retrieves a certification without its events.
func (d Datasource) GetCertificationByID(ctx context.Context, id string) (*model.Certification, error) {
	row := d.Conn.QueryRowContext(ctx, `
		SELECT `+certificationColumns+`
		FROM certify.certifications
		WHERE certification_id = $1
	`, id)

	cert, err := scanCertification(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apierror.NewAPIError(apierror.ErrNotFound, "Certification not found", err)
		}
		return nil, errors.Wrapf(err, "failed to retrieve certification %s", id)
	}
	return &cert, nil
}

func (d Datasource) GetAllCertifications(ctx context.Context, limit, offset int) ([]model.Certification, error) {
	rows, err := d.Conn.QueryContext(ctx, `
		SELECT `+certificationColumns+`
		FROM certify.certifications
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, errors.Wrap(err, "failed to retrieve certifications")
	}
	defer rows.Close()

	return collectCertifications(rows)
}

// GetCertificationsByStatus loads every certification whose status is one of statuses, oldest first.
func (d Datasource) GetCertificationsByStatus(ctx context.Context, statuses []model.CertificationStatus) ([]model.Certification, error) {
	values := make([]string, len(statuses))
	for i, s := range statuses {
		values[i] = string(s)
	}

	rows, err := d.Conn.QueryContext(ctx, `
		SELECT `+certificationColumns+`
		FROM certify.certifications
		WHERE status = ANY($1)
		ORDER BY created_at ASC
	`, pq.Array(values))
	if err != nil {
		return nil, errors.Wrap(err, "failed to retrieve certifications by status")
	}
	defer rows.Close()

	return collectCertifications(rows)
}

func collectCertifications(rows *sql.Rows) ([]model.Certification, error) {
	certifications := []model.Certification{}
	for rows.Next() {
		cert, err := scanCertification(rows)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan certification")
		}
		certifications = append(certifications, cert)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "error occurred while iterating over certifications")
	}
	return certifications, nil
}

// UpdateCertification rewrites the applicant fields and document references. Workflow fields are only
// written through ApplyCertificationUpdate.
func (d Datasource) UpdateCertification(ctx context.Context, cert *model.Certification) error {
	documentsJSON, err := json.Marshal(cert.Documents)
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to marshal documents", err)
	}
	cert.UpdatedAt = time.Now().UTC()

	result, err := d.Conn.ExecContext(ctx, `
		UPDATE certify.certifications
		SET identification_number = $2, name = $3, last_name = $4, second_last_name = $5, finger_code = $6,
			birth_date = $7, client_age = $8, email = $9, phone = $10, address = $11, country_code = $12,
			city = $13, province = $14, document_type = $15, application_type = $16, period = $17,
			signature_id = $18, company_ruc = $19, position_company = $20, company_social_reason = $21,
			appointment_expiration_date = $22, documents = $23, updated_at = $24
		WHERE certification_id = $1
	`,
		cert.CertificationID, cert.IdentificationNumber, cert.Name, cert.LastName, cert.SecondLastName, cert.FingerCode,
		cert.BirthDate, cert.ClientAge, cert.Email, cert.Phone, cert.Address, cert.CountryCode,
		cert.City, cert.Province, cert.DocumentType, cert.ApplicationType, cert.Period,
		cert.SignatureID, cert.CompanyRuc, cert.PositionCompany, cert.CompanySocialReason,
		cert.AppointmentExpirationDate, documentsJSON, cert.UpdatedAt,
	)
	if err != nil {
		return errors.Wrapf(err, "failed to update certification %s", cert.CertificationID)
	}
	return requireAffected(result, cert.CertificationID)
}

// ApplyCertificationUpdate writes the workflow fields of update and appends its events in one transaction.
// Empty statuses and nil pointers keep the stored values.
func (d Datasource) ApplyCertificationUpdate(ctx context.Context, id string, update model.CertificationUpdate) error {
	tx, err := d.Conn.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer func() {
		_ = tx.Rollback()
	}()

	result, err := tx.ExecContext(ctx, `
		UPDATE certify.certifications
		SET status = COALESCE(NULLIF($2, ''), status),
			validation_status = COALESCE(NULLIF($3, ''), validation_status),
			rejection_reason = COALESCE($4, rejection_reason),
			submitted_at = COALESCE($5, submitted_at),
			validated_at = COALESCE($6, validated_at),
			updated_at = $7
		WHERE certification_id = $1
	`, id, string(update.Status), string(update.ValidationStatus), update.RejectionReason, update.SubmittedAt, update.ValidatedAt, time.Now().UTC())
	if err != nil {
		return errors.Wrapf(err, "failed to update workflow status of certification %s", id)
	}
	if err := requireAffected(result, id); err != nil {
		return err
	}

	for _, event := range update.Events {
		if err := insertEvent(ctx, tx, id, event); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "failed to commit certification update")
	}
	return nil
}

func requireAffected(result sql.Result, id string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to read affected rows")
	}
	if affected == 0 {
		return apierror.NewAPIError(apierror.ErrNotFound, "Certification not found", id)
	}
	return nil
}
