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
	"errors"
	"regexp"
	"time"

	"github.com/blnkfinance/certify/model"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

const dateLayout = "2006-01-02"

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// CreateCertification is the applicant data accepted when creating or editing a certification.
// Presence of the fields FirmaSegura needs is checked by the service, which reports every
// missing field at once.
type CreateCertification struct {
	ReferenceTransaction      string                `json:"reference_transaction"`
	IdentificationNumber      string                `json:"identification_number"`
	Name                      string                `json:"name"`
	LastName                  string                `json:"last_name"`
	SecondLastName            string                `json:"second_last_name"`
	FingerCode                string                `json:"finger_code"`
	BirthDate                 string                `json:"birth_date"`
	Email                     string                `json:"email"`
	Phone                     string                `json:"phone"`
	Address                   string                `json:"address"`
	CountryCode               string                `json:"country_code"`
	City                      string                `json:"city"`
	Province                  string                `json:"province"`
	DocumentType              string                `json:"document_type"`
	ApplicationType           model.ApplicationType `json:"application_type"`
	Period                    string                `json:"period"`
	SignatureID               string                `json:"signature_id"`
	CompanyRuc                string                `json:"company_ruc"`
	PositionCompany           string                `json:"position_company"`
	CompanySocialReason       string                `json:"company_social_reason"`
	AppointmentExpirationDate string                `json:"appointment_expiration_date"`
	Documents                 model.Documents       `json:"documents"`
}

func validateDate(value interface{}) error {
	s, ok := value.(string)
	if !ok {
		return errors.New("invalid type for date")
	}
	if _, err := time.Parse(dateLayout, s); err != nil {
		return errors.New("please format the date as 'YYYY-MM-DD' (e.g., 1980-05-20)")
	}
	return nil
}

func (c *CreateCertification) ValidateCreateCertification() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.BirthDate, validation.Required, validation.By(validateDate)),
		validation.Field(&c.ApplicationType, validation.Required, validation.In(model.ApplicationNaturalPerson, model.ApplicationLegalRepresentative)),
		validation.Field(&c.Email, validation.When(c.Email != "", validation.Match(emailPattern).Error("must be a valid email address"))),
		validation.Field(&c.CountryCode, validation.When(c.CountryCode != "", validation.Length(3, 3))),
		validation.Field(&c.AppointmentExpirationDate, validation.When(c.AppointmentExpirationDate != "", validation.By(validateDate))),
	)
}

func parseDate(value string) time.Time {
	t, _ := time.Parse(dateLayout, value)
	return t
}

func (c *CreateCertification) ToCertification() model.Certification {
	cert := model.Certification{
		ReferenceTransaction: c.ReferenceTransaction,
		IdentificationNumber: c.IdentificationNumber,
		Name:                 c.Name,
		LastName:             c.LastName,
		SecondLastName:       c.SecondLastName,
		FingerCode:           c.FingerCode,
		BirthDate:            parseDate(c.BirthDate),
		Email:                c.Email,
		Phone:                c.Phone,
		Address:              c.Address,
		CountryCode:          c.CountryCode,
		City:                 c.City,
		Province:             c.Province,
		DocumentType:         c.DocumentType,
		ApplicationType:      c.ApplicationType,
		Period:               c.Period,
		SignatureID:          c.SignatureID,
		CompanyRuc:           c.CompanyRuc,
		PositionCompany:      c.PositionCompany,
		CompanySocialReason:  c.CompanySocialReason,
		Documents:            c.Documents,
	}
	if c.AppointmentExpirationDate != "" {
		expires := parseDate(c.AppointmentExpirationDate)
		cert.AppointmentExpirationDate = &expires
	}
	return cert
}
