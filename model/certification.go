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
	"strings"
	"time"
)

// ApplicationType is the applicant category sent to FirmaSegura.
type ApplicationType string

const (
	ApplicationNaturalPerson       ApplicationType = "NATURAL_PERSON"
	ApplicationLegalRepresentative ApplicationType = "LEGAL_REPRESENTATIVE"
)

// ApplicantKind is the resolved variant of an applicant. It is derived once from the
// application type and the presence of a company RUC.
type ApplicantKind int

const (
	KindNaturalPerson ApplicantKind = iota
	KindNaturalPersonWithCompany
	KindLegalRepresentative
)

func (k ApplicantKind) String() string {
	switch k {
	case KindNaturalPersonWithCompany:
		return "natural_person_with_company"
	case KindLegalRepresentative:
		return "legal_representative"
	default:
		return "natural_person"
	}
}

// HasCompany reports whether the kind carries company fields and the RUC document.
func (k ApplicantKind) HasCompany() bool {
	return k == KindNaturalPersonWithCompany || k == KindLegalRepresentative
}

// DocumentSlot names one of the eight document references a certification can hold.
type DocumentSlot string

const (
	DocIdentificationFront       DocumentSlot = "identification_front"
	DocIdentificationBack        DocumentSlot = "identification_back"
	DocIdentificationSelfie      DocumentSlot = "identification_selfie"
	DocCompanyRuc                DocumentSlot = "pdf_company_ruc"
	DocRepresentativeAppointment DocumentSlot = "pdf_representative_appointment"
	DocAppointmentAcceptance     DocumentSlot = "pdf_appointment_acceptance"
	DocCompanyConstitution       DocumentSlot = "pdf_company_constitution"
	DocAuthorizationVideo        DocumentSlot = "authorization_video"
)

// AuthorizationVideoMinAge is the age above which applicants must provide an authorization video.
const AuthorizationVideoMinAge = 65

// Documents holds storage paths for the files attached to a certification.
type Documents struct {
	IdentificationFront       string `json:"identification_front"`
	IdentificationBack        string `json:"identification_back"`
	IdentificationSelfie      string `json:"identification_selfie"`
	CompanyRuc                string `json:"pdf_company_ruc,omitempty"`
	RepresentativeAppointment string `json:"pdf_representative_appointment,omitempty"`
	AppointmentAcceptance     string `json:"pdf_appointment_acceptance,omitempty"`
	CompanyConstitution       string `json:"pdf_company_constitution,omitempty"`
	AuthorizationVideo        string `json:"authorization_video,omitempty"`
}

// Path returns the storage path stored in the given slot.
func (d Documents) Path(slot DocumentSlot) string {
	switch slot {
	case DocIdentificationFront:
		return d.IdentificationFront
	case DocIdentificationBack:
		return d.IdentificationBack
	case DocIdentificationSelfie:
		return d.IdentificationSelfie
	case DocCompanyRuc:
		return d.CompanyRuc
	case DocRepresentativeAppointment:
		return d.RepresentativeAppointment
	case DocAppointmentAcceptance:
		return d.AppointmentAcceptance
	case DocCompanyConstitution:
		return d.CompanyConstitution
	case DocAuthorizationVideo:
		return d.AuthorizationVideo
	}
	return ""
}

// Certification is an applicant's request for a digital signature certificate.
type Certification struct {
	CertificationID           string               `json:"certification_id"`
	ReferenceTransaction      string               `json:"reference_transaction"`
	IdentificationNumber      string               `json:"identification_number"`
	Name                      string               `json:"name"`
	LastName                  string               `json:"last_name"`
	SecondLastName            string               `json:"second_last_name,omitempty"`
	FingerCode                string               `json:"finger_code"`
	BirthDate                 time.Time            `json:"birth_date"`
	ClientAge                 int                  `json:"client_age"`
	Email                     string               `json:"email"`
	Phone                     string               `json:"phone"`
	Address                   string               `json:"address"`
	CountryCode               string               `json:"country_code"`
	City                      string               `json:"city"`
	Province                  string               `json:"province"`
	DocumentType              string               `json:"document_type"`
	ApplicationType           ApplicationType      `json:"application_type"`
	Period                    string               `json:"period"`
	SignatureID               string               `json:"signature_id,omitempty"`
	CompanyRuc                string               `json:"company_ruc,omitempty"`
	PositionCompany           string               `json:"position_company,omitempty"`
	CompanySocialReason       string               `json:"company_social_reason,omitempty"`
	AppointmentExpirationDate *time.Time           `json:"appointment_expiration_date,omitempty"`
	Documents                 Documents            `json:"documents"`
	Status                    CertificationStatus  `json:"status"`
	ValidationStatus          ValidationStatus     `json:"validation_status,omitempty"`
	RejectionReason           string               `json:"rejection_reason,omitempty"`
	SubmittedAt               *time.Time           `json:"submitted_at,omitempty"`
	ValidatedAt               *time.Time           `json:"validated_at,omitempty"`
	CreatedAt                 time.Time            `json:"created_at"`
	UpdatedAt                 time.Time            `json:"updated_at"`
	Events                    []CertificationEvent `json:"events,omitempty"`
}

// Kind resolves the applicant variant. A natural person only carries company data when a RUC is present.
func (c *Certification) Kind() ApplicantKind {
	if c.ApplicationType == ApplicationLegalRepresentative {
		return KindLegalRepresentative
	}
	if strings.TrimSpace(c.CompanyRuc) != "" {
		return KindNaturalPersonWithCompany
	}
	return KindNaturalPerson
}

// RequiresAuthorizationVideo reports whether the applicant's age makes the video mandatory.
func (c *Certification) RequiresAuthorizationVideo() bool {
	return c.ClientAge > AuthorizationVideoMinAge
}

// CertificationUpdate is the complete field set written by a single workflow step.
// Nil pointers leave the stored column untouched.
type CertificationUpdate struct {
	Status           CertificationStatus
	ValidationStatus ValidationStatus
	RejectionReason  *string
	SubmittedAt      *time.Time
	ValidatedAt      *time.Time
	Events           []CertificationEvent
}

// Apply copies the update onto an in-memory certification so callers observe the persisted state.
func (u CertificationUpdate) Apply(c *Certification) {
	if u.Status != "" {
		c.Status = u.Status
	}
	if u.ValidationStatus != "" {
		c.ValidationStatus = u.ValidationStatus
	}
	if u.RejectionReason != nil {
		c.RejectionReason = *u.RejectionReason
	}
	if u.SubmittedAt != nil {
		c.SubmittedAt = u.SubmittedAt
	}
	if u.ValidatedAt != nil {
		c.ValidatedAt = u.ValidatedAt
	}
	c.Events = append(c.Events, u.Events...)
}
