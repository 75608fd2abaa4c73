package firmasegura

import (
	"context"
	"encoding/base64"
	"strings"

	"github.com/blnkfinance/certify/model"
	"github.com/sirupsen/logrus"
)

// AppointmentDateLayout is the textual form the authority expects for dates.
const AppointmentDateLayout = "2006-01-02 15:04:05"

// Payload is the flat document posted to the collector endpoint.
type Payload map[string]string

type field struct {
	key      string
	value    func(c *model.Certification) string
	optional bool
}

type document struct {
	key  string
	slot model.DocumentSlot
}

type kindRules struct {
	fields    []field
	documents []document
}

var baseFields = []field{
	{key: "identificationNumber", value: func(c *model.Certification) string { return c.IdentificationNumber }},
	{key: "name", value: func(c *model.Certification) string { return c.Name }},
	{key: "lastName", value: func(c *model.Certification) string { return c.LastName }},
	{key: "secondLastName", value: func(c *model.Certification) string { return c.SecondLastName }, optional: true},
	{key: "fingerCode", value: func(c *model.Certification) string { return c.FingerCode }},
	{key: "emailAddress", value: func(c *model.Certification) string { return c.Email }},
	{key: "cellphoneNumber", value: func(c *model.Certification) string { return c.Phone }},
	{key: "city", value: func(c *model.Certification) string { return c.City }},
	{key: "province", value: func(c *model.Certification) string { return c.Province }},
	{key: "address", value: func(c *model.Certification) string { return c.Address }},
	{key: "countryCode", value: func(c *model.Certification) string { return c.CountryCode }},
	{key: "documentType", value: func(c *model.Certification) string { return c.DocumentType }},
	{key: "applicationType", value: func(c *model.Certification) string { return string(c.ApplicationType) }},
	{key: "referenceTransaction", value: func(c *model.Certification) string { return c.ReferenceTransaction }},
	{key: "period", value: func(c *model.Certification) string { return c.Period }},
}

var companyFields = []field{
	{key: "companyRuc", value: func(c *model.Certification) string { return c.CompanyRuc }},
	{key: "positionCompany", value: func(c *model.Certification) string { return c.PositionCompany }},
	{key: "companySocialReason", value: func(c *model.Certification) string { return c.CompanySocialReason }},
	{key: "appointmentExpirationDate", value: appointmentExpiration, optional: true},
}

var identityDocuments = []document{
	{key: "identificationFront", slot: model.DocIdentificationFront},
	{key: "identificationBack", slot: model.DocIdentificationBack},
	{key: "identificationSelfie", slot: model.DocIdentificationSelfie},
}

var companyDocuments = []document{
	{key: "pdfCompanyRuc", slot: model.DocCompanyRuc},
}

var legalDocuments = []document{
	{key: "pdfRepresentativeAppointment", slot: model.DocRepresentativeAppointment},
	{key: "pdfAppointmentAcceptance", slot: model.DocAppointmentAcceptance},
	{key: "pdfCompanyConstitution", slot: model.DocCompanyConstitution},
}

var authorizationVideo = document{key: "authorizationVideo", slot: model.DocAuthorizationVideo}

var rules = map[model.ApplicantKind]kindRules{
	model.KindNaturalPerson: {
		fields:    baseFields,
		documents: identityDocuments,
	},
	model.KindNaturalPersonWithCompany: {
		fields:    concatFields(baseFields, companyFields),
		documents: concatDocuments(identityDocuments, companyDocuments),
	},
	model.KindLegalRepresentative: {
		fields:    concatFields(baseFields, companyFields),
		documents: concatDocuments(identityDocuments, companyDocuments, legalDocuments),
	},
}

func concatFields(groups ...[]field) []field {
	var out []field
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

func concatDocuments(groups ...[]document) []document {
	var out []document
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

func appointmentExpiration(c *model.Certification) string {
	if c.AppointmentExpirationDate == nil || c.AppointmentExpirationDate.IsZero() {
		return ""
	}
	return c.AppointmentExpirationDate.Format(AppointmentDateLayout)
}

// Builder assembles submission payloads, reading document files from blob storage.
type Builder struct {
	blobs  BlobReader
	logger logrus.FieldLogger
}

func NewBuilder(blobs BlobReader, logger logrus.FieldLogger) *Builder {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Builder{blobs: blobs, logger: logger}
}

// Build returns the payload for a certification. Files that cannot be read are
// logged and left out. The certification is not modified.
func (b *Builder) Build(ctx context.Context, cert *model.Certification) (Payload, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r := rules[cert.Kind()]
	payload := make(Payload, len(r.fields)+len(r.documents)+1)

	for _, f := range r.fields {
		v := f.value(cert)
		if f.optional && strings.TrimSpace(v) == "" {
			continue
		}
		payload[f.key] = v
	}

	docs := r.documents
	if cert.RequiresAuthorizationVideo() {
		docs = append(append([]document{}, docs...), authorizationVideo)
	}

	log := b.logger.WithField("certification_id", cert.CertificationID)
	for _, d := range docs {
		path := cert.Documents.Path(d.slot)
		if path == "" {
			log.WithField("document", d.slot).Warn("document reference missing, omitting from payload")
			continue
		}
		data, err := b.blobs.Read(ctx, path)
		if err != nil {
			log.WithFields(logrus.Fields{"document": d.slot, "path": path, "error": err}).Warn("document file unreadable, omitting from payload")
			continue
		}
		payload[d.key] = base64.StdEncoding.EncodeToString(data)
	}

	return payload, nil
}

// MissingFields lists the required payload keys that would be empty for a certification.
func MissingFields(cert *model.Certification) []string {
	var missing []string
	for _, f := range rules[cert.Kind()].fields {
		if !f.optional && strings.TrimSpace(f.value(cert)) == "" {
			missing = append(missing, f.key)
		}
	}
	return missing
}
