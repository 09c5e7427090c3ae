package domain

import "encoding/json"

// тип обновления регистрации

type UpdateType string

const (
	UpdateTypeRectification UpdateType = "Rectification"
)

// Registration is the body of both the initial registration and the
// rectification request. UpdateRegistration is only set on updates.
type Registration struct {
	Particulars        Particulars         `json:"particulars"`
	ClassOfCharge      string              `json:"class_of_charge"`
	Applicant          Applicant           `json:"applicant"`
	Parties            []Party             `json:"parties"`
	UpdateRegistration *UpdateRegistration `json:"update_registration,omitempty"`
}

type Particulars struct {
	Description string   `json:"description"`
	Counties    []string `json:"counties"`
	District    string   `json:"district"`
}

type Applicant struct {
	Address   string `json:"address"`
	KeyNumber string `json:"key_number"`
	Name      string `json:"name"`
	Reference string `json:"reference"`
}

type Party struct {
	Type  string      `json:"type"`
	Names []PartyName `json:"names"`
}

// Name types accepted in PartyName.Type.
const (
	NameTypePrivate                = "Private Individual"
	NameTypeCountyCouncil          = "County Council"
	NameTypeParishCouncil          = "Parish Council"
	NameTypeRuralCouncil           = "Rural Council"
	NameTypeOtherCouncil           = "Other Council"
	NameTypeDevelopmentCorporation = "Development Corporation"
	NameTypeLimitedCompany         = "Limited Company"
	NameTypeComplex                = "Complex Name"
	NameTypeOther                  = "Other"
)

// PartyName carries exactly one of its name forms, selected by Type.
type PartyName struct {
	Type    string          `json:"type"`
	Private *PrivateName    `json:"private,omitempty"`
	Company string          `json:"company,omitempty"`
	Local   *LocalAuthority `json:"local,omitempty"`
	Other   string          `json:"other,omitempty"`
	Complex *ComplexName    `json:"complex,omitempty"`
}

type LocalAuthority struct {
	Name string `json:"name,omitempty"`
	Area string `json:"area"`
}

type ComplexName struct {
	Name   string `json:"name"`
	Number int    `json:"number,omitempty"`
}

type PrivateName struct {
	Surname   string   `json:"surname"`
	Forenames []string `json:"forenames"`
}

type UpdateRegistration struct {
	Type UpdateType `json:"type"`
}

// IsRectification reports whether the request carries a rectification update.
func (r Registration) IsRectification() bool {
	return r.UpdateRegistration != nil && r.UpdateRegistration.Type == UpdateTypeRectification
}

// RegistrationRef identifies a registration by the date and number the
// register assigned to it. Number accepts both JSON numbers and numeric strings.
type RegistrationRef struct {
	Date   string      `json:"date"`
	Number json.Number `json:"number"`
	County string      `json:"county,omitempty"`
}

// Complete reports whether both identifying fields are present.
func (r RegistrationRef) Complete() bool {
	return r.Date != "" && r.Number != ""
}

type RegistrationResponse struct {
	NewRegistrations     []RegistrationRef `json:"new_registrations"`
	AmendedRegistrations []RegistrationRef `json:"amended_registrations,omitempty"`
	RequestID            json.RawMessage   `json:"request_id,omitempty"`

	// Raw is the response body exactly as received.
	Raw json.RawMessage `json:"-"`
}
