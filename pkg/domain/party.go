package domain

// PartyRole distinguishes which side of the deal a party is on.
type PartyRole string

const (
	RoleBuyer  PartyRole = "buyer"
	RoleSeller PartyRole = "seller"
)

// PartyKind distinguishes natural persons from companies.
type PartyKind string

const (
	KindIndividual PartyKind = "individual"
	KindCompany    PartyKind = "company"
)

// DocumentKind selects which identity document an individual presents.
type DocumentKind string

const (
	DocIDCard         DocumentKind = "id_card"
	DocDriversLicense DocumentKind = "drivers_license"
	DocWorkCard       DocumentKind = "work_card"
)

// Spouse is the sub-record for a married individual's spouse.
type Spouse struct {
	FullName     string       `json:"full_name,omitempty"`
	BirthDate    string       `json:"birth_date,omitempty"`
	NationalID   string       `json:"national_id,omitempty"`
	DocumentKind DocumentKind `json:"document_kind,omitempty"`
	Signs        bool         `json:"signs"`
}

// Party is one buyer or seller. Individual and company fields are mutually
// exclusive: company parties never carry marital or spouse data.
type Party struct {
	Kind PartyKind `json:"kind"`

	// Individual identity, populated by a document upload.
	FullName     string       `json:"full_name,omitempty"`
	BirthDate    string       `json:"birth_date,omitempty"`
	NationalID   string       `json:"national_id,omitempty"`
	Gender       string       `json:"gender,omitempty"`
	DocumentKind DocumentKind `json:"document_kind,omitempty"`

	// Driver's license specifics.
	LicenseNumber string `json:"license_number,omitempty"`
	LicenseIssuer string `json:"license_issuer,omitempty"`

	// Work card specifics.
	WorkCardNumber string `json:"work_card_number,omitempty"`
	WorkCardSeries string `json:"work_card_series,omitempty"`

	// Marital status (individuals only).
	Married        bool    `json:"married"`
	MarriageDate   string  `json:"marriage_date,omitempty"`
	PropertyRegime string  `json:"property_regime,omitempty"`
	Spouse         *Spouse `json:"spouse,omitempty"`

	// Company identity, populated by a registration upload.
	LegalName           string `json:"legal_name,omitempty"`
	CompanyID           string `json:"company_id,omitempty"`
	Address             string `json:"address,omitempty"`
	LegalRepresentative string `json:"legal_representative,omitempty"`
}

// Clone returns a deep copy of the party.
func (p *Party) Clone() Party {
	out := *p
	if p.Spouse != nil {
		spouse := *p.Spouse
		out.Spouse = &spouse
	}
	return out
}
