package domain

import "time"

// CertificateType enumerates every supporting document the interview can
// collect. The set is closed: the workflow definition only references these.
type CertificateType string

const (
	CertFederalClearance       CertificateType = "federal_clearance"
	CertStateClearance         CertificateType = "state_clearance"
	CertMunicipalClearance     CertificateType = "municipal_clearance"
	CertLaborClearance         CertificateType = "labor_clearance"
	CertTitleDeed              CertificateType = "title_deed"
	CertPropertyTax            CertificateType = "property_tax"
	CertLiens                  CertificateType = "liens"
	CertCondominium            CertificateType = "condominium"
	CertRuralTax               CertificateType = "rural_tax"
	CertLandRegistry           CertificateType = "land_registry"
	CertEnvironmentalClearance CertificateType = "environmental_clearance"
	CertSubdivisionSurvey      CertificateType = "subdivision_survey"
	CertSubdivisionPlan        CertificateType = "subdivision_plan"
	CertBirthRecord            CertificateType = "birth_record"
	CertMarriageRecord         CertificateType = "marriage_record"
)

// CertificateTypes lists all known types in a stable order.
func CertificateTypes() []CertificateType {
	return []CertificateType{
		CertFederalClearance,
		CertStateClearance,
		CertMunicipalClearance,
		CertLaborClearance,
		CertTitleDeed,
		CertPropertyTax,
		CertLiens,
		CertCondominium,
		CertRuralTax,
		CertLandRegistry,
		CertEnvironmentalClearance,
		CertSubdivisionSurvey,
		CertSubdivisionPlan,
		CertBirthRecord,
		CertMarriageRecord,
	}
}

// OwnerRef identifies which party a certificate belongs to.
// The zero value means the certificate is property-level.
type OwnerRef struct {
	Role  PartyRole `json:"role,omitempty"`
	Index int       `json:"index"`
}

// PropertyOwner is the owner reference for property-level certificates.
func PropertyOwner() OwnerRef { return OwnerRef{} }

// BuyerOwner references the buyer at the given index.
func BuyerOwner(i int) OwnerRef { return OwnerRef{Role: RoleBuyer, Index: i} }

// SellerOwner references the seller at the given index.
func SellerOwner(i int) OwnerRef { return OwnerRef{Role: RoleSeller, Index: i} }

// IsProperty reports whether the reference is property-level.
func (o OwnerRef) IsProperty() bool { return o.Role == "" }

// Certificate records one collected (or waived) supporting document.
// Fields is empty when the certificate was waived.
type Certificate struct {
	Type       CertificateType   `json:"type"`
	Owner      OwnerRef          `json:"owner"`
	Presented  bool              `json:"presented"`
	Fields     map[string]string `json:"fields,omitempty"`
	UploadedAt time.Time         `json:"uploaded_at,omitempty"`
}
