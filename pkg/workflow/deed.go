package workflow

import (
	"fmt"

	"github.com/LACSistemas/EscriturasNew/pkg/domain"
	"github.com/LACSistemas/EscriturasNew/pkg/ports"
	"github.com/LACSistemas/EscriturasNew/pkg/sanitize"
)

// Response vocabulary. Fixed once, here, and checked at build time against
// every outgoing condition.
const (
	OptYes = "yes"
	OptNo  = "no"

	OptIndividual = "individual"
	OptCompany    = "company"

	OptPresent = "present"
	OptWaive   = "waive"

	OptLot       = "lot"
	OptApartment = "apartment"
	OptRural     = "rural"

	OptIDCard         = "id_card"
	OptDriversLicense = "drivers_license"
	OptWorkCard       = "work_card"

	OptAtSigning         = "at_signing"
	OptPreviouslySettled = "previously_settled"

	OptBankTransfer = "bank_transfer"
	OptCash         = "cash"
	OptCheck        = "check"
)

// Names of the fixed steps referenced outside the certificate helpers.
const (
	StepDeedType      = "deed_type"
	StepSubdivision   = "subdivision"
	StepBuyerKind     = "buyer_kind"
	StepMoreBuyers    = "more_buyers"
	StepSellerKind    = "seller_kind"
	StepMoreSellers   = "more_sellers"
	StepPropertyValue = "property_value"
	StepPaymentTiming = "payment_timing"
	StepPaymentMethod = "payment_method"
	StepComplete      = "complete"
)

// HintCompanyRegistration selects the company registration extraction
// template; all other hints are DocumentKind or CertificateType literals.
const HintCompanyRegistration ports.ExtractionHint = "company_registration"

// Toolbox carries the collaborators the deed handlers need.
type Toolbox struct {
	Gateway *Gateway
}

// NewDeedDefinition builds the complete deed interview graph. All divergence
// driven by an earlier answer (property kind, subdivision) is laid out
// before the segments it shares with other branches, so every transition in
// the graph remains a literal match on the current response.
func NewDeedDefinition(tb Toolbox) (*Definition, error) {
	b := NewBuilder().Entry(StepDeedType)

	b.Register(Step{
		Name: StepDeedType,
		Handler: &Question{
			Text:    "Select the deed type:",
			Options: []string{OptLot, OptApartment, OptRural},
			SaveTo:  "deed_type",
			Apply: func(s *domain.Session, answer string) error {
				s.DeedType = domain.DeedType(answer)
				return nil
			},
		},
		Transitions: []ConditionTarget{
			{When: OptLot, To: "cert_property_tax_option"},
			{When: OptApartment, To: "cert_condominium_option"},
			{When: OptRural, To: StepSubdivision},
		},
	})

	b.Register(Step{
		Name: StepSubdivision,
		Handler: &Question{
			Text:    "Does the sale subdivide the rural property?",
			Options: []string{OptYes, OptNo},
			Apply: func(s *domain.Session, answer string) error {
				s.Subdivision = answer == OptYes
				return nil
			},
		},
		Transitions: []ConditionTarget{
			{When: OptYes, To: "cert_subdivision_survey_option"},
			{When: OptNo, To: "cert_rural_tax_option"},
		},
	})

	registerPropertyCertificates(b, tb)
	registerPartyFlow(b, tb, domain.RoleBuyer, StepMoreBuyers)

	b.Register(Step{
		Name: StepMoreBuyers,
		Handler: &Question{
			Text:    "Are there more buyers?",
			Options: []string{OptYes, OptNo},
		},
		Transitions: []ConditionTarget{
			{When: OptYes, To: StepBuyerKind},
			{When: OptNo, To: StepSellerKind},
		},
	})

	registerPartyFlow(b, tb, domain.RoleSeller, "seller_cert_federal_clearance_option")
	registerSellerClearances(b, tb)

	b.Register(Step{
		Name: StepMoreSellers,
		Handler: &Question{
			Text:    "Are there more sellers?",
			Options: []string{OptYes, OptNo},
		},
		Transitions: []ConditionTarget{
			{When: OptYes, To: StepSellerKind},
			{When: OptNo, To: StepPropertyValue},
		},
	})

	registerPayment(b)

	return b.Build()
}

// registerPropertyCertificates lays out the property-level certificate
// chains. Chains specific to one deed type come first and converge on the
// shared title-deed/liens tail, which routes into the buyer loop.
func registerPropertyCertificates(b *Builder, tb Toolbox) {
	property := func(*domain.Session) domain.OwnerRef { return domain.PropertyOwner() }

	pairs := []certificatePair{
		// Apartment-only, then joins the urban chain.
		{
			base:     "cert_condominium",
			certType: domain.CertCondominium,
			subject:  staticSubject("the condominium good-standing declaration"),
			next:     "cert_property_tax_option",
		},
		// Urban (lot and apartment).
		{
			base:     "cert_property_tax",
			certType: domain.CertPropertyTax,
			subject:  staticSubject("the municipal property tax certificate"),
			next:     "cert_title_deed_option",
		},
		// Rural with subdivision, then joins the rural chain.
		{
			base:     "cert_subdivision_survey",
			certType: domain.CertSubdivisionSurvey,
			subject:  staticSubject("the subdivision survey (technical responsibility record)"),
			next:     "cert_subdivision_plan_option",
		},
		{
			base:     "cert_subdivision_plan",
			certType: domain.CertSubdivisionPlan,
			subject:  staticSubject("the subdivision plan of the parcel"),
			next:     "cert_rural_tax_option",
		},
		// Rural.
		{
			base:     "cert_rural_tax",
			certType: domain.CertRuralTax,
			subject:  staticSubject("the rural land tax certificate"),
			next:     "cert_land_registry_option",
		},
		{
			base:     "cert_land_registry",
			certType: domain.CertLandRegistry,
			subject:  staticSubject("the rural land registry certificate"),
			next:     "cert_environmental_clearance_option",
		},
		{
			base:     "cert_environmental_clearance",
			certType: domain.CertEnvironmentalClearance,
			subject:  staticSubject("the environmental clearance certificate"),
			next:     "cert_title_deed_option",
		},
		// Shared tail for every deed type.
		{
			base:     "cert_title_deed",
			certType: domain.CertTitleDeed,
			subject:  staticSubject("the prior title deed of the property"),
			next:     "cert_liens_option",
		},
		{
			base:     "cert_liens",
			certType: domain.CertLiens,
			subject:  staticSubject("the liens and encumbrances certificate"),
			next:     StepBuyerKind,
		},
	}

	for _, p := range pairs {
		p.owner = property
		registerCertificatePair(b, tb, p)
	}
}

// registerSellerClearances lays out the per-seller clearance chain. It runs
// inside the seller loop, right before "more sellers", so the owner is
// always the seller currently being assembled and no iteration cursor is
// needed.
func registerSellerClearances(b *Builder, tb Toolbox) {
	owner := currentPartyOwner(domain.RoleSeller)

	chain := []struct {
		base     string
		certType domain.CertificateType
		title    string
		next     string
	}{
		{"seller_cert_federal_clearance", domain.CertFederalClearance, "the federal debt clearance", "seller_cert_state_clearance_option"},
		{"seller_cert_state_clearance", domain.CertStateClearance, "the state debt clearance", "seller_cert_municipal_clearance_option"},
		{"seller_cert_municipal_clearance", domain.CertMunicipalClearance, "the municipal debt clearance", "seller_cert_labor_clearance_option"},
		{"seller_cert_labor_clearance", domain.CertLaborClearance, "the labor debt clearance", StepMoreSellers},
	}

	for _, link := range chain {
		title := link.title
		registerCertificatePair(b, tb, certificatePair{
			base:     link.base,
			certType: link.certType,
			owner:    owner,
			subject: func(s *domain.Session) string {
				return fmt.Sprintf("%s for the %s seller", title, ordinal(len(s.Sellers)))
			},
			next: link.next,
		})
	}
}

// registerPartyFlow registers the identity and marital subflow for one
// role. Individuals pick a document kind, upload it, and answer the marital
// questions; companies upload their registration and skip the marital steps
// entirely, routed by the graph itself. Both paths end at afterParty: the
// "more buyers" question for buyers, the clearance chain for sellers.
func registerPartyFlow(b *Builder, tb Toolbox, role domain.PartyRole, afterParty string) {
	prefix := string(role)
	kindStep := prefix + "_kind"
	docKindStep := prefix + "_document_kind"
	docUploadStep := prefix + "_document_upload"
	companyUploadStep := prefix + "_company_upload"
	marriedStep := prefix + "_married"
	spouseSignsStep := prefix + "_spouse_signs"
	spouseDocKindStep := prefix + "_spouse_document_kind"
	spouseDocUploadStep := prefix + "_spouse_document_upload"
	birthBase := prefix + "_birth_record"
	marriageBase := prefix + "_marriage_record"

	owner := currentPartyOwner(role)

	b.Register(Step{
		Name: kindStep,
		Handler: &DynamicQuestion{
			TextFunc: func(s *domain.Session) string {
				return fmt.Sprintf("Kind of the %s %s:", ordinal(partyCount(s, role)+1), role)
			},
			Options: []string{OptIndividual, OptCompany},
			Apply: func(s *domain.Session, answer string) error {
				party := domain.Party{Kind: domain.PartyKind(answer)}
				if role == domain.RoleBuyer {
					s.Buyers = append(s.Buyers, party)
				} else {
					s.Sellers = append(s.Sellers, party)
				}
				return nil
			},
		},
		Transitions: []ConditionTarget{
			{When: OptIndividual, To: docKindStep},
			{When: OptCompany, To: companyUploadStep},
		},
	})

	b.Register(Step{
		Name: docKindStep,
		Handler: &Question{
			Text:    "Which identity document will be presented?",
			Options: []string{OptIDCard, OptDriversLicense, OptWorkCard},
			Apply: func(s *domain.Session, answer string) error {
				s.CurrentParty(role).DocumentKind = domain.DocumentKind(answer)
				return nil
			},
		},
		Next: docUploadStep,
	})

	b.Register(Step{
		Name: docUploadStep,
		Handler: &FileUpload{
			Text:        fmt.Sprintf("Upload the %s's identity document.", role),
			Description: "Photo or scan of the chosen identity document",
			Hint: func(s *domain.Session) ports.ExtractionHint {
				return ports.ExtractionHint(s.CurrentParty(role).DocumentKind)
			},
			Merge:   mergePartyIdentity(role),
			Gateway: tb.Gateway,
		},
		Next: marriedStep,
	})

	b.Register(Step{
		Name: companyUploadStep,
		Handler: &FileUpload{
			Text:        fmt.Sprintf("Upload the %s company's registration document.", role),
			Description: "Company registration with current legal representative",
			Hint: func(*domain.Session) ports.ExtractionHint {
				return HintCompanyRegistration
			},
			Merge:   mergeCompanyIdentity(role),
			Gateway: tb.Gateway,
		},
		Next: afterParty,
	})

	b.Register(Step{
		Name: marriedStep,
		Handler: &DynamicQuestion{
			TextFunc: func(s *domain.Session) string {
				return fmt.Sprintf("Is the %s %s married?", ordinal(partyCount(s, role)), role)
			},
			Options: []string{OptYes, OptNo},
			Apply: func(s *domain.Session, answer string) error {
				s.CurrentParty(role).Married = answer == OptYes
				return nil
			},
		},
		Transitions: []ConditionTarget{
			{When: OptYes, To: marriageBase + "_option"},
			{When: OptNo, To: birthBase + "_option"},
		},
	})

	registerCertificatePair(b, tb, certificatePair{
		base:     birthBase,
		certType: domain.CertBirthRecord,
		owner:    owner,
		subject: func(s *domain.Session) string {
			return fmt.Sprintf("the birth record of the %s %s", ordinal(partyCount(s, role)), role)
		},
		next: afterParty,
	})

	registerCertificatePair(b, tb, certificatePair{
		base:     marriageBase,
		certType: domain.CertMarriageRecord,
		owner:    owner,
		subject: func(s *domain.Session) string {
			return fmt.Sprintf("the marriage record of the %s %s", ordinal(partyCount(s, role)), role)
		},
		next:  spouseSignsStep,
		extra: mergeMarriageRecord(role),
	})

	b.Register(Step{
		Name: spouseSignsStep,
		Handler: &DynamicQuestion{
			TextFunc: func(s *domain.Session) string {
				return fmt.Sprintf("Will the spouse of the %s %s sign the deed?", ordinal(partyCount(s, role)), role)
			},
			Options: []string{OptYes, OptNo},
			Apply: func(s *domain.Session, answer string) error {
				party := s.CurrentParty(role)
				if party.Spouse == nil {
					party.Spouse = &domain.Spouse{}
				}
				party.Spouse.Signs = answer == OptYes
				return nil
			},
		},
		Transitions: []ConditionTarget{
			{When: OptYes, To: spouseDocKindStep},
			{When: OptNo, To: afterParty},
		},
	})

	b.Register(Step{
		Name: spouseDocKindStep,
		Handler: &Question{
			Text:    "Which identity document will the spouse present?",
			Options: []string{OptIDCard, OptDriversLicense, OptWorkCard},
			Apply: func(s *domain.Session, answer string) error {
				s.CurrentParty(role).Spouse.DocumentKind = domain.DocumentKind(answer)
				return nil
			},
		},
		Next: spouseDocUploadStep,
	})

	b.Register(Step{
		Name: spouseDocUploadStep,
		Handler: &FileUpload{
			Text:        "Upload the spouse's identity document.",
			Description: "Photo or scan of the spouse's chosen identity document",
			Hint: func(s *domain.Session) ports.ExtractionHint {
				return ports.ExtractionHint(s.CurrentParty(role).Spouse.DocumentKind)
			},
			Merge:   mergeSpouseIdentity(role),
			Gateway: tb.Gateway,
		},
		Next: afterParty,
	})
}

func registerPayment(b *Builder) {
	b.Register(Step{
		Name: StepPropertyValue,
		Handler: &TextInput{
			Text:        "Enter the property value (e.g. R$ 250.000,00):",
			Placeholder: "R$ 0,00",
			Validator: func(text string) error {
				if _, err := sanitize.Amount(text); err != nil {
					return fmt.Errorf("enter a monetary amount such as R$ 250.000,00")
				}
				return nil
			},
			Apply: func(s *domain.Session, text string) error {
				amount, err := sanitize.Amount(text)
				if err != nil {
					return err
				}
				s.Answers["property_value"] = sanitize.FormatAmount(amount)
				return nil
			},
		},
		Next: StepPaymentTiming,
	})

	b.Register(Step{
		Name: StepPaymentTiming,
		Handler: &Question{
			Text:    "When is the price paid?",
			Options: []string{OptAtSigning, OptPreviouslySettled},
			SaveTo:  "payment_timing",
		},
		Next: StepPaymentMethod,
	})

	b.Register(Step{
		Name: StepPaymentMethod,
		Handler: &Question{
			Text:    "How is the price paid?",
			Options: []string{OptBankTransfer, OptCash, OptCheck},
			SaveTo:  "payment_method",
		},
		Next: StepComplete,
	})

	b.Register(Step{
		Name: StepComplete,
		Handler: &Question{
			Text: "The interview is complete. The collected data is ready for deed assembly.",
		},
		Terminal: true,
	})
}

// certificatePair describes one present-or-waive certificate: an option
// step asking whether the document will be presented and, if so, an upload
// step that extracts it. Waiving still records a Certificate entry with
// presented=false so downstream completeness checks see every applicable
// type.
type certificatePair struct {
	base     string
	certType domain.CertificateType
	owner    func(*domain.Session) domain.OwnerRef
	subject  func(*domain.Session) string
	next     string
	extra    MergeFunc
}

func registerCertificatePair(b *Builder, tb Toolbox, p certificatePair) {
	optionStep := p.base + "_option"
	uploadStep := p.base + "_upload"

	b.Register(Step{
		Name: optionStep,
		Handler: &DynamicQuestion{
			TextFunc: func(s *domain.Session) string {
				return fmt.Sprintf("Will %s be presented?", p.subject(s))
			},
			Options: []string{OptPresent, OptWaive},
			Apply: func(s *domain.Session, answer string) error {
				if answer == OptWaive {
					return waiveCertificate(p.certType, p.owner)(s, answer)
				}
				return nil
			},
		},
		Transitions: []ConditionTarget{
			{When: OptPresent, To: uploadStep},
			{When: OptWaive, To: p.next},
		},
	})

	b.Register(Step{
		Name: uploadStep,
		Handler: &FileUpload{
			Text:        "Upload the certificate document.",
			Description: "PDF or image of the certificate",
			Hint: func(*domain.Session) ports.ExtractionHint {
				return ports.ExtractionHint(p.certType)
			},
			Merge:   mergeCertificate(p.certType, p.owner, p.extra),
			Gateway: tb.Gateway,
		},
		Next: p.next,
	})
}

func staticSubject(subject string) func(*domain.Session) string {
	return func(*domain.Session) string { return subject }
}

func currentPartyOwner(role domain.PartyRole) func(*domain.Session) domain.OwnerRef {
	return func(s *domain.Session) domain.OwnerRef {
		return domain.OwnerRef{Role: role, Index: partyCount(s, role) - 1}
	}
}

func partyCount(s *domain.Session, role domain.PartyRole) int {
	if role == domain.RoleBuyer {
		return len(s.Buyers)
	}
	return len(s.Sellers)
}

func ordinal(n int) string {
	switch {
	case n%100 >= 11 && n%100 <= 13:
		return fmt.Sprintf("%dth", n)
	case n%10 == 1:
		return fmt.Sprintf("%dst", n)
	case n%10 == 2:
		return fmt.Sprintf("%dnd", n)
	case n%10 == 3:
		return fmt.Sprintf("%drd", n)
	default:
		return fmt.Sprintf("%dth", n)
	}
}
