package workflow

import (
	"fmt"
	"time"

	"github.com/LACSistemas/EscriturasNew/pkg/domain"
	"github.com/mitchellh/mapstructure"
)

// Canonical field keys produced by the extraction templates. The sanitizer
// has already normalized IDs, dates, and amounts by the time these are
// decoded.
type individualFields struct {
	FullName       string `mapstructure:"full_name"`
	BirthDate      string `mapstructure:"birth_date"`
	NationalID     string `mapstructure:"cpf"`
	Gender         string `mapstructure:"gender"`
	LicenseNumber  string `mapstructure:"license_number"`
	LicenseIssuer  string `mapstructure:"license_issuer"`
	WorkCardNumber string `mapstructure:"work_card_number"`
	WorkCardSeries string `mapstructure:"work_card_series"`
}

type companyFields struct {
	LegalName           string `mapstructure:"legal_name"`
	CompanyID           string `mapstructure:"cnpj"`
	Address             string `mapstructure:"address"`
	LegalRepresentative string `mapstructure:"legal_representative"`
}

type marriageFields struct {
	SpouseFullName string `mapstructure:"spouse_full_name"`
	MarriageDate   string `mapstructure:"marriage_date"`
	PropertyRegime string `mapstructure:"property_regime"`
}

func decodeFields(fields map[string]string, out any) error {
	if err := mapstructure.Decode(fields, out); err != nil {
		return fmt.Errorf("decode extracted fields: %w", err)
	}
	return nil
}

func setIfPresent(dst *string, src string) {
	if src != "" {
		*dst = src
	}
}

// mergePartyIdentity merges individual identity fields into the party of the
// given role currently being assembled.
func mergePartyIdentity(role domain.PartyRole) MergeFunc {
	return func(s *domain.Session, fields map[string]string) error {
		party := s.CurrentParty(role)
		if party == nil {
			return fmt.Errorf("no %s to merge identity into", role)
		}
		var f individualFields
		if err := decodeFields(fields, &f); err != nil {
			return err
		}
		setIfPresent(&party.FullName, f.FullName)
		setIfPresent(&party.BirthDate, f.BirthDate)
		setIfPresent(&party.NationalID, f.NationalID)
		setIfPresent(&party.Gender, f.Gender)
		setIfPresent(&party.LicenseNumber, f.LicenseNumber)
		setIfPresent(&party.LicenseIssuer, f.LicenseIssuer)
		setIfPresent(&party.WorkCardNumber, f.WorkCardNumber)
		setIfPresent(&party.WorkCardSeries, f.WorkCardSeries)
		return nil
	}
}

// mergeCompanyIdentity merges company registration fields into the party of
// the given role currently being assembled.
func mergeCompanyIdentity(role domain.PartyRole) MergeFunc {
	return func(s *domain.Session, fields map[string]string) error {
		party := s.CurrentParty(role)
		if party == nil {
			return fmt.Errorf("no %s to merge company data into", role)
		}
		var f companyFields
		if err := decodeFields(fields, &f); err != nil {
			return err
		}
		setIfPresent(&party.LegalName, f.LegalName)
		setIfPresent(&party.CompanyID, f.CompanyID)
		setIfPresent(&party.Address, f.Address)
		setIfPresent(&party.LegalRepresentative, f.LegalRepresentative)
		return nil
	}
}

// mergeSpouseIdentity merges identity fields into the spouse sub-record of
// the party currently being assembled, creating it if needed.
func mergeSpouseIdentity(role domain.PartyRole) MergeFunc {
	return func(s *domain.Session, fields map[string]string) error {
		party := s.CurrentParty(role)
		if party == nil {
			return fmt.Errorf("no %s to merge spouse data into", role)
		}
		if party.Spouse == nil {
			party.Spouse = &domain.Spouse{}
		}
		var f individualFields
		if err := decodeFields(fields, &f); err != nil {
			return err
		}
		setIfPresent(&party.Spouse.FullName, f.FullName)
		setIfPresent(&party.Spouse.BirthDate, f.BirthDate)
		setIfPresent(&party.Spouse.NationalID, f.NationalID)
		return nil
	}
}

// mergeMarriageRecord copies the marriage facts a marriage certificate
// contributes onto the party itself, in addition to the certificate entry.
func mergeMarriageRecord(role domain.PartyRole) MergeFunc {
	return func(s *domain.Session, fields map[string]string) error {
		party := s.CurrentParty(role)
		if party == nil {
			return fmt.Errorf("no %s to merge marriage record into", role)
		}
		var f marriageFields
		if err := decodeFields(fields, &f); err != nil {
			return err
		}
		setIfPresent(&party.MarriageDate, f.MarriageDate)
		setIfPresent(&party.PropertyRegime, f.PropertyRegime)
		if f.SpouseFullName != "" {
			if party.Spouse == nil {
				party.Spouse = &domain.Spouse{}
			}
			party.Spouse.FullName = f.SpouseFullName
		}
		return nil
	}
}

// mergeCertificate records a presented certificate with its extracted
// fields. The (type, owner) pair must be unique within the session.
func mergeCertificate(certType domain.CertificateType, owner func(*domain.Session) domain.OwnerRef, extra MergeFunc) MergeFunc {
	return func(s *domain.Session, fields map[string]string) error {
		if err := s.AddCertificate(domain.Certificate{
			Type:       certType,
			Owner:      owner(s),
			Presented:  true,
			Fields:     fields,
			UploadedAt: time.Now().UTC(),
		}); err != nil {
			return err
		}
		if extra != nil {
			return extra(s, fields)
		}
		return nil
	}
}

// waiveCertificate records a waived certificate: the entry still exists, so
// downstream completeness checks see every applicable type, but it carries
// no extracted data.
func waiveCertificate(certType domain.CertificateType, owner func(*domain.Session) domain.OwnerRef) ApplyFunc {
	return func(s *domain.Session, _ string) error {
		return s.AddCertificate(domain.Certificate{
			Type:      certType,
			Owner:     owner(s),
			Presented: false,
		})
	}
}
