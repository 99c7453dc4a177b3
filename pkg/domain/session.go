package domain

import (
	"fmt"
	"time"
)

// DeedType is the answer to the opening question of the interview.
type DeedType string

const (
	DeedLot       DeedType = "lot"
	DeedApartment DeedType = "apartment"
	DeedRural     DeedType = "rural"
)

// HistoryEntry records one applied step. Response holds a short summary
// (an option literal, normalized text, or an uploaded filename), never raw
// file bytes.
type HistoryEntry struct {
	Step     string    `json:"step"`
	Response string    `json:"response"`
	At       time.Time `json:"at"`
}

// Session is the full snapshot of one interview. All mutation goes through
// the engine; stores and adapters treat it as an opaque value.
type Session struct {
	ID          string `json:"id"`
	CurrentStep string `json:"current_step"`

	// Sequence strictly increases with every applied transition. A response
	// must carry the sequence it was rendered against; anything older is
	// rejected as stale.
	Sequence uint64 `json:"sequence"`

	// Generation increments on reset. Extraction results that come back for
	// an older generation are discarded.
	Generation uint64 `json:"generation"`

	CreatedAt time.Time `json:"created_at"`

	DeedType    DeedType `json:"deed_type,omitempty"`
	Subdivision bool     `json:"subdivision"`

	Buyers  []Party `json:"buyers,omitempty"`
	Sellers []Party `json:"sellers,omitempty"`

	Certificates []Certificate `json:"certificates,omitempty"`

	// Answers collects free-form question and text responses by key.
	Answers map[string]string `json:"answers,omitempty"`

	History []HistoryEntry `json:"history,omitempty"`
}

// NewSession creates a fresh session positioned at the given entry step.
func NewSession(id, entryStep string) *Session {
	return &Session{
		ID:          id,
		CurrentStep: entryStep,
		CreatedAt:   time.Now().UTC(),
		Answers:     make(map[string]string),
	}
}

// Clone returns a deep copy. The engine works on a clone so a failed step
// never leaves partial mutations behind.
func (s *Session) Clone() *Session {
	out := *s
	out.Buyers = make([]Party, len(s.Buyers))
	for i := range s.Buyers {
		out.Buyers[i] = s.Buyers[i].Clone()
	}
	out.Sellers = make([]Party, len(s.Sellers))
	for i := range s.Sellers {
		out.Sellers[i] = s.Sellers[i].Clone()
	}
	out.Certificates = make([]Certificate, len(s.Certificates))
	for i, c := range s.Certificates {
		cc := c
		cc.Fields = cloneFields(c.Fields)
		out.Certificates[i] = cc
	}
	out.Answers = make(map[string]string, len(s.Answers))
	for k, v := range s.Answers {
		out.Answers[k] = v
	}
	out.History = append([]HistoryEntry(nil), s.History...)
	return &out
}

func cloneFields(in map[string]string) map[string]string {
	if in == nil {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// CurrentBuyer returns the buyer currently being assembled (the last one).
func (s *Session) CurrentBuyer() *Party {
	if len(s.Buyers) == 0 {
		return nil
	}
	return &s.Buyers[len(s.Buyers)-1]
}

// CurrentSeller returns the seller currently being assembled (the last one).
func (s *Session) CurrentSeller() *Party {
	if len(s.Sellers) == 0 {
		return nil
	}
	return &s.Sellers[len(s.Sellers)-1]
}

// CurrentParty returns the party of the given role currently being assembled.
func (s *Session) CurrentParty(role PartyRole) *Party {
	if role == RoleBuyer {
		return s.CurrentBuyer()
	}
	return s.CurrentSeller()
}

// Certificate looks up a certificate by (type, owner).
func (s *Session) Certificate(t CertificateType, owner OwnerRef) *Certificate {
	for i := range s.Certificates {
		if s.Certificates[i].Type == t && s.Certificates[i].Owner == owner {
			return &s.Certificates[i]
		}
	}
	return nil
}

// AddCertificate appends a certificate, enforcing (type, owner) uniqueness.
func (s *Session) AddCertificate(cert Certificate) error {
	if existing := s.Certificate(cert.Type, cert.Owner); existing != nil {
		return fmt.Errorf("duplicate certificate %s for owner %+v", cert.Type, cert.Owner)
	}
	s.Certificates = append(s.Certificates, cert)
	return nil
}

// Record appends a history entry for an applied step.
func (s *Session) Record(step, response string, at time.Time) {
	s.History = append(s.History, HistoryEntry{Step: step, Response: response, At: at})
}
