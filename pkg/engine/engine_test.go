package engine_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LACSistemas/EscriturasNew/pkg/adapters/memory"
	"github.com/LACSistemas/EscriturasNew/pkg/domain"
	"github.com/LACSistemas/EscriturasNew/pkg/engine"
	"github.com/LACSistemas/EscriturasNew/pkg/ports"
	"github.com/LACSistemas/EscriturasNew/pkg/session"
	"github.com/LACSistemas/EscriturasNew/pkg/workflow"
)

// identityFields is what the fake gateway returns for every document.
var identityFields = map[string]string{
	"full_name":  "Maria da Silva",
	"cpf":        "52998224725",
	"birth_date": "25/12/1980",
}

func newTestEngine(t *testing.T, extractor ports.Extractor) *engine.Engine {
	t.Helper()
	if extractor == nil {
		extractor = ports.ExtractorFunc(func(context.Context, []byte, string, ports.ExtractionHint) (map[string]string, error) {
			return identityFields, nil
		})
	}
	gateway := workflow.NewGateway(extractor,
		workflow.WithRetryPolicy(workflow.RetryPolicy{Attempts: 2, InitialBackoff: time.Millisecond}),
	)
	def, err := workflow.NewDeedDefinition(workflow.Toolbox{Gateway: gateway})
	require.NoError(t, err)

	return engine.New(def, session.NewManager(memory.NewStore()))
}

// answer submits an option or text answer at the outcome's sequence.
func answer(t *testing.T, e *engine.Engine, id string, out *engine.Outcome, text string) *engine.Outcome {
	t.Helper()
	next, err := e.ProcessStep(context.Background(), id, engine.Response{
		Sequence: out.Sequence,
		Answer:   text,
	})
	require.NoError(t, err, "answering %q at step %s", text, out.Prompt.Step)
	return next
}

// upload submits a file at the outcome's sequence.
func upload(t *testing.T, e *engine.Engine, id string, out *engine.Outcome) *engine.Outcome {
	t.Helper()
	next, err := e.ProcessStep(context.Background(), id, engine.Response{
		Sequence: out.Sequence,
		FileData: []byte("%PDF-1.4 stub"),
		Filename: "document.pdf",
	})
	require.NoError(t, err, "uploading at step %s", out.Prompt.Step)
	return next
}

// runIndividualParty drives one unmarried individual through the identity
// subflow, waiving the birth record. Entry must be at the "<role>_kind" step.
func runIndividualParty(t *testing.T, e *engine.Engine, id string, out *engine.Outcome) *engine.Outcome {
	t.Helper()
	out = answer(t, e, id, out, "individual")
	out = answer(t, e, id, out, "id_card")
	out = upload(t, e, id, out)
	out = answer(t, e, id, out, "no")    // married?
	out = answer(t, e, id, out, "waive") // birth record
	return out
}

func TestEngine_FullLotInterview(t *testing.T) {
	e := newTestEngine(t, nil)
	ctx := context.Background()
	const id = "lot-1"

	out, err := e.StartSession(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "deed_type", out.Prompt.Step)
	assert.Equal(t, uint64(0), out.Sequence)

	out = answer(t, e, id, out, "lot")
	assert.Equal(t, "cert_property_tax_option", out.Prompt.Step)
	assert.Equal(t, uint64(1), out.Sequence)

	// Present the property tax certificate, waive the rest.
	out = answer(t, e, id, out, "present")
	out = upload(t, e, id, out)
	out = answer(t, e, id, out, "waive") // title deed
	out = answer(t, e, id, out, "waive") // liens
	assert.Equal(t, "buyer_kind", out.Prompt.Step)

	out = runIndividualParty(t, e, id, out)
	assert.Equal(t, "more_buyers", out.Prompt.Step)
	out = answer(t, e, id, out, "no")
	assert.Equal(t, "seller_kind", out.Prompt.Step)

	out = runIndividualParty(t, e, id, out)
	assert.Equal(t, "seller_cert_federal_clearance_option", out.Prompt.Step)
	for i := 0; i < 4; i++ {
		out = answer(t, e, id, out, "waive")
	}
	assert.Equal(t, "more_sellers", out.Prompt.Step)
	out = answer(t, e, id, out, "no")

	out = answer(t, e, id, out, "R$ 250.000,00")
	out = answer(t, e, id, out, "at_signing")
	out = answer(t, e, id, out, "bank_transfer")

	assert.True(t, out.Completed)
	assert.Equal(t, "complete", out.Prompt.Step)

	s, err := e.Snapshot(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.DeedLot, s.DeedType)
	assert.Equal(t, "250000.00", s.Answers["property_value"])
	assert.Equal(t, "at_signing", s.Answers["payment_timing"])
	assert.Equal(t, "bank_transfer", s.Answers["payment_method"])

	require.Len(t, s.Buyers, 1)
	assert.Equal(t, "Maria da Silva", s.Buyers[0].FullName)
	assert.Equal(t, "529.982.247-25", s.Buyers[0].NationalID, "extracted CPF must be checksum-validated and formatted")
	assert.Equal(t, "1980-12-25", s.Buyers[0].BirthDate, "extracted date must be normalized")
	require.Len(t, s.Sellers, 1)

	tax := s.Certificate(domain.CertPropertyTax, domain.PropertyOwner())
	require.NotNil(t, tax)
	assert.True(t, tax.Presented)

	liens := s.Certificate(domain.CertLiens, domain.PropertyOwner())
	require.NotNil(t, liens)
	assert.False(t, liens.Presented)

	for _, certType := range []domain.CertificateType{
		domain.CertFederalClearance,
		domain.CertStateClearance,
		domain.CertMunicipalClearance,
		domain.CertLaborClearance,
	} {
		assert.NotNil(t, s.Certificate(certType, domain.SellerOwner(0)), certType)
	}

	assert.Len(t, s.History, int(s.Sequence))
}

func TestEngine_RuralSubdivisionRoute(t *testing.T) {
	e := newTestEngine(t, nil)
	ctx := context.Background()
	const id = "rural-1"

	out, err := e.StartSession(ctx, id)
	require.NoError(t, err)

	out = answer(t, e, id, out, "rural")
	assert.Equal(t, "subdivision", out.Prompt.Step)
	out = answer(t, e, id, out, "yes")
	assert.Equal(t, "cert_subdivision_survey_option", out.Prompt.Step)

	// Waive the whole rural chain down to the shared tail.
	for _, want := range []string{
		"cert_subdivision_plan_option",
		"cert_rural_tax_option",
		"cert_land_registry_option",
		"cert_environmental_clearance_option",
		"cert_title_deed_option",
	} {
		out = answer(t, e, id, out, "waive")
		assert.Equal(t, want, out.Prompt.Step)
	}

	s, err := e.Snapshot(ctx, id)
	require.NoError(t, err)
	assert.True(t, s.Subdivision)
	assert.NotNil(t, s.Certificate(domain.CertSubdivisionSurvey, domain.PropertyOwner()))
}

func TestEngine_CompanyBuyerSkipsMaritalFlow(t *testing.T) {
	ctx := context.Background()
	const id = "company-1"

	companyExtractor := ports.ExtractorFunc(func(context.Context, []byte, string, ports.ExtractionHint) (map[string]string, error) {
		return map[string]string{
			"legal_name":           "Imobiliária Horizonte Ltda",
			"cnpj":                 "11222333000181",
			"legal_representative": "Carlos Pereira",
		}, nil
	})
	e := newTestEngine(t, companyExtractor)

	out, err := e.StartSession(ctx, id)
	require.NoError(t, err)
	out = answer(t, e, id, out, "lot")
	out = answer(t, e, id, out, "waive") // property tax
	out = answer(t, e, id, out, "waive") // title deed
	out = answer(t, e, id, out, "waive") // liens

	out = answer(t, e, id, out, "company")
	assert.Equal(t, "buyer_company_upload", out.Prompt.Step)
	out = upload(t, e, id, out)
	assert.Equal(t, "more_buyers", out.Prompt.Step, "companies skip the marital questions")

	s, err := e.Snapshot(ctx, id)
	require.NoError(t, err)
	require.Len(t, s.Buyers, 1)
	assert.Equal(t, domain.KindCompany, s.Buyers[0].Kind)
	assert.Equal(t, "11.222.333/0001-81", s.Buyers[0].CompanyID)
	assert.Nil(t, s.Buyers[0].Spouse)
}

func TestEngine_SequenceChecks(t *testing.T) {
	e := newTestEngine(t, nil)
	ctx := context.Background()
	const id = "seq-1"

	out, err := e.StartSession(ctx, id)
	require.NoError(t, err)
	_ = answer(t, e, id, out, "lot")

	t.Run("resubmission of an applied sequence is stale", func(t *testing.T) {
		_, err := e.ProcessStep(ctx, id, engine.Response{Sequence: 0, Answer: "lot"})
		var stale *domain.StaleRequestError
		require.ErrorAs(t, err, &stale)
		assert.Equal(t, uint64(0), stale.Got)
		assert.Equal(t, uint64(1), stale.Want)
	})

	t.Run("sequence ahead of the session is invalid", func(t *testing.T) {
		_, err := e.ProcessStep(ctx, id, engine.Response{Sequence: 5, Answer: "waive"})
		var validation *domain.ValidationError
		assert.ErrorAs(t, err, &validation)
	})

	t.Run("session state advanced exactly once", func(t *testing.T) {
		s, err := e.Snapshot(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, uint64(1), s.Sequence)
		assert.Equal(t, "cert_property_tax_option", s.CurrentStep)
	})
}

func TestEngine_InvalidAnswerLeavesStateUntouched(t *testing.T) {
	e := newTestEngine(t, nil)
	ctx := context.Background()
	const id = "invalid-1"

	out, err := e.StartSession(ctx, id)
	require.NoError(t, err)

	_, err = e.ProcessStep(ctx, id, engine.Response{Sequence: out.Sequence, Answer: "castle"})
	var validation *domain.ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Equal(t, "deed_type", validation.Step)

	s, err := e.Snapshot(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), s.Sequence)
	assert.Equal(t, "deed_type", s.CurrentStep)
	assert.Empty(t, s.History)
}

func TestEngine_ExtractionFailureLeavesStateUntouched(t *testing.T) {
	calls := 0
	failing := ports.ExtractorFunc(func(context.Context, []byte, string, ports.ExtractionHint) (map[string]string, error) {
		calls++
		return nil, errors.New("gateway down")
	})
	e := newTestEngine(t, failing)
	ctx := context.Background()
	const id = "fail-1"

	out, err := e.StartSession(ctx, id)
	require.NoError(t, err)
	out = answer(t, e, id, out, "lot")
	out = answer(t, e, id, out, "present")
	assert.Equal(t, "cert_property_tax_upload", out.Prompt.Step)

	_, err = e.ProcessStep(ctx, id, engine.Response{
		Sequence: out.Sequence,
		FileData: []byte("doc"),
		Filename: "doc.pdf",
	})
	var extraction *domain.ExtractionError
	require.ErrorAs(t, err, &extraction)
	assert.Equal(t, 2, extraction.Attempts, "the full retry budget is spent before giving up")
	assert.Equal(t, 2, calls)

	s, err := e.Snapshot(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "cert_property_tax_upload", s.CurrentStep)
	assert.Nil(t, s.Certificate(domain.CertPropertyTax, domain.PropertyOwner()))

	// The same step accepts a resubmission once the gateway recovers.
	prompt, err := e.Prompt(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, s.Sequence, prompt.Sequence)
}

func TestEngine_UploadWithoutFileRejected(t *testing.T) {
	e := newTestEngine(t, nil)
	ctx := context.Background()
	const id = "nofile-1"

	out, err := e.StartSession(ctx, id)
	require.NoError(t, err)
	out = answer(t, e, id, out, "lot")
	out = answer(t, e, id, out, "present")

	_, err = e.ProcessStep(ctx, id, engine.Response{Sequence: out.Sequence, Answer: "present"})
	var validation *domain.ValidationError
	assert.ErrorAs(t, err, &validation)
}

func TestEngine_ResetDiscardsInFlightExtraction(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	blocking := ports.ExtractorFunc(func(ctx context.Context, _ []byte, _ string, _ ports.ExtractionHint) (map[string]string, error) {
		close(started)
		<-release
		return identityFields, nil
	})
	e := newTestEngine(t, blocking)
	ctx := context.Background()
	const id = "reset-1"

	out, err := e.StartSession(ctx, id)
	require.NoError(t, err)
	out = answer(t, e, id, out, "lot")
	out = answer(t, e, id, out, "present")

	result := make(chan error, 1)
	go func() {
		_, err := e.ProcessStep(ctx, id, engine.Response{
			Sequence: out.Sequence,
			FileData: []byte("doc"),
			Filename: "doc.pdf",
		})
		result <- err
	}()

	// Reset while the gateway call is in flight. The extraction must be
	// dropped when it returns, not merged into the fresh interview.
	<-started
	fresh, err := e.Reset(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "deed_type", fresh.Prompt.Step)
	close(release)

	var stale *domain.StaleRequestError
	require.ErrorAs(t, <-result, &stale)

	s, err := e.Snapshot(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "deed_type", s.CurrentStep)
	assert.Equal(t, uint64(1), s.Generation)
	assert.Empty(t, s.Certificates)
}

func TestEngine_TerminalRejectsFurtherInput(t *testing.T) {
	e := newTestEngine(t, nil)
	ctx := context.Background()
	const id = "done-1"

	out, err := e.StartSession(ctx, id)
	require.NoError(t, err)
	out = answer(t, e, id, out, "lot")
	out = answer(t, e, id, out, "waive")
	out = answer(t, e, id, out, "waive")
	out = answer(t, e, id, out, "waive")
	out = runIndividualParty(t, e, id, out)
	out = answer(t, e, id, out, "no")
	out = runIndividualParty(t, e, id, out)
	for i := 0; i < 4; i++ {
		out = answer(t, e, id, out, "waive")
	}
	out = answer(t, e, id, out, "no")
	out = answer(t, e, id, out, "R$ 100.000,00")
	out = answer(t, e, id, out, "previously_settled")
	out = answer(t, e, id, out, "cash")
	require.True(t, out.Completed)

	_, err = e.ProcessStep(ctx, id, engine.Response{Sequence: out.Sequence, Answer: "yes"})
	var validation *domain.ValidationError
	assert.ErrorAs(t, err, &validation)
}

func TestEngine_StartSessionResumes(t *testing.T) {
	e := newTestEngine(t, nil)
	ctx := context.Background()
	const id = "resume-1"

	out, err := e.StartSession(ctx, id)
	require.NoError(t, err)
	out = answer(t, e, id, out, "rural")

	resumed, err := e.StartSession(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "subdivision", resumed.Prompt.Step)
	assert.Equal(t, out.Sequence, resumed.Sequence)
}

func TestEngine_SpouseFlow(t *testing.T) {
	e := newTestEngine(t, nil)
	ctx := context.Background()
	const id = "spouse-1"

	out, err := e.StartSession(ctx, id)
	require.NoError(t, err)
	out = answer(t, e, id, out, "lot")
	out = answer(t, e, id, out, "waive")
	out = answer(t, e, id, out, "waive")
	out = answer(t, e, id, out, "waive")

	out = answer(t, e, id, out, "individual")
	out = answer(t, e, id, out, "id_card")
	out = upload(t, e, id, out)
	out = answer(t, e, id, out, "yes") // married
	assert.Equal(t, "buyer_marriage_record_option", out.Prompt.Step)
	out = answer(t, e, id, out, "present")
	out = upload(t, e, id, out)
	assert.Equal(t, "buyer_spouse_signs", out.Prompt.Step)
	out = answer(t, e, id, out, "yes")
	out = answer(t, e, id, out, "work_card")
	out = upload(t, e, id, out)
	assert.Equal(t, "more_buyers", out.Prompt.Step)

	s, err := e.Snapshot(ctx, id)
	require.NoError(t, err)
	require.Len(t, s.Buyers, 1)
	buyer := s.Buyers[0]
	assert.True(t, buyer.Married)
	require.NotNil(t, buyer.Spouse)
	assert.True(t, buyer.Spouse.Signs)
	assert.Equal(t, domain.DocWorkCard, buyer.Spouse.DocumentKind)
	assert.NotNil(t, s.Certificate(domain.CertMarriageRecord, domain.BuyerOwner(0)))
}
