package escrituras_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	escrituras "github.com/LACSistemas/EscriturasNew"
	"github.com/LACSistemas/EscriturasNew/pkg/adapters/extraction"
	"github.com/LACSistemas/EscriturasNew/pkg/engine"
)

func TestNew_DefaultsWork(t *testing.T) {
	interview, err := escrituras.New()
	require.NoError(t, err)

	ctx := context.Background()
	out, err := interview.Start(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "deed_type", out.Prompt.Step)
	assert.False(t, out.Completed)

	out, err = interview.Submit(ctx, "s1", engine.Response{Sequence: 0, Answer: "apartment"})
	require.NoError(t, err)
	assert.Equal(t, "cert_condominium_option", out.Prompt.Step)

	ids, err := interview.Sessions(ctx)
	require.NoError(t, err)
	assert.Contains(t, ids, "s1")

	out, err = interview.Reset(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "deed_type", out.Prompt.Step)

	s, err := interview.Snapshot(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), s.Generation)

	require.NoError(t, interview.Delete(ctx, "s1"))
}

func TestInterview_WithExtractor(t *testing.T) {
	interview, err := escrituras.New(
		escrituras.WithExtractor(&extraction.Static{Fields: map[string]string{
			"full_name": "Maria da Silva",
			"cpf":       "52998224725",
		}}),
	)
	require.NoError(t, err)

	ctx := context.Background()
	out, err := interview.Start(ctx, "s1")
	require.NoError(t, err)

	for _, a := range []string{"lot", "waive", "waive", "waive", "individual", "id_card"} {
		out, err = interview.Submit(ctx, "s1", engine.Response{Sequence: out.Sequence, Answer: a})
		require.NoError(t, err, "answer %q", a)
	}
	assert.Equal(t, "buyer_document_upload", out.Prompt.Step)

	out, err = interview.Submit(ctx, "s1", engine.Response{
		Sequence: out.Sequence,
		FileData: []byte("%PDF-1.4 stub"),
		Filename: "id.pdf",
	})
	require.NoError(t, err)
	assert.Equal(t, "buyer_married", out.Prompt.Step)

	s, err := interview.Snapshot(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, s.Buyers, 1)
	assert.Equal(t, "529.982.247-25", s.Buyers[0].NationalID)
}

func TestInterview_HandlerExposesMetrics(t *testing.T) {
	interview, err := escrituras.New(escrituras.WithMetrics())
	require.NoError(t, err)

	srv := httptest.NewServer(interview.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestInterview_DefinitionIntrospection(t *testing.T) {
	interview, err := escrituras.New()
	require.NoError(t, err)

	def := interview.Definition()
	assert.Equal(t, "deed_type", def.Entry())
	assert.NotEmpty(t, def.TransitionMap())
}
