package graph_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LACSistemas/EscriturasNew/internal/presentation/graph"
	"github.com/LACSistemas/EscriturasNew/pkg/workflow"
)

func buildDefinition(t *testing.T) *workflow.Definition {
	t.Helper()
	def, err := workflow.NewDeedDefinition(workflow.Toolbox{Gateway: workflow.NewGateway(nil)})
	require.NoError(t, err)
	return def
}

func TestGenerateMermaid(t *testing.T) {
	def := buildDefinition(t)
	out := graph.GenerateMermaid(def, nil)

	assert.True(t, strings.HasPrefix(out, "graph TD\n"))

	// Entry and terminal render as circles.
	assert.Contains(t, out, `deed_type(("deed_type"))`)
	assert.Contains(t, out, `complete(("complete"))`)

	// Questions render as parallelograms, uploads as subroutines.
	assert.Contains(t, out, `subdivision[/"subdivision"/]`)
	assert.Contains(t, out, `cert_liens_upload[["cert_liens_upload"]]`)

	// Conditional and unconditional edges.
	assert.Contains(t, out, `deed_type -- "rural" --> subdivision`)
	assert.Contains(t, out, `payment_method --> complete`)
}

func TestGenerateMermaid_Overlay(t *testing.T) {
	def := buildDefinition(t)
	out := graph.GenerateMermaid(def, &graph.Overlay{
		VisitedSteps: []string{"deed_type", "subdivision", "deed_type"},
		CurrentStep:  "cert_rural_tax_option",
	})

	assert.Contains(t, out, "class deed_type visited;")
	assert.Contains(t, out, "class subdivision visited;")
	assert.Contains(t, out, "class cert_rural_tax_option current;")
	// Duplicated history entries are styled once.
	assert.Equal(t, 1, strings.Count(out, "class deed_type visited;"))
}
