package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LACSistemas/EscriturasNew/pkg/domain"
)

func yesNo(text string) *Question {
	return &Question{Text: text, Options: []string{OptYes, OptNo}}
}

func terminal() *Question {
	return &Question{Text: "done"}
}

func buildIssues(t *testing.T, b *Builder) []string {
	t.Helper()
	_, err := b.Build()
	require.Error(t, err)
	var cfgErr *domain.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	return cfgErr.Issues
}

func TestBuild_MinimalGraph(t *testing.T) {
	def, err := NewBuilder().
		Entry("ask").
		Register(Step{
			Name:    "ask",
			Handler: yesNo("continue?"),
			Transitions: []ConditionTarget{
				{When: OptYes, To: "end"},
				{When: OptNo, To: "end"},
			},
		}).
		Register(Step{Name: "end", Handler: terminal(), Terminal: true}).
		Build()

	require.NoError(t, err)
	assert.Equal(t, "ask", def.Entry())
	assert.Equal(t, 2, def.Len())
}

func TestBuild_DuplicateStepName(t *testing.T) {
	b := NewBuilder().
		Entry("ask").
		Register(Step{Name: "ask", Handler: yesNo("?"), Next: "end"}).
		Register(Step{Name: "ask", Handler: yesNo("?"), Next: "end"}).
		Register(Step{Name: "end", Handler: terminal(), Terminal: true})

	issues := buildIssues(t, b)
	assert.Contains(t, issues, `step "ask" registered twice`)
}

func TestBuild_DanglingTarget(t *testing.T) {
	b := NewBuilder().
		Entry("ask").
		Register(Step{Name: "ask", Handler: yesNo("?"), Next: "missing"}).
		Register(Step{Name: "end", Handler: terminal(), Terminal: true})

	issues := buildIssues(t, b)
	assert.Contains(t, issues, `step "ask" targets unknown step "missing"`)
}

func TestBuild_VocabularyMismatch(t *testing.T) {
	t.Run("condition no option offers", func(t *testing.T) {
		b := NewBuilder().
			Entry("ask").
			Register(Step{
				Name:    "ask",
				Handler: yesNo("?"),
				Transitions: []ConditionTarget{
					{When: OptYes, To: "end"},
					{When: OptNo, To: "end"},
					{When: "maybe", To: "end"},
				},
			}).
			Register(Step{Name: "end", Handler: terminal(), Terminal: true})

		issues := buildIssues(t, b)
		assert.Contains(t, issues, `step "ask" checks conditions [maybe] that no option offers`)
	})

	t.Run("option with no condition", func(t *testing.T) {
		b := NewBuilder().
			Entry("ask").
			Register(Step{
				Name:    "ask",
				Handler: yesNo("?"),
				Transitions: []ConditionTarget{
					{When: OptYes, To: "end"},
				},
			}).
			Register(Step{Name: "end", Handler: terminal(), Terminal: true})

		issues := buildIssues(t, b)
		assert.Contains(t, issues, `step "ask" offers options [no] with no matching condition`)
	})
}

func TestBuild_Connectivity(t *testing.T) {
	t.Run("unreachable step", func(t *testing.T) {
		b := NewBuilder().
			Entry("ask").
			Register(Step{Name: "ask", Handler: yesNo("?"), Transitions: []ConditionTarget{
				{When: OptYes, To: "end"},
				{When: OptNo, To: "end"},
			}}).
			Register(Step{Name: "island", Handler: yesNo("?"), Next: "end"}).
			Register(Step{Name: "end", Handler: terminal(), Terminal: true})

		issues := buildIssues(t, b)
		assert.Contains(t, issues, `step "island" is unreachable from entry "ask"`)
	})

	t.Run("step that cannot reach terminal", func(t *testing.T) {
		b := NewBuilder().
			Entry("a").
			Register(Step{Name: "a", Handler: yesNo("?"), Transitions: []ConditionTarget{
				{When: OptYes, To: "end"},
				{When: OptNo, To: "loop1"},
			}}).
			Register(Step{Name: "loop1", Handler: yesNo("?"), Next: "loop2"}).
			Register(Step{Name: "loop2", Handler: yesNo("?"), Next: "loop1"}).
			Register(Step{Name: "end", Handler: terminal(), Terminal: true})

		issues := buildIssues(t, b)
		assert.Contains(t, issues, `step "loop1" cannot reach a terminal step`)
		assert.Contains(t, issues, `step "loop2" cannot reach a terminal step`)
	})
}

func TestBuild_TerminalWithOutgoing(t *testing.T) {
	b := NewBuilder().
		Entry("end").
		Register(Step{Name: "end", Handler: terminal(), Terminal: true, Next: "end"})

	issues := buildIssues(t, b)
	assert.Contains(t, issues, `terminal step "end" must not have outgoing transitions`)
}

func TestBuild_MissingEntryAndTerminal(t *testing.T) {
	issues := buildIssues(t, NewBuilder().
		Register(Step{Name: "a", Handler: yesNo("?"), Next: "a"}))

	assert.Contains(t, issues, "no entry step designated")
	assert.Contains(t, issues, "no terminal step registered")
}

func TestResolve_NoFallback(t *testing.T) {
	def, err := NewBuilder().
		Entry("ask").
		Register(Step{
			Name:    "ask",
			Handler: yesNo("?"),
			Transitions: []ConditionTarget{
				{When: OptYes, To: "end"},
				{When: OptNo, To: "end"},
			},
		}).
		Register(Step{Name: "end", Handler: terminal(), Terminal: true}).
		Build()
	require.NoError(t, err)

	step, ok := def.Step("ask")
	require.True(t, ok)

	target, ok := def.Resolve(step, OptYes)
	assert.True(t, ok)
	assert.Equal(t, "end", target)

	// Literal match only: near misses and unknown answers resolve nothing.
	_, ok = def.Resolve(step, "Yes")
	assert.False(t, ok)
	_, ok = def.Resolve(step, "")
	assert.False(t, ok)
}

func TestTransitionMap(t *testing.T) {
	def, err := NewBuilder().
		Entry("ask").
		Register(Step{
			Name:    "ask",
			Handler: yesNo("?"),
			Transitions: []ConditionTarget{
				{When: OptYes, To: "next"},
				{When: OptNo, To: "end"},
			},
		}).
		Register(Step{Name: "next", Handler: yesNo("?"), Next: "end"}).
		Register(Step{Name: "end", Handler: terminal(), Terminal: true}).
		Build()
	require.NoError(t, err)

	m := def.TransitionMap()
	assert.Len(t, m, 3)
	assert.Equal(t, []ConditionTarget{{When: OptYes, To: "next"}, {When: OptNo, To: "end"}}, m["ask"])
	assert.Equal(t, []ConditionTarget{{To: "end"}}, m["next"])
	assert.Empty(t, m["end"])
}
