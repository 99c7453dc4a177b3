package workflow

import (
	"fmt"
	"sort"

	"github.com/LACSistemas/EscriturasNew/pkg/domain"
)

// ConditionTarget is one conditional transition: if the raw response equals
// When, the interview moves to To. Conditions are evaluated in registration
// order, first match wins, with no implicit fallback.
type ConditionTarget struct {
	When string `json:"when,omitempty"`
	To   string `json:"to"`
}

// Step binds a named node of the graph to a handler and a transition rule.
// Exactly one of Next (unconditional) or Transitions (conditional) is set,
// except on the terminal step, which has neither.
type Step struct {
	Name        string
	Handler     Handler
	Next        string
	Transitions []ConditionTarget
	Terminal    bool
}

// Builder accumulates step registrations. Call Build exactly once; the
// resulting Definition is immutable and safe to share across all sessions.
type Builder struct {
	steps  []Step
	byName map[string]int
	entry  string
	issues []string
}

// NewBuilder creates an empty workflow builder.
func NewBuilder() *Builder {
	return &Builder{byName: make(map[string]int)}
}

// Entry designates the initial step.
func (b *Builder) Entry(name string) *Builder {
	b.entry = name
	return b
}

// Register adds one step. Duplicate names are recorded and reported by Build.
func (b *Builder) Register(s Step) *Builder {
	if s.Name == "" {
		b.issues = append(b.issues, "step registered with empty name")
		return b
	}
	if _, exists := b.byName[s.Name]; exists {
		b.issues = append(b.issues, fmt.Sprintf("step %q registered twice", s.Name))
		return b
	}
	b.byName[s.Name] = len(b.steps)
	b.steps = append(b.steps, s)
	return b
}

// Build finalizes the graph. It returns a ConfigurationError listing every
// inconsistency found: dangling targets, duplicate names, steps that are
// neither terminal nor routed, option/condition vocabulary mismatches,
// unreachable steps, and steps from which the terminal step cannot be
// reached.
func (b *Builder) Build() (*Definition, error) {
	issues := append([]string(nil), b.issues...)

	if b.entry == "" {
		issues = append(issues, "no entry step designated")
	} else if _, ok := b.byName[b.entry]; !ok {
		issues = append(issues, fmt.Sprintf("entry step %q is not registered", b.entry))
	}

	terminals := 0
	for _, s := range b.steps {
		issues = append(issues, b.checkStep(s)...)
		if s.Terminal {
			terminals++
		}
	}
	if terminals == 0 && len(b.steps) > 0 {
		issues = append(issues, "no terminal step registered")
	}

	if len(issues) == 0 {
		issues = append(issues, b.checkConnectivity()...)
	}

	if len(issues) > 0 {
		return nil, &domain.ConfigurationError{Issues: issues}
	}

	def := &Definition{
		steps: make(map[string]Step, len(b.steps)),
		order: make([]string, 0, len(b.steps)),
		entry: b.entry,
	}
	for _, s := range b.steps {
		def.steps[s.Name] = s
		def.order = append(def.order, s.Name)
	}
	return def, nil
}

func (b *Builder) checkStep(s Step) []string {
	var issues []string

	if s.Handler == nil {
		issues = append(issues, fmt.Sprintf("step %q has no handler", s.Name))
		return issues
	}

	if s.Terminal {
		if s.Next != "" || len(s.Transitions) > 0 {
			issues = append(issues, fmt.Sprintf("terminal step %q must not have outgoing transitions", s.Name))
		}
		return issues
	}

	switch {
	case s.Next != "" && len(s.Transitions) > 0:
		issues = append(issues, fmt.Sprintf("step %q has both an unconditional target and conditional transitions", s.Name))
	case s.Next == "" && len(s.Transitions) == 0:
		issues = append(issues, fmt.Sprintf("step %q has no outgoing transition", s.Name))
	}

	if s.Next != "" {
		if _, ok := b.byName[s.Next]; !ok {
			issues = append(issues, fmt.Sprintf("step %q targets unknown step %q", s.Name, s.Next))
		}
	}

	seen := make(map[string]bool, len(s.Transitions))
	for _, ct := range s.Transitions {
		if ct.When == "" {
			issues = append(issues, fmt.Sprintf("step %q has a transition with an empty condition", s.Name))
		}
		if seen[ct.When] {
			issues = append(issues, fmt.Sprintf("step %q checks condition %q twice", s.Name, ct.When))
		}
		seen[ct.When] = true
		if _, ok := b.byName[ct.To]; !ok {
			issues = append(issues, fmt.Sprintf("step %q targets unknown step %q on %q", s.Name, ct.To, ct.When))
		}
	}

	issues = append(issues, checkVocabulary(s)...)
	return issues
}

// checkVocabulary enforces that the literals a step offers are exactly the
// literals its outgoing conditions expect. Shipping a mismatch would not
// fail at runtime validation; it would strand the response in a
// TransitionError, so it must be impossible to build.
func checkVocabulary(s Step) []string {
	var issues []string
	options := s.Handler.OptionSet()

	if len(s.Transitions) == 0 {
		return nil
	}
	if len(options) == 0 {
		issues = append(issues, fmt.Sprintf(
			"step %q branches on conditions but offers no closed option set", s.Name))
		return issues
	}

	offered := make(map[string]bool, len(options))
	for _, opt := range options {
		offered[opt] = true
	}
	checked := make(map[string]bool, len(s.Transitions))
	for _, ct := range s.Transitions {
		checked[ct.When] = true
	}

	var missing, extra []string
	for _, opt := range options {
		if !checked[opt] {
			missing = append(missing, opt)
		}
	}
	for _, ct := range s.Transitions {
		if !offered[ct.When] {
			extra = append(extra, ct.When)
		}
	}
	sort.Strings(missing)
	sort.Strings(extra)

	if len(missing) > 0 {
		issues = append(issues, fmt.Sprintf(
			"step %q offers options %v with no matching condition", s.Name, missing))
	}
	if len(extra) > 0 {
		issues = append(issues, fmt.Sprintf(
			"step %q checks conditions %v that no option offers", s.Name, extra))
	}
	return issues
}

// checkConnectivity verifies every step is reachable from the entry and can
// still reach a terminal step.
func (b *Builder) checkConnectivity() []string {
	var issues []string

	forward := make(map[string][]string, len(b.steps))
	reverse := make(map[string][]string, len(b.steps))
	for _, s := range b.steps {
		var targets []string
		if s.Next != "" {
			targets = append(targets, s.Next)
		}
		for _, ct := range s.Transitions {
			targets = append(targets, ct.To)
		}
		forward[s.Name] = targets
		for _, to := range targets {
			reverse[to] = append(reverse[to], s.Name)
		}
	}

	reached := bfs([]string{b.entry}, forward)
	var terminals []string
	for _, s := range b.steps {
		if s.Terminal {
			terminals = append(terminals, s.Name)
		}
	}
	reaching := bfs(terminals, reverse)

	for _, s := range b.steps {
		if !reached[s.Name] {
			issues = append(issues, fmt.Sprintf("step %q is unreachable from entry %q", s.Name, b.entry))
		}
		if !reaching[s.Name] {
			issues = append(issues, fmt.Sprintf("step %q cannot reach a terminal step", s.Name))
		}
	}
	return issues
}

func bfs(roots []string, edges map[string][]string) map[string]bool {
	visited := make(map[string]bool)
	queue := append([]string(nil), roots...)
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if visited[cur] {
			continue
		}
		visited[cur] = true
		queue = append(queue, edges[cur]...)
	}
	return visited
}

// Definition is the finalized, immutable interview graph.
type Definition struct {
	steps map[string]Step
	order []string
	entry string
}

// Entry returns the designated initial step name.
func (d *Definition) Entry() string { return d.entry }

// Step looks up a step by name.
func (d *Definition) Step(name string) (Step, bool) {
	s, ok := d.steps[name]
	return s, ok
}

// Len returns the number of registered steps.
func (d *Definition) Len() int { return len(d.order) }

// Steps returns all steps in registration order.
func (d *Definition) Steps() []Step {
	out := make([]Step, 0, len(d.order))
	for _, name := range d.order {
		out = append(out, d.steps[name])
	}
	return out
}

// Resolve evaluates a step's transition rule against the raw response.
// Returns false when no condition matched, which the engine surfaces as a
// TransitionError.
func (d *Definition) Resolve(s Step, answer string) (string, bool) {
	if s.Terminal {
		return "", false
	}
	if s.Next != "" {
		return s.Next, true
	}
	for _, ct := range s.Transitions {
		if ct.When == answer {
			return ct.To, true
		}
	}
	return "", false
}

// TransitionMap exposes the built graph for external tooling (admin views,
// documentation generators). Unconditional targets are reported with an
// empty condition label. The map is rebuilt on every call so callers can
// never observe a stale or partial copy.
func (d *Definition) TransitionMap() map[string][]ConditionTarget {
	out := make(map[string][]ConditionTarget, len(d.steps))
	for name, s := range d.steps {
		var targets []ConditionTarget
		if s.Next != "" {
			targets = append(targets, ConditionTarget{To: s.Next})
		}
		targets = append(targets, append([]ConditionTarget(nil), s.Transitions...)...)
		out[name] = targets
	}
	return out
}
