// Package graph renders workflow definitions as Mermaid flowcharts.
package graph

import (
	"fmt"
	"strings"

	"github.com/LACSistemas/EscriturasNew/pkg/workflow"
)

// Overlay contains session state to visualize on the graph.
type Overlay struct {
	VisitedSteps []string
	CurrentStep  string
}

// GenerateMermaid produces a Mermaid flowchart from a workflow definition.
// Shapes are semantic:
//   - entry and terminal steps: ((Circle))
//   - file uploads: [[Subroutine]]
//   - questions and text inputs: [/Parallelogram/]
//
// An overlay, if given, highlights visited steps and the current step.
func GenerateMermaid(def *workflow.Definition, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for _, step := range def.Steps() {
		safeID := sanitizeMermaidID(step.Name)

		opener, closer := "[/", "/]"
		switch {
		case step.Name == def.Entry() || step.Terminal:
			opener, closer = "((", "))"
		default:
			if _, ok := step.Handler.(*workflow.FileUpload); ok {
				opener, closer = "[[", "]]"
			}
		}

		sb.WriteString(fmt.Sprintf("    %s%s\"%s\"%s\n", safeID, opener, step.Name, closer))

		if step.Next != "" {
			sb.WriteString(fmt.Sprintf("    %s --> %s\n", safeID, sanitizeMermaidID(step.Next)))
		}
		for _, t := range step.Transitions {
			safeCondition := strings.ReplaceAll(t.When, "\"", "'")
			sb.WriteString(fmt.Sprintf("    %s -- \"%s\" --> %s\n", safeID, safeCondition, sanitizeMermaidID(t.To)))
		}
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		visitedSet := make(map[string]bool)
		for _, name := range overlay.VisitedSteps {
			safeID := sanitizeMermaidID(name)
			if !visitedSet[safeID] && safeID != "" {
				visitedSet[safeID] = true
				sb.WriteString(fmt.Sprintf("    class %s visited;\n", safeID))
			}
		}

		if overlay.CurrentStep != "" {
			sb.WriteString(fmt.Sprintf("    class %s current;\n", sanitizeMermaidID(overlay.CurrentStep)))
		}
	}

	return sb.String()
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	return s
}
