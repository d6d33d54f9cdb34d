package graph

import (
	"fmt"
	"strings"

	"github.com/openrelief/surveyflow/pkg/domain"
)

// GraphOverlay contains session state to highlight on the graph.
type GraphOverlay struct {
	VisitedForms []string
	CurrentForm  string
}

// OverlayFromHistory builds an overlay where the last history entry is current.
func OverlayFromHistory(history []string) *GraphOverlay {
	if len(history) == 0 {
		return nil
	}
	return &GraphOverlay{
		VisitedForms: history,
		CurrentForm:  history[len(history)-1],
	}
}

// GenerateMermaid produces a Mermaid flowchart of the survey definition.
// Form shapes:
// - Entry: ((Circle))
// - Terminal: ([Stadium])
// - Conditional: {Rhombus}
// - Default: [Rectangle]
// Conditional cases are labeled with the answer that selects them and the fallback is
// drawn dotted. Overlay styles (visited/current) are applied if provided.
func GenerateMermaid(def *domain.Definition, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")
	if def == nil {
		return sb.String()
	}

	entry := ""
	if e := def.Entry(); e != nil {
		entry = e.ID
	}

	for _, form := range def.Forms {
		safeID := sanitizeMermaidID(form.ID)

		opener, closer := "[", "]"
		switch {
		case form.ID == entry:
			opener, closer = "((", "))"
		case form.Terminal():
			opener, closer = "([", "])"
		case form.Next.IsConditional():
			opener, closer = "{", "}"
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", safeID, opener, label(form), closer)

		if form.Next == nil {
			continue
		}

		if form.Next.IsConditional() {
			for _, value := range form.Next.SortedCases() {
				safeTo := sanitizeMermaidID(form.Next.Cases[value])
				condition := escape(fmt.Sprintf("%s = %s", form.Next.QuestionID, value))
				fmt.Fprintf(&sb, "    %s -- \"%s\" --> %s\n", safeID, condition, safeTo)
			}
			if form.Next.Default != "" {
				fmt.Fprintf(&sb, "    %s -. \"otherwise\" .-> %s\n", safeID, sanitizeMermaidID(form.Next.Default))
			}
			continue
		}

		if form.Next.Default != "" {
			fmt.Fprintf(&sb, "    %s --> %s\n", safeID, sanitizeMermaidID(form.Next.Default))
		}
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Black text keeps contrast on light fills in both themes.
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		visited := make(map[string]bool)
		for _, id := range overlay.VisitedForms {
			safeID := sanitizeMermaidID(id)
			if safeID == "" || visited[safeID] {
				continue
			}
			visited[safeID] = true
			fmt.Fprintf(&sb, "    class %s visited;\n", safeID)
		}

		if overlay.CurrentForm != "" {
			fmt.Fprintf(&sb, "    class %s current;\n", sanitizeMermaidID(overlay.CurrentForm))
		}
	}

	return sb.String()
}

func label(form domain.Form) string {
	if form.Title == "" {
		return escape(form.ID)
	}
	return escape(form.ID) + "<br/>" + escape(form.Title)
}

func escape(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}
