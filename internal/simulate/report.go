package simulate

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"charm.land/lipgloss/v2"
	"gopkg.in/yaml.v3"
)

// ErrFormat is returned for unknown report formats.
var ErrFormat = errors.New("unknown report format")

// Formats lists the accepted report formats.
var Formats = []string{"text", "json", "yaml"}

var (
	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF60FF"))
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#858392")).Width(16)
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#12C78F"))
	failStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#EB4268"))
)

// Write renders r in format.
func (r *Report) Write(w io.Writer, format string) error {
	switch format {
	case "text", "":
		_, err := io.WriteString(w, r.text())
		return err
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("%w %q, use one of %s", ErrFormat, format, strings.Join(Formats, ", "))
	}
}

func (r *Report) text() string {
	var b strings.Builder
	row := func(label string, value any) {
		fmt.Fprintf(&b, "%s%v\n", labelStyle.Render(label), value)
	}

	b.WriteString(headingStyle.Render("Simulation") + "\n")
	row("seed", r.Seed)
	row("steps", r.Steps)
	row("frames", r.Frames)
	row("splices", r.Splices)
	row("scrolls", r.Scrolls)
	row("resizes", r.Resizes)
	row("items", r.Items)
	row("content height", r.ContentHeight)
	row("window", fmt.Sprintf("[%d, %d)", r.WindowStart, r.WindowEnd))
	row("elapsed", r.Elapsed)

	b.WriteString("\n" + headingStyle.Render("Reconciler") + "\n")
	row("created", r.Window.Created)
	row("destroyed", r.Window.Destroyed)
	row("reused", r.Window.Reused)
	row("rendered", r.Window.Rendered)
	row("repositioned", r.Window.Repositioned)
	row("retained", r.Window.Retained)
	row("teardowns", r.Window.Teardowns)

	b.WriteString("\n" + headingStyle.Render("Surface") + "\n")
	row("inserted", r.Surface.Inserted)
	row("replaced", r.Surface.Replaced)
	row("unchanged", r.Surface.Unchanged)
	row("removed", r.Surface.Removed)

	b.WriteString("\n")
	if len(r.Violations) == 0 {
		b.WriteString(okStyle.Render("all invariants held") + "\n")
		return b.String()
	}
	b.WriteString(failStyle.Render(fmt.Sprintf("%d violations", len(r.Violations))) + "\n")
	for _, v := range r.Violations {
		b.WriteString("  " + v + "\n")
	}
	return b.String()
}
