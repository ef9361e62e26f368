package items

import (
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
)

// Markdown is a markdown block rendered by glamour.
type Markdown struct {
	rendered
	source string
}

var (
	renderersMu sync.Mutex
	renderers   = make(map[int]*glamour.TermRenderer)
)

// renderer returns a shared renderer for width; building one parses the
// whole style sheet.
func renderer(width int) (*glamour.TermRenderer, error) {
	renderersMu.Lock()
	defer renderersMu.Unlock()
	if r, ok := renderers[width]; ok {
		return r, nil
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create markdown renderer: %w", err)
	}
	renderers[width] = r
	return r, nil
}

// NewMarkdown renders src wrapped to width.
func NewMarkdown(src string, width int) (*Markdown, error) {
	r, err := renderer(max(10, width))
	if err != nil {
		return nil, err
	}
	renderersMu.Lock()
	out, err := r.Render(src)
	renderersMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("failed to render markdown: %w", err)
	}
	// glamour pads blocks with blank lines; the list spaces items itself.
	out = strings.Trim(out, "\n")
	return &Markdown{rendered: newRendered(src, out), source: src}, nil
}

// Source returns the markdown the item was rendered from.
func (m *Markdown) Source() string {
	return m.source
}

// SplitMarkdown splits a markdown document into blocks separated by blank
// lines, keeping fenced code blocks whole.
func SplitMarkdown(doc string) []string {
	var (
		blocks  []string
		current []string
		fenced  bool
	)
	flush := func() {
		if len(current) > 0 {
			blocks = append(blocks, strings.Join(current, "\n"))
			current = nil
		}
	}
	for _, line := range strings.Split(doc, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			fenced = !fenced
		}
		if !fenced && strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		current = append(current, line)
	}
	flush()
	return blocks
}
