package items

import (
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/MakeNowJust/heredoc"
)

var bannerArt = heredoc.Doc(`
    ▄▄▄▄▄▄▄▄    ▄▄▄▄▄▄▄▄
  ███████████  ███████████
████████████████████████████
██████████▀██████▀██████████
▀▀██████▄████▄▄████▄██████▀▀
    ████████████████████
       ▀▀██████████▀▀
`)

var (
	bannerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF388B")).
			PaddingLeft(2)
	captionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#BFBCC8")).
			Italic(true).
			PaddingLeft(2)
)

// Banner is the art shown at the top of generated lists.
type Banner struct {
	rendered
}

// NewBanner renders the banner art followed by caption.
func NewBanner(caption string) *Banner {
	art := strings.TrimRight(bannerArt, "\n")
	view := lipgloss.JoinVertical(lipgloss.Left,
		bannerStyle.Render(art),
		captionStyle.Render(caption),
	)
	return &Banner{rendered: newRendered(caption, view)}
}
