package items

import (
	"fmt"
	"math/rand/v2"
	"path/filepath"
	"strings"
)

// codeChunk is how many source lines go in one code item.
const codeChunk = 12

var words = strings.Fields(`lorem ipsum dolor sit amet consectetur adipiscing
elit sed do eiusmod tempor incididunt ut labore et dolore magna aliqua ut enim
ad minim veniam quis nostrud exercitation ullamco laboris nisi aliquip ex ea
commodo consequat`)

var snippets = []struct{ name, code string }{
	{"main.go", "package main\n\nimport \"fmt\"\n\nfunc main() {\n\tfmt.Println(\"hello\")\n}"},
	{"query.sql", "SELECT id, height\nFROM items\nWHERE version > 3\nORDER BY id;"},
	{"build.sh", "#!/bin/sh\nset -e\ngo test ./...\ngo build -o vlist ."},
}

var notes = []string{
	"## Virtual lists\n\nOnly the **visible** items own a node on the surface.",
	"> Splices are applied in order, one frame at a time.\n\n- insert\n- delete\n- replace",
	"### Heights\n\nEach item reports its height once, when it is inserted. `Size()` is never called again.",
}

// Sentence returns a random run of words.
func Sentence(rng *rand.Rand, n int) string {
	out := make([]string, n)
	for i := range out {
		out[i] = words[rng.IntN(len(words))]
	}
	return strings.Join(out, " ")
}

// Demo generates n items of mixed kinds, reproducibly for a given seed.
func Demo(n, width int, seed uint64) ([]Item, error) {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	out := make([]Item, 0, n)
	if n > 0 {
		out = append(out, NewBanner(fmt.Sprintf("%d generated items", n)))
	}
	for i := 1; i < n; i++ {
		switch {
		case i%25 == 0:
			md, err := NewMarkdown(notes[rng.IntN(len(notes))], width)
			if err != nil {
				return nil, err
			}
			out = append(out, md)
		case i%17 == 0:
			s := snippets[rng.IntN(len(snippets))]
			code, err := NewCode(s.name, s.code)
			if err != nil {
				return nil, err
			}
			out = append(out, code)
		case i%10 == 0:
			out = append(out, NewTitle(fmt.Sprintf("Section %d", i/10)))
		default:
			out = append(out, NewText(fmt.Sprintf("%d. %s", i, Sentence(rng, 3+rng.IntN(24))), width))
		}
	}
	return out, nil
}

// Lines turns lines into numbered line items, the first one numbered
// first.
func Lines(first int, lines []string) []Item {
	out := make([]Item, len(lines))
	for i, line := range lines {
		out[i] = NewLine(first+i, line)
	}
	return out
}

// FromFile turns the lines of a file into items: markdown documents become
// one item per block, known source languages are highlighted in chunks and
// everything else becomes numbered lines.
func FromFile(name string, lines []string, width int) ([]Item, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".md", ".markdown":
		var out []Item
		for _, block := range SplitMarkdown(strings.Join(lines, "\n")) {
			md, err := NewMarkdown(block, width)
			if err != nil {
				return nil, err
			}
			out = append(out, md)
		}
		return out, nil
	}
	if Lexer(name) == nil {
		return Lines(1, lines), nil
	}
	var out []Item
	for start := 0; start < len(lines); start += codeChunk {
		end := min(start+codeChunk, len(lines))
		code, err := NewCode(name, strings.Join(lines[start:end], "\n"))
		if err != nil {
			return nil, err
		}
		out = append(out, code)
	}
	return out, nil
}
