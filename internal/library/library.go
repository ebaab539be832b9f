// Package library supplies the texts the reader cycles through: an embedded
// anthology of public-domain French excerpts, optionally extended by a
// remote JSON feed whose response is kept in the store cache.
package library

import (
	_ "embed"
	"fmt"
	"strings"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/vicoolz/palimpseste/internal/tree"
)

//go:embed anthology.toml
var anthologyTOML []byte

// Text is one excerpt.
type Text struct {
	ID     string `toml:"id" json:"id"`
	Title  string `toml:"title" json:"title"`
	Author string `toml:"author" json:"author"`
	Genre  string `toml:"genre" json:"genre"`
	Year   int    `toml:"year" json:"year,omitempty"`
	Body   string `toml:"body" json:"body"`
}

// Tree converts t to its state representation.
func (t Text) Tree() tree.Tree {
	return tree.Tree{
		"id":     t.ID,
		"title":  t.Title,
		"author": t.Author,
		"genre":  t.Genre,
		"year":   t.Year,
		"body":   t.Body,
	}
}

// FromTree is the inverse of Text.Tree. Missing fields stay empty.
func FromTree(rec tree.Tree) Text {
	str := func(k string) string {
		s, _ := rec[k].(string)
		return s
	}
	var year int
	switch y := rec["year"].(type) {
	case int:
		year = y
	case float64:
		year = int(y)
	}
	return Text{
		ID:     str("id"),
		Title:  str("title"),
		Author: str("author"),
		Genre:  str("genre"),
		Year:   year,
		Body:   str("body"),
	}
}

// Anthology parses the embedded texts.
func Anthology() ([]Text, error) {
	return parseAnthology(anthologyTOML)
}

func parseAnthology(data []byte) ([]Text, error) {
	var doc struct {
		Texts []Text `toml:"texts"`
	}
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse anthology: %w", err)
	}
	out := make([]Text, 0, len(doc.Texts))
	seen := make(map[string]bool, len(doc.Texts))
	for _, t := range doc.Texts {
		t.ID = strings.TrimSpace(t.ID)
		if t.ID == "" || seen[t.ID] {
			return nil, fmt.Errorf("parse anthology: missing or duplicate id %q", t.ID)
		}
		seen[t.ID] = true
		t.Body = strings.TrimSpace(t.Body)
		out = append(out, t)
	}
	return out, nil
}

// Trees converts texts for TEXTS_SET.
func Trees(texts []Text) []tree.Tree {
	out := make([]tree.Tree, len(texts))
	for i, t := range texts {
		out[i] = t.Tree()
	}
	return out
}

func merge(base, extra []Text) []Text {
	seen := make(map[string]bool, len(base))
	out := make([]Text, 0, len(base)+len(extra))
	for _, t := range base {
		seen[t.ID] = true
		out = append(out, t)
	}
	for _, t := range extra {
		if t.ID == "" || seen[t.ID] {
			continue
		}
		seen[t.ID] = true
		out = append(out, t)
	}
	return out
}
