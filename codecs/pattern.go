package codecs

import (
	"fmt"
	"sort"

	"github.com/INLOpen/foldvault/core"
)

const (
	// patternEscape introduces a two-byte token: escape + vocabulary
	// index, or escape + patternLiteral for a literal escape byte. The
	// escaping makes the token alphabet safe over arbitrary binary input.
	patternEscape  = 0xF6
	patternLiteral = 0xFF
	// patternMaxVocab bounds the index byte below the literal marker.
	patternMaxVocab = 0xF0
	// patternMinLen: shorter entries cannot beat the two-byte token.
	patternMinLen = 3
)

// PatternCodec substitutes frequent multi-byte sequences with two-byte
// tokens drawn from a seed vocabulary. The vocabulary is configuration:
// compress and decompress must run with the same entries, exactly like a
// preset dictionary. DefaultVocabulary is the documented default.
type PatternCodec struct {
	vocab []string
	// byFirst indexes vocabulary entries by their first byte, longest
	// first, for deterministic greedy matching.
	byFirst [256][]int
}

var _ core.Codec = (*PatternCodec)(nil)

// NewPatternCodec builds a codec over the given vocabulary. Entries
// shorter than three bytes, containing the escape byte, duplicated, or
// beyond the index capacity are dropped, in order, deterministically.
func NewPatternCodec(vocab []string) *PatternCodec {
	c := &PatternCodec{}
	seen := make(map[string]bool, len(vocab))
	for _, entry := range vocab {
		if len(c.vocab) >= patternMaxVocab {
			break
		}
		if len(entry) < patternMinLen || seen[entry] {
			continue
		}
		clean := true
		for i := 0; i < len(entry); i++ {
			if entry[i] == patternEscape {
				clean = false
				break
			}
		}
		if !clean {
			continue
		}
		seen[entry] = true
		c.vocab = append(c.vocab, entry)
	}
	for idx, entry := range c.vocab {
		first := entry[0]
		c.byFirst[first] = append(c.byFirst[first], idx)
	}
	for b := 0; b < 256; b++ {
		list := c.byFirst[b]
		sort.Slice(list, func(i, j int) bool {
			li, lj := len(c.vocab[list[i]]), len(c.vocab[list[j]])
			if li != lj {
				return li > lj
			}
			return c.vocab[list[i]] < c.vocab[list[j]]
		})
	}
	return c
}

func (c *PatternCodec) Encode(data []byte) ([]byte, error) {
	out := make([]byte, 0, len(data))
	i := 0
	for i < len(data) {
		b := data[i]
		if b == patternEscape {
			out = append(out, patternEscape, patternLiteral)
			i++
			continue
		}
		matched := false
		for _, idx := range c.byFirst[b] {
			entry := c.vocab[idx]
			if i+len(entry) <= len(data) && string(data[i:i+len(entry)]) == entry {
				out = append(out, patternEscape, byte(idx))
				i += len(entry)
				matched = true
				break
			}
		}
		if !matched {
			out = append(out, b)
			i++
		}
	}
	return out, nil
}

func (c *PatternCodec) Decode(data []byte) ([]byte, error) {
	out := make([]byte, 0, len(data)*2)
	i := 0
	for i < len(data) {
		b := data[i]
		if b != patternEscape {
			out = append(out, b)
			i++
			continue
		}
		if i+1 >= len(data) {
			return nil, fmt.Errorf("pattern: truncated token at offset %d", i)
		}
		tok := data[i+1]
		switch {
		case tok == patternLiteral:
			out = append(out, patternEscape)
		case int(tok) < len(c.vocab):
			out = append(out, c.vocab[tok]...)
		default:
			return nil, fmt.Errorf("pattern: invalid token index %d at offset %d", tok, i+1)
		}
		i += 2
	}
	return out, nil
}

func (c *PatternCodec) Type() core.CodecType {
	return core.CodecPattern
}

// DefaultVocabulary is the documented default seed set: common English
// function words, markup tags and attributes, and keywords shared by the
// mainstream C-family and scripting languages. It is a starting point,
// not a claim about any particular corpus; callers with a known content
// profile should supply their own entries.
func DefaultVocabulary() []string {
	return []string{
		// Common words, with the spaces that usually surround them.
		" the ", " and ", " that ", " with ", " for ", " this ",
		" from ", " have ", " are ", " not ", " was ", " you ",
		"tion", "ing ", " of ", "ed ",
		// Markup tags and attribute heads.
		"<div>", "</div>", "<span>", "</span>", "<p>", "</p>",
		"<li>", "</li>", "<ul>", "</ul>", "<td>", "</td>",
		"<tr>", "</tr>", "<table>", "</table>", "<br>", "<a ",
		"</a>", "<html>", "</html>", "<body>", "</body>",
		"<head>", "</head>", "class=\"", "href=\"", "style=\"",
		"id=\"", "src=\"", "</h1>", "</h2>", "</h3>",
		// Code tokens across the mainstream languages.
		"func ", "function ", "return ", "import ", "package ",
		"const ", "var ", "for ", "while ", "if ", "else ",
		"switch ", "case ", "break", "continue", "struct ",
		"interface ", "type ", "public ", "private ", "static ",
		"void ", "class ", "def ", "self.", "this.", "nil",
		"null", "true", "false", "err != nil", ":= ",
		"    ",
	}
}
