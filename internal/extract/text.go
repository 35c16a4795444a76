// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// containsAny reports whether s contains any of the terms.
func containsAny(s string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(s, term) {
			return true
		}
	}
	return false
}

// prefix returns the first n characters (runes) of s.
func prefix(s string, n int) string {
	if len(s) <= n {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}

// collapseSpace joins the whitespace-separated fields of s with single spaces.
func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// window returns byte offsets covering up to radius characters on each side
// of text[start:end], clipped to the text and aligned to rune boundaries.
func window(text string, start, end, radius int) (int, int) {
	ws := start
	for n := 0; n < radius && ws > 0; n++ {
		_, size := utf8.DecodeLastRuneInString(text[:ws])
		ws -= size
	}
	we := end
	for n := 0; n < radius && we < len(text); n++ {
		_, size := utf8.DecodeRuneInString(text[we:])
		we += size
	}
	return ws, we
}

// bound cuts text to at most limit bytes without splitting a rune.
func bound(text string, limit int) string {
	if len(text) <= limit {
		return text
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut]
}

// splitSentences breaks text into trimmed sentences. Lines are first joined
// where the next line continues in lower case; any other line break ends a
// sentence. Within a line, sentences end at terminal punctuation followed by
// whitespace, except after an abbreviation or before a lower-case word.
func splitSentences(text string) []string {
	var sentences []string
	add := func(s string) {
		if s = strings.TrimSpace(s); s != "" {
			sentences = append(sentences, s)
		}
	}
	for _, line := range joinWrappedLines(text) {
		start := 0
		for _, loc := range terminatorRe.FindAllStringIndex(line, -1) {
			if !endsSentence(line, loc[0], loc[1]) {
				continue
			}
			add(line[start:loc[1]])
			start = loc[1]
		}
		add(line[start:])
	}
	return sentences
}

// endsSentence reports whether the terminator run line[i:j] closes a sentence.
func endsSentence(line string, i, j int) bool {
	rest := line[j:]
	if rest != "" {
		r, _ := utf8.DecodeRuneInString(rest)
		if !unicode.IsSpace(r) {
			return false
		}
	}
	if strings.ContainsAny(line[i:j], "?!") {
		return true
	}
	word := line[strings.LastIndexFunc(line[:i], unicode.IsSpace)+1 : i]
	if abbreviations[strings.ToLower(strings.TrimLeft(word, "(\"'"))] {
		return false
	}
	next := strings.TrimLeftFunc(rest, unicode.IsSpace)
	if next == "" {
		return true
	}
	r, _ := utf8.DecodeRuneInString(next)
	return !unicode.IsLower(r)
}

// joinWrappedLines returns the non-blank lines of text with wrapped
// continuations (lines opening in lower case) appended to the line before.
func joinWrappedLines(text string) []string {
	var lines []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			lines = append(lines, cur.String())
			cur.Reset()
		}
	}
	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			flush()
			continue
		}
		r, _ := utf8.DecodeRuneInString(line)
		if cur.Len() > 0 && unicode.IsLower(r) {
			cur.WriteByte(' ')
			cur.WriteString(line)
			continue
		}
		flush()
		cur.WriteString(line)
	}
	flush()
	return lines
}
