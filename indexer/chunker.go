// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package indexer

import (
	"strings"
	"unicode/utf8"
)

// section is a run of text under one heading path.
type section struct {
	path  []string
	page  int
	start int // byte offset of the section body in the document
	text  string
}

// piece is one bounded slice of a section.
type piece struct {
	text  string
	start int
	end   int
}

// splitSections walks the document line by line, tracking the heading
// stack. Headings are markdown ATX style (# to ######); lines inside
// fenced code blocks are never treated as headings. The document title
// is the root of every hierarchy path. Form feeds advance the page
// counter for formats that preserve pagination.
func splitSections(title, text string) []section {
	var sections []section

	// stack[i] holds the heading at markdown level i+1.
	var stack []string
	page := 1
	inFence := false

	var body strings.Builder
	bodyStart := 0
	bodyPage := 1

	flush := func() {
		trimmed := strings.TrimSpace(body.String())
		if trimmed != "" {
			path := make([]string, 0, len(stack)+1)
			path = append(path, title)
			path = append(path, stack...)
			sections = append(sections, section{
				path:  path,
				page:  bodyPage,
				start: bodyStart,
				text:  body.String(),
			})
		}
		body.Reset()
	}

	offset := 0
	for _, line := range strings.SplitAfter(text, "\n") {
		lineStart := offset
		offset += len(line)

		page += strings.Count(line, "\f")

		trimmed := strings.TrimRight(line, "\n")
		if strings.HasPrefix(strings.TrimSpace(trimmed), "```") {
			inFence = !inFence
		}

		level, heading := parseHeading(trimmed)
		if level > 0 && !inFence {
			flush()
			if level <= len(stack) {
				stack = stack[:level-1]
			}
			for len(stack) < level-1 {
				// Skipped heading levels inherit the parent title so
				// the path stays dense.
				stack = append(stack, heading)
			}
			stack = append(stack, heading)
			bodyStart = offset
			bodyPage = page
			continue
		}

		if body.Len() == 0 {
			bodyStart = lineStart
			bodyPage = page
		}
		body.WriteString(line)
	}
	flush()
	return sections
}

// parseHeading returns the ATX heading level and title, or 0 for a
// non-heading line.
func parseHeading(line string) (int, string) {
	s := strings.TrimSpace(line)
	level := 0
	for level < len(s) && s[level] == '#' {
		level++
	}
	if level == 0 || level > 6 || level >= len(s) || s[level] != ' ' {
		return 0, ""
	}
	heading := strings.TrimSpace(s[level:])
	if heading == "" {
		return 0, ""
	}
	return level, heading
}

// chunkSection slices a section body into pieces no longer than the
// configured window, preferring paragraph then sentence then word
// boundaries for the cut. Consecutive pieces share the configured
// overlap. A piece never extends past the section.
func (ix *Indexer) chunkSection(sec section) []piece {
	body := strings.TrimSpace(sec.text)
	if body == "" {
		return nil
	}
	// Offset of the trimmed body within the document.
	lead := strings.Index(sec.text, body)
	base := sec.start + lead

	var pieces []piece
	pos := 0
	for pos < len(body) {
		end := pos + ix.maxChunkLen
		if end >= len(body) {
			end = len(body)
		} else {
			end = cutPoint(body, pos, end)
		}

		chunkText := strings.TrimSpace(body[pos:end])
		if chunkText != "" {
			inner := strings.Index(body[pos:end], chunkText)
			pieces = append(pieces, piece{
				text:  chunkText,
				start: base + pos + inner,
				end:   base + pos + inner + len(chunkText),
			})
		}
		if end == len(body) {
			break
		}

		next := runeStart(body, end-ix.overlap)
		if next <= pos {
			next = end
		}
		pos = next
	}
	return pieces
}

// cutPoint picks a break position in body at or before limit,
// preferring a blank line, then a sentence end, then a word boundary.
// The cut never lands at or before pos.
func cutPoint(body string, pos, limit int) int {
	window := body[pos:limit]

	if i := strings.LastIndex(window, "\n\n"); i > 0 {
		return pos + i + 2
	}
	for _, sep := range []string{". ", ".\n", "! ", "? "} {
		if i := strings.LastIndex(window, sep); i > 0 {
			return pos + i + len(sep)
		}
	}
	if i := strings.LastIndexAny(window, " \n\t"); i > 0 {
		return pos + i + 1
	}
	// No boundary in the window, typically space-less scripts. Back the
	// raw cut off to a rune start so the piece stays valid UTF-8.
	if i := runeStart(body, limit); i > pos {
		return i
	}
	return limit
}

// runeStart steps i back to the nearest UTF-8 rune boundary at or
// before it.
func runeStart(body string, i int) int {
	for i > 0 && i < len(body) && !utf8.RuneStart(body[i]) {
		i--
	}
	return i
}
