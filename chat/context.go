// Copyright 2025 Practical AI & ML
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

package chat

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/practicalaiml/askdocs/core"
)

// DefaultMaxContextChars bounds the combined length of the excerpts placed
// into the system prompt, keeping completion cost and latency predictable.
const DefaultMaxContextChars = 10000

// Assembler turns retrieved chunks into the context section of the system
// prompt. When no chunks were retrieved it substitutes the static fallback
// context so the assistant can still answer.
type Assembler struct {
	maxChars int
}

// NewAssembler creates an Assembler with the given cap on combined excerpt
// length in characters.
func NewAssembler(maxChars int) (*Assembler, error) {
	if maxChars <= 0 {
		return nil, fmt.Errorf("%w: max chars must be positive, got %d", ErrInvalidContextLimit, maxChars)
	}
	return &Assembler{maxChars: maxChars}, nil
}

// DefaultAssembler creates an Assembler with DefaultMaxContextChars.
func DefaultAssembler() *Assembler {
	return &Assembler{maxChars: DefaultMaxContextChars}
}

// Assemble produces the context block for the system prompt. Chunks are
// expected in descending similarity order; when the cap is exceeded the
// lowest-ranked chunks are dropped first. It returns the block, the number
// of chunks actually included, and whether the static fallback was used.
func (a *Assembler) Assemble(chunks []*core.ScoredChunk) (context string, used int, fallback bool) {
	if len(chunks) == 0 {
		return fallbackHeader + FallbackContext, 0, true
	}

	var sb strings.Builder
	sb.WriteString(contextHeader)
	total := 0
	for i, sc := range chunks {
		content := sc.Chunk.Content
		if total+len(content) > a.maxChars {
			if used == 0 {
				// The top-ranked chunk always gets in, truncated to fit.
				content = truncateAtRune(content, a.maxChars)
			} else {
				break
			}
		}
		fmt.Fprintf(&sb, "--- Excerpt %d ---\n%s\n\n", i+1, content)
		total += len(content)
		used++
	}
	return sb.String(), used, false
}

// MaxChars returns the configured cap on combined excerpt length.
func (a *Assembler) MaxChars() int {
	return a.maxChars
}

// truncateAtRune cuts s to at most max bytes without splitting a UTF-8
// sequence, backing up to the preceding rune boundary when needed.
func truncateAtRune(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
