// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tui

import (
	"strings"

	"github.com/junegunn/fzf/src/algo"
	"github.com/junegunn/fzf/src/util"
)

func init() {
	algo.Init("default")
}

// FuzzyResult is the outcome of matching one text against a pattern.
// Score is zero when the text does not match; Positions are rune
// offsets of matched characters in the original text.
type FuzzyResult struct {
	Score     int
	Positions []int
}

// NewSlab allocates scratch space for [FuzzyMatch]. A slab is not safe
// for concurrent use; share one per goroutine.
func NewSlab() *util.Slab {
	return util.MakeSlab(100*1024, 2048)
}

// FuzzyMatch scores text against pattern with fzf's V2 algorithm. The
// match is case-insensitive and normalizes accented letters. An empty
// pattern scores zero. slab may be nil.
func FuzzyMatch(text string, pattern []rune, slab *util.Slab) FuzzyResult {
	if len(pattern) == 0 || text == "" {
		return FuzzyResult{}
	}

	lowered := make([]rune, len(pattern))
	for index, character := range pattern {
		lowered[index] = toLowerRune(character)
	}
	chars := util.ToChars([]byte(strings.ToLower(text)))
	result, positions := algo.FuzzyMatchV2(false, true, true, &chars, lowered, true, slab)
	if result.Start < 0 || result.Score <= 0 {
		return FuzzyResult{}
	}

	matched := FuzzyResult{Score: result.Score}
	if positions != nil {
		matched.Positions = append([]int(nil), (*positions)...)
	}
	return matched
}

// FuzzyMatchAll requires every space-separated term of query to match
// text. The score is the sum of the term scores.
func FuzzyMatchAll(text, query string, slab *util.Slab) FuzzyResult {
	terms := strings.Fields(query)
	if len(terms) == 0 {
		return FuzzyResult{}
	}
	var combined FuzzyResult
	for _, term := range terms {
		result := FuzzyMatch(text, []rune(term), slab)
		if result.Score == 0 {
			return FuzzyResult{}
		}
		combined.Score += result.Score
		combined.Positions = append(combined.Positions, result.Positions...)
	}
	return combined
}

func toLowerRune(character rune) rune {
	if character >= 'A' && character <= 'Z' {
		return character + ('a' - 'A')
	}
	return []rune(strings.ToLower(string(character)))[0]
}
