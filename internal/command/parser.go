// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package command

import "strings"

const blanks = " \t"

// Line is one line of player input split at its verb.
type Line struct {
	Verb string // lowercased first word
	Args string // everything after it, inner spacing intact
}

// ParseLine splits input into verb and arguments. ok is false for a blank
// line.
func ParseLine(input string) (Line, bool) {
	verb, args := cutWord(strings.TrimRight(input, blanks))
	if verb == "" {
		return Line{}, false
	}
	return Line{Verb: strings.ToLower(verb), Args: args}, true
}

// cutWord returns the first blank-delimited word of s and the remainder with
// its leading blanks removed.
func cutWord(s string) (word, rest string) {
	s = strings.TrimLeft(s, blanks)
	i := strings.IndexAny(s, blanks)
	if i < 0 {
		return s, ""
	}
	return s[:i], strings.TrimLeft(s[i:], blanks)
}

// SplitPrep splits args around the first preposition from preps that has
// words on both sides, as in "put wrench in locker" or "use syringe on
// bob". ok is false when there is none.
func SplitPrep(args string, preps ...string) (left, right string, ok bool) {
	words := strings.Fields(args)
	for i := 1; i < len(words)-1; i++ {
		for _, p := range preps {
			if strings.EqualFold(words[i], p) {
				return strings.Join(words[:i], " "), strings.Join(words[i+1:], " "), true
			}
		}
	}
	return strings.TrimSpace(args), "", false
}
