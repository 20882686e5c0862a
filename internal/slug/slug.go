// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package slug provides URL-friendly slug generation from arbitrary strings.
package slug

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	// nonAlphanumeric matches every run of characters outside [a-z0-9].
	nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)
	// valid matches an already normalized slug.
	valid = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)
)

// letters that carry no combining mark under NFD and would otherwise be
// dropped entirely.
var letters = map[rune]string{
	'ß': "ss",
	'ø': "o",
	'đ': "d",
	'ł': "l",
	'æ': "ae",
	'œ': "oe",
	'þ': "th",
	'ð': "d",
	'ı': "i",
}

// Generate creates a URL-friendly slug from the given string. Diacritics are
// stripped, so "Árak és Díjak" becomes "arak-es-dijak". The result contains
// only [a-z0-9] separated by single hyphens, and Generate(Generate(s)) ==
// Generate(s) for every s.
func Generate(s string) string {
	result := strings.ToLower(strings.TrimSpace(s))
	result = transliterate(result)
	result = stripMarks(result)
	result = nonAlphanumeric.ReplaceAllString(result, "-")
	return strings.Trim(result, "-")
}

// Valid reports whether s is already a normalized slug.
func Valid(s string) bool {
	return valid.MatchString(s)
}

func transliterate(s string) string {
	if strings.IndexFunc(s, func(r rune) bool { _, ok := letters[r]; return ok }) < 0 {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if rep, ok := letters[r]; ok {
			b.WriteString(rep)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func stripMarks(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
