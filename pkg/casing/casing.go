// Package casing converts identifiers between camel-style and snake-style naming.
//
// Both directions are unicode aware: a character counts as upper case when it
// differs from its lower-case form and equals its upper-case form, so accented and
// non-Latin letters take part in the conversion.
//
//	ToSnake("fooBarBaz") // "foo_bar_baz"
//	ToSnake("fooBAR")    // "foo_bar"
//	ToCamel("foo_bar")   // "fooBar"
package casing

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// converter holds per-call casers; a cases.Caser must not be shared between goroutines.
type converter struct {
	upper cases.Caser
	lower cases.Caser
}

func newConverter() *converter {
	return &converter{
		upper: cases.Upper(language.Und),
		lower: cases.Lower(language.Und),
	}
}

func (c *converter) isUpper(ch string) bool {
	return c.lower.String(ch) != ch && c.upper.String(ch) == ch
}

// ToSnake converts a camel-style identifier to snake_case.
//
// The first character is kept as is. Runs of upper-case characters are lowered
// without separating them, so "fooBAR" becomes "foo_bar" rather than "foo_b_a_r".
func ToSnake(s string) string {
	if s == "" {
		return ""
	}

	c := newConverter()
	var b strings.Builder
	b.Grow(len(s) + 4)

	prevUpper := false
	for i, r := range s {
		ch := string(r)
		upper := c.isUpper(ch)
		if i == 0 {
			b.WriteString(ch)
			prevUpper = upper
			continue
		}
		if upper {
			if !prevUpper {
				b.WriteByte('_')
			}
			b.WriteString(c.lower.String(ch))
		} else {
			b.WriteString(ch)
		}
		prevUpper = upper
	}
	return b.String()
}

// ToCamel converts a snake_case identifier to camel style.
// Every underscore is dropped and the character after it is upper-cased.
func ToCamel(s string) string {
	if s == "" {
		return ""
	}

	c := newConverter()
	var b strings.Builder
	b.Grow(len(s))

	raise := false
	for _, r := range s {
		if r == '_' {
			raise = true
			continue
		}
		if raise {
			b.WriteString(c.upper.String(string(r)))
			raise = false
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
