// Package token implements the placeholder token grammar used in sanitized
// text: [Person<N>] for a bare name reference and [Person<N>:<kind><M>] for
// an attribute instance. All functions are pure; tokens are deterministic over
// (person, kind, ordinal) so the same logical attribute always renders the
// byte-identical string.
package token

import (
	"fmt"
	"regexp"
	"strconv"
)

// Kind identifies the attribute category carried inside a token.
type Kind string

const (
	KindEmail   Kind = "email"
	KindPhone   Kind = "phone"
	KindAddress Kind = "address"
	KindID      Kind = "id"
)

const grammar = `\[Person([1-9][0-9]*)(?::(email|phone|address|id)([1-9][0-9]*))?\]`

// Pattern matches every well-formed token embedded in free text.
var Pattern = regexp.MustCompile(grammar)

var exact = regexp.MustCompile(`^` + grammar + `$`)

// Ref is the parsed form of a token.
type Ref struct {
	PersonID int
	Kind     Kind // empty for a bare person token
	Ordinal  int  // 1-based position within the person's list of Kind, zero for a bare token
}

// String renders the canonical token for the reference.
func (r Ref) String() string {
	if r.Kind == "" {
		return Person(r.PersonID)
	}
	return Attribute(r.PersonID, r.Kind, r.Ordinal)
}

// Person returns the bare name token for a person ordinal.
func Person(n int) string {
	return fmt.Sprintf("[Person%d]", n)
}

// Attribute returns the token for the ordinal-th attribute of the given kind.
func Attribute(n int, kind Kind, ordinal int) string {
	return fmt.Sprintf("[Person%d:%s%d]", n, kind, ordinal)
}

// Parse decodes a token string. The second return is false for anything that
// is not exactly one well-formed token; callers must treat that as "not a
// token", never as an error, since token-shaped substrings can appear in free
// text.
func Parse(s string) (Ref, bool) {
	m := exact.FindStringSubmatch(s)
	if m == nil {
		return Ref{}, false
	}
	personID, err := strconv.Atoi(m[1])
	if err != nil {
		return Ref{}, false
	}
	ref := Ref{PersonID: personID}
	if m[2] != "" {
		ordinal, err := strconv.Atoi(m[3])
		if err != nil {
			return Ref{}, false
		}
		ref.Kind = Kind(m[2])
		ref.Ordinal = ordinal
	}
	return ref, true
}

// FindAll returns every token present in text, first-appearance order,
// de-duplicated.
func FindAll(text string) []string {
	matches := Pattern.FindAllString(text, -1)
	seen := make(map[string]struct{}, len(matches))
	var tokens []string
	for _, m := range matches {
		if _, dup := seen[m]; dup {
			continue
		}
		seen[m] = struct{}{}
		tokens = append(tokens, m)
	}
	return tokens
}
