// Package projection renders the outward views of a session: the sanitized
// text with tokens substituted for literal values, and the two parallel maps
// (token_map, pii_mapping) that make every embedded token resolvable.
package projection

import (
	"regexp"
	"sort"
	"strings"

	"github.com/jdutton/n8n-pii-sanitization/internal/domain/identity"
	"github.com/jdutton/n8n-pii-sanitization/internal/domain/token"
)

// Sanitize replaces every known value across the given person records with
// its token: names and aliases with [Person<N>], attribute values with
// [Person<N>:<kind><M>]. Matching is case-insensitive; substitution happens
// in a single pass over the text with longer values preferred, so a value
// that contains another (a full name over a first name used as alias) wins
// and already-substituted tokens are never revisited.
func Sanitize(raw string, persons map[int]*identity.Person) string {
	if raw == "" || len(persons) == 0 {
		return raw
	}

	replacements := collect(persons)
	if len(replacements) == 0 {
		return raw
	}

	values := make([]string, 0, len(replacements))
	for v := range replacements {
		values = append(values, v)
	}
	// Longest first inside the alternation; Go regexp alternation is
	// leftmost-first, not leftmost-longest.
	sort.Slice(values, func(i, j int) bool {
		if len(values[i]) != len(values[j]) {
			return len(values[i]) > len(values[j])
		}
		return values[i] < values[j]
	})

	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = regexp.QuoteMeta(v)
	}
	re, err := regexp.Compile(`(?i)` + strings.Join(quoted, "|"))
	if err != nil {
		return raw
	}

	return re.ReplaceAllStringFunc(raw, func(m string) string {
		if tok, ok := replacements[strings.ToLower(m)]; ok {
			return tok
		}
		return m
	})
}

// collect builds the lowercased value → token table. Values shorter than two
// characters are skipped to avoid spurious single-letter substitution.
func collect(persons map[int]*identity.Person) map[string]string {
	out := make(map[string]string)
	add := func(value, tok string) {
		value = strings.ToLower(strings.TrimSpace(value))
		if len(value) < 2 {
			return
		}
		if _, taken := out[value]; taken {
			return
		}
		out[value] = tok
	}

	// Lowest person id claims a contested value, deterministically.
	ids := make([]int, 0, len(persons))
	for id := range persons {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	for _, id := range ids {
		p := persons[id]
		personTok := token.Person(p.PersonID)
		add(p.PrimaryName, personTok)
		for _, alias := range p.Aliases {
			add(alias, personTok)
		}
		for i, v := range p.Emails {
			add(v, token.Attribute(p.PersonID, token.KindEmail, i+1))
		}
		for i, v := range p.Phones {
			add(v, token.Attribute(p.PersonID, token.KindPhone, i+1))
		}
		for i, v := range p.Addresses {
			add(v, token.Attribute(p.PersonID, token.KindAddress, i+1))
		}
		for i, v := range p.IDs {
			add(v, token.Attribute(p.PersonID, token.KindID, i+1))
		}
	}
	return out
}
