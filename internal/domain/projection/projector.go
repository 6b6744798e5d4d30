package projection

import (
	"fmt"

	"github.com/jdutton/n8n-pii-sanitization/internal/domain/identity"
	"github.com/jdutton/n8n-pii-sanitization/internal/domain/token"
)

// Projection is the pair of always-consistent output views plus the full
// person registry. TokenMap and PIIMapping contain exactly the tokens present
// in the sanitized texts the projection was built from: every such token
// resolves, and neither map carries extras.
type Projection struct {
	// Persons is the full registry keyed "Person<N>", not scoped to only the
	// tokens of the current turn.
	Persons map[string]*identity.Person
	// TokenMap maps a token to its semantic path within the person record,
	// e.g. "primary_name" or "emails[0]". A schema description, not a value.
	TokenMap map[string]string
	// PIIMapping maps a token to the resolved literal value.
	PIIMapping map[string]string
}

// Project derives both views from the canonical person record set, collecting
// tokens from every given sanitized text (user turn, and in chat mode the
// sanitized response) so every token the system emits resolves. The two maps
// are never maintained independently; dereferencing the token against the
// records is the single source of truth, which is what keeps the legacy flat
// map and the structured registry from drifting apart.
func Project(persons map[int]*identity.Person, texts ...string) Projection {
	proj := Projection{
		Persons:    make(map[string]*identity.Person, len(persons)),
		TokenMap:   make(map[string]string),
		PIIMapping: make(map[string]string),
	}
	// Clones, not the live records: the projection outlives the session lock,
	// and a later turn's merge must not mutate an already-returned view.
	for id, p := range persons {
		proj.Persons[fmt.Sprintf("Person%d", id)] = p.Clone()
	}

	for _, text := range texts {
		for _, tok := range token.FindAll(text) {
			ref, ok := token.Parse(tok)
			if !ok {
				continue
			}
			p, ok := persons[ref.PersonID]
			if !ok {
				// Token-shaped text referencing no known person stays
				// untouched in the output; it was never ours to resolve.
				continue
			}
			path, value, ok := resolve(p, ref)
			if !ok {
				continue
			}
			proj.TokenMap[tok] = path
			proj.PIIMapping[tok] = value
		}
	}
	return proj
}

func resolve(p *identity.Person, ref token.Ref) (path, value string, ok bool) {
	if ref.Kind == "" {
		return "primary_name", p.PrimaryName, true
	}

	var list []string
	var field string
	switch ref.Kind {
	case token.KindEmail:
		list, field = p.Emails, "emails"
	case token.KindPhone:
		list, field = p.Phones, "phones"
	case token.KindAddress:
		list, field = p.Addresses, "addresses"
	case token.KindID:
		list, field = p.IDs, "ids"
	default:
		return "", "", false
	}

	idx := ref.Ordinal - 1
	if idx < 0 || idx >= len(list) {
		return "", "", false
	}
	return fmt.Sprintf("%s[%d]", field, idx), list[idx], true
}
