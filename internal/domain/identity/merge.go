package identity

import (
	"sort"
	"strings"
	"time"
)

// Merge folds a detection into a person record. When existing is nil a fresh
// record is built with the given id (the session-scoped ordinal the caller
// allocated). Otherwise the existing record is cloned and extended; the input
// is never mutated. The function is total: any well-formed detection merges
// without error, and merging the same detection twice is a no-op on the
// second pass.
//
// SessionCount is intentionally not touched here: a turn may carry several
// detections resolving to one person, and the count must advance once per
// turn, so the caller bumps it via TouchTurn after all detections merged.
func Merge(existing *Person, id int, det Detection, now time.Time) *Person {
	p := existing.Clone()
	if p == nil {
		p = &Person{
			PersonID:    id,
			PrimaryName: strings.TrimSpace(det.MatchedName),
			Metadata: Metadata{
				ConfidenceScore: det.Confidence,
				FirstSeen:       now,
				LastSeen:        now,
			},
		}
	}

	mergeName(p, det.MatchedName)
	for _, alias := range det.Aliases {
		mergeName(p, alias)
	}

	p.Emails = appendUnique(p.Emails, det.Emails, emailKey)
	p.Phones = appendUnique(p.Phones, det.Phones, phoneKey)
	p.Addresses = appendUnique(p.Addresses, det.Addresses, addressKey)
	p.IDs = appendUnique(p.IDs, det.IDs, idKey)

	if det.Confidence > p.Metadata.ConfidenceScore {
		p.Metadata.ConfidenceScore = det.Confidence
	}
	p.Metadata.LastSeen = now

	return p
}

// TouchTurn records that a turn referenced the person.
func (p *Person) TouchTurn() {
	p.Metadata.SessionCount++
}

// CorrectPrimaryName is the explicit correction path: a detection alone never
// replaces a primary name, only an equal-or-higher stays; the overwrite
// requires strictly higher confidence and demotes the old primary to the
// alias set.
func CorrectPrimaryName(p *Person, name string, confidence float64) bool {
	name = strings.TrimSpace(name)
	if name == "" || confidence <= p.Metadata.ConfidenceScore {
		return false
	}
	if nameKey(name) == nameKey(p.PrimaryName) {
		return false
	}
	old := p.PrimaryName
	p.PrimaryName = name
	p.Aliases = removeName(p.Aliases, name)
	p.Aliases = appendUnique(p.Aliases, []string{old}, nameKey)
	p.Metadata.ConfidenceScore = confidence
	return true
}

// AddRelationship links p to otherID under kind, keeping the id set sorted
// and free of duplicates. Self references are dropped.
func (p *Person) AddRelationship(kind string, otherID int) {
	kind = strings.ToLower(strings.TrimSpace(kind))
	if kind == "" || otherID == p.PersonID {
		return
	}
	if p.Relationships == nil {
		p.Relationships = make(map[string][]int)
	}
	ids := p.Relationships[kind]
	for _, id := range ids {
		if id == otherID {
			return
		}
	}
	ids = append(ids, otherID)
	sort.Ints(ids)
	p.Relationships[kind] = ids
}

// mergeName files an incoming name: equal to the primary or a known alias is
// a no-op, anything else joins the alias set with its original casing.
func mergeName(p *Person, name string) {
	name = strings.TrimSpace(name)
	if name == "" || nameKey(name) == nameKey(p.PrimaryName) {
		return
	}
	p.Aliases = appendUnique(p.Aliases, []string{name}, nameKey)
}

// appendUnique extends list with each value whose comparison key is not
// already present. Appended values keep their original casing; their list
// position is now fixed permanently, since the position determines the
// attribute's token ordinal.
func appendUnique(list []string, values []string, key func(string) string) []string {
	seen := make(map[string]struct{}, len(list))
	for _, v := range list {
		seen[key(v)] = struct{}{}
	}
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		k := key(v)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		list = append(list, v)
	}
	return list
}

func removeName(list []string, name string) []string {
	k := nameKey(name)
	out := list[:0]
	for _, v := range list {
		if nameKey(v) != k {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
