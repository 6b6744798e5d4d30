// Package identity holds the accumulated person records for a session and the
// pure merge logic that folds new detections into them.
package identity

import "time"

// Metadata carries bookkeeping for a person record. ConfidenceScore is the
// maximum observed across detections and never decreases; SessionCount and
// LastSeen reflect every turn that referenced the person, including turns that
// have aged out of the retained history window.
type Metadata struct {
	ConfidenceScore float64   `json:"confidence_score"`
	FirstSeen       time.Time `json:"first_seen"`
	LastSeen        time.Time `json:"last_seen"`
	SessionCount    int       `json:"session_count"`
}

// Person is the accumulated structured identity for one detected individual
// within a session. PersonID is a dense 1-based ordinal assigned in
// first-sighting order and never reused. Attribute lists keep first-seen order
// because the list position fixes the attribute's token ordinal permanently.
type Person struct {
	PersonID    int      `json:"person_id"`
	PrimaryName string   `json:"primary_name"`
	Aliases     []string `json:"aliases,omitempty"`
	Emails      []string `json:"emails,omitempty"`
	Phones      []string `json:"phones,omitempty"`
	Addresses   []string `json:"addresses,omitempty"`
	IDs         []string `json:"ids,omitempty"`
	// Relationships maps a relationship kind to the person ids on the other
	// end. All kinds are symmetric: when A gains B under kind K, B gains A.
	Relationships map[string][]int `json:"relationships,omitempty"`
	Metadata      Metadata         `json:"metadata"`
}

// Clone returns a deep copy. Merge operates on copies so callers can treat
// records as immutable inputs.
func (p *Person) Clone() *Person {
	if p == nil {
		return nil
	}
	out := *p
	out.Aliases = append([]string(nil), p.Aliases...)
	out.Emails = append([]string(nil), p.Emails...)
	out.Phones = append([]string(nil), p.Phones...)
	out.Addresses = append([]string(nil), p.Addresses...)
	out.IDs = append([]string(nil), p.IDs...)
	if p.Relationships != nil {
		out.Relationships = make(map[string][]int, len(p.Relationships))
		for kind, ids := range p.Relationships {
			out.Relationships[kind] = append([]int(nil), ids...)
		}
	}
	return &out
}

// Relationship declares that the detected person relates to another person,
// referenced by name, under the given kind (spouse, colleague, ...).
type Relationship struct {
	Kind string `json:"kind"`
	Name string `json:"name"`
}

// Detection is the free-form extraction the upstream PII oracle produced for
// one person in one turn. The ids field covers government or account
// identifiers mapped to the id token kind.
type Detection struct {
	MatchedName   string         `json:"matched_name"`
	Aliases       []string       `json:"aliases,omitempty"`
	Emails        []string       `json:"emails,omitempty"`
	Phones        []string       `json:"phones,omitempty"`
	Addresses     []string       `json:"addresses,omitempty"`
	IDs           []string       `json:"ids,omitempty"`
	Relationships []Relationship `json:"relationships,omitempty"`
	Confidence    float64        `json:"confidence"`
}
