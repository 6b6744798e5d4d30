package projection_test

import (
	"testing"
	"time"

	"github.com/jdutton/n8n-pii-sanitization/internal/domain/identity"
	"github.com/jdutton/n8n-pii-sanitization/internal/domain/projection"
	"github.com/stretchr/testify/require"
)

func makePerson(id int, det identity.Detection) *identity.Person {
	return identity.Merge(nil, id, det, time.Now())
}

func TestSanitize_ReplacesNameAndAttributes(t *testing.T) {
	persons := map[int]*identity.Person{
		1: makePerson(1, identity.Detection{
			MatchedName: "John Smith",
			Emails:      []string{"john@x.com"},
			Confidence:  0.9,
		}),
	}

	got := projection.Sanitize("Hi, I'm John Smith, email john@x.com", persons)
	require.Equal(t, "Hi, I'm [Person1], email [Person1:email1]", got)
}

func TestSanitize_CaseInsensitive(t *testing.T) {
	persons := map[int]*identity.Person{
		1: makePerson(1, identity.Detection{
			MatchedName: "John Smith",
			Emails:      []string{"John@X.com"},
			Confidence:  0.9,
		}),
	}

	got := projection.Sanitize("JOHN SMITH wrote from john@x.com", persons)
	require.Equal(t, "[Person1] wrote from [Person1:email1]", got)
}

func TestSanitize_LongestValueWins(t *testing.T) {
	p := makePerson(1, identity.Detection{
		MatchedName: "John Smith",
		Aliases:     []string{"John"},
		Confidence:  0.9,
	})
	persons := map[int]*identity.Person{1: p}

	// "John Smith" must be consumed whole, not as alias "John" + " Smith".
	got := projection.Sanitize("John Smith and John were here", persons)
	require.Equal(t, "[Person1] and [Person1] were here", got)
}

func TestSanitize_MultiplePersons(t *testing.T) {
	persons := map[int]*identity.Person{
		1: makePerson(1, identity.Detection{MatchedName: "John Smith", Confidence: 0.9}),
		2: makePerson(2, identity.Detection{
			MatchedName: "Jane Doe",
			Phones:      []string{"555-9876"},
			Confidence:  0.9,
		}),
	}

	got := projection.Sanitize("John Smith called Jane Doe at 555-9876", persons)
	require.Equal(t, "[Person1] called [Person2] at [Person2:phone1]", got)
}

func TestSanitize_OrdinalsStableAcrossTurns(t *testing.T) {
	p := makePerson(1, identity.Detection{
		MatchedName: "John Smith",
		Emails:      []string{"a@x.com"},
		Confidence:  0.9,
	})
	persons := map[int]*identity.Person{1: p}
	require.Equal(t, "[Person1:email1]", projection.Sanitize("a@x.com", persons))

	// A later turn adds a second email; the first keeps its ordinal.
	persons[1] = identity.Merge(p, 1, identity.Detection{
		MatchedName: "John Smith",
		Emails:      []string{"b@y.com"},
		Confidence:  0.9,
	}, time.Now())
	require.Equal(t, "[Person1:email1]", projection.Sanitize("a@x.com", persons))
	require.Equal(t, "[Person1:email2]", projection.Sanitize("b@y.com", persons))
}

func TestSanitize_NoKnownValues(t *testing.T) {
	require.Equal(t, "nothing here", projection.Sanitize("nothing here", nil))
	persons := map[int]*identity.Person{
		1: makePerson(1, identity.Detection{MatchedName: "John Smith", Confidence: 0.9}),
	}
	require.Equal(t, "nothing here", projection.Sanitize("nothing here", persons))
}
