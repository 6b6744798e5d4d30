package identity_test

import (
	"testing"
	"time"

	"github.com/jdutton/n8n-pii-sanitization/internal/domain/identity"
	"github.com/stretchr/testify/require"
)

func people(t *testing.T) map[int]*identity.Person {
	t.Helper()
	now := time.Now()
	john := identity.Merge(nil, 1, identity.Detection{MatchedName: "John Smith", Confidence: 0.9}, now)
	john = identity.Merge(john, 1, identity.Detection{MatchedName: "Johnny", Confidence: 0.9}, now)
	jane := identity.Merge(nil, 2, identity.Detection{MatchedName: "Jane Doe", Confidence: 0.9}, now)
	return map[int]*identity.Person{1: john, 2: jane}
}

func TestResolve_ByPrimaryName(t *testing.T) {
	id, found, ambiguous := identity.Resolve(people(t), "john smith")
	require.True(t, found)
	require.False(t, ambiguous)
	require.Equal(t, 1, id)
}

func TestResolve_ByAlias(t *testing.T) {
	id, found, _ := identity.Resolve(people(t), "JOHNNY")
	require.True(t, found)
	require.Equal(t, 1, id)
}

func TestResolve_Unknown(t *testing.T) {
	_, found, ambiguous := identity.Resolve(people(t), "Alice")
	require.False(t, found)
	require.False(t, ambiguous)
}

func TestResolve_Ambiguous(t *testing.T) {
	persons := people(t)
	// A second person carrying "Johnny" as an alias makes the name ambiguous.
	now := time.Now()
	other := identity.Merge(nil, 3, identity.Detection{
		MatchedName: "Jonathan Smythe",
		Aliases:     []string{"Johnny"},
		Confidence:  0.8,
	}, now)
	persons[3] = other

	_, found, ambiguous := identity.Resolve(persons, "Johnny")
	require.False(t, found)
	require.True(t, ambiguous)
}

func TestResolve_EmptyName(t *testing.T) {
	_, found, ambiguous := identity.Resolve(people(t), "   ")
	require.False(t, found)
	require.False(t, ambiguous)
}
