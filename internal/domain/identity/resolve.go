package identity

// Resolve matches a detected name against the session's person records using
// exact, case-insensitive comparison on primary names and aliases.
//
// Exactly one candidate resolves to that person. Zero candidates means a new
// person. More than one candidate is an ambiguous resolution: the policy is
// to prefer a false split over a false merge, since merging into the wrong
// record corrupts it irreversibly, so ambiguous is reported and the caller
// creates a new person.
func Resolve(persons map[int]*Person, name string) (id int, found bool, ambiguous bool) {
	k := nameKey(name)
	if k == "" {
		return 0, false, false
	}

	var matches []int
	for pid, p := range persons {
		if nameKey(p.PrimaryName) == k {
			matches = append(matches, pid)
			continue
		}
		for _, alias := range p.Aliases {
			if nameKey(alias) == k {
				matches = append(matches, pid)
				break
			}
		}
	}

	switch len(matches) {
	case 0:
		return 0, false, false
	case 1:
		return matches[0], true, false
	default:
		return 0, false, true
	}
}
