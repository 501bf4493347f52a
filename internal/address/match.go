package address

// MatchTelegram decides whether a telegram's addresses are accepted by a
// meter's expression list. Every address is checked
// even after an early accept, so a later filter-out match can still flip
// the overall outcome; that is the "group policy" the filter-out scenario
// in this filter-out scenario.
func MatchTelegram(addresses []Address, exprs []AddressExpression) (matched, usedWildcard bool) {
	filteredOut := false
	requiredFound := false
	requiredFailed := true

	for _, a := range addresses {
		if matchOneAddress(a, exprs, &usedWildcard, &filteredOut, &requiredFailed) {
			matched = true
		}
		if hasRequired(exprs) {
			requiredFound = true
		}
	}
	if filteredOut {
		matched = false
	}
	if requiredFound && requiredFailed {
		matched = false
	}
	return matched, usedWildcard
}

func hasRequired(exprs []AddressExpression) bool {
	for _, e := range exprs {
		if e.Required {
			return true
		}
	}
	return false
}

// matchOneAddress is the per-address pass inside MatchTelegram
// (doesAddressMatchExpressions in the grounding source): a filter-out
// expression that matches rejects outright; otherwise any non-required
// positive match accepts, and usedWildcard reflects whether that accept
// relied on a wildcard expression.
func matchOneAddress(a Address, exprs []AddressExpression, usedWildcard, filteredOut, requiredFailed *bool) bool {
	foundMatch := false
	exactMatch := false
	foundNegativeMatch := false

	for _, e := range exprs {
		m := e.Match(a.ID, a.Mfct, a.Version, a.Type)
		if e.FilterOut {
			if m {
				foundNegativeMatch = true
			}
			continue
		}
		if !m {
			continue
		}
		if e.Required {
			*requiredFailed = false
			continue
		}
		foundMatch = true
		if !e.HasWildcard {
			exactMatch = true
		}
	}

	if foundNegativeMatch {
		*filteredOut = true
		return false
	}
	if foundMatch {
		*usedWildcard = !exactMatch
		return true
	}
	return false
}
