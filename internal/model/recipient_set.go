// internal/model/recipient_set.go
package model

// RecipientSet is the ordered set of customer ids targeted by a campaign.
// The zero value is an empty set. Methods never modify the receiver.
type RecipientSet struct {
	ids []string
}

func NewRecipientSet(ids ...string) RecipientSet {
	var s RecipientSet
	for _, id := range ids {
		if !s.Contains(id) {
			s.ids = append(s.ids, id)
		}
	}
	return s
}

func (s RecipientSet) Contains(id string) bool {
	for _, v := range s.ids {
		if v == id {
			return true
		}
	}
	return false
}

func (s RecipientSet) Len() int { return len(s.ids) }

// IDs returns the members in insertion order.
func (s RecipientSet) IDs() []string {
	return append([]string(nil), s.ids...)
}

// Toggle removes id if present and appends it otherwise.
func (s RecipientSet) Toggle(id string) RecipientSet {
	out := make([]string, 0, len(s.ids)+1)
	found := false
	for _, v := range s.ids {
		if v == id {
			found = true
			continue
		}
		out = append(out, v)
	}
	if !found {
		out = append(out, id)
	}
	return RecipientSet{ids: out}
}

// SelectAll replaces the set with every candidate id.
func (s RecipientSet) SelectAll(candidates []string) RecipientSet {
	return NewRecipientSet(candidates...)
}

func (s RecipientSet) Clear() RecipientSet {
	return RecipientSet{}
}

// IsComplete is true iff the set holds exactly the candidates. Callers use
// it to decide whether a toggle-all action selects or clears.
func (s RecipientSet) IsComplete(candidates []string) bool {
	if len(s.ids) != len(candidates) {
		return false
	}
	for _, c := range candidates {
		if !s.Contains(c) {
			return false
		}
	}
	return true
}

// ToggleAll clears a complete set and selects every candidate otherwise.
func (s RecipientSet) ToggleAll(candidates []string) RecipientSet {
	if s.IsComplete(candidates) {
		return s.Clear()
	}
	return s.SelectAll(candidates)
}
