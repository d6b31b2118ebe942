package inventory

// EnsureSlots assigns slots deterministically: indices already validly
// held are collected first (first claimant wins a duplicate), then every
// remaining item gets the lowest free index in iteration order. Running
// it again changes nothing.
func EnsureSlots(items []*Item, maxSlots int) {
	held := map[int]bool{}
	keep := make([]bool, len(items))
	for i, it := range items {
		if it.Slot >= 0 && it.Slot < maxSlots && !held[it.Slot] {
			held[it.Slot] = true
			keep[i] = true
		}
	}
	next := 0
	for i, it := range items {
		if keep[i] {
			continue
		}
		for held[next] {
			next++
		}
		it.Slot = next
		held[next] = true
	}
}
