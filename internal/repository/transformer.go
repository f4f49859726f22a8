package repository

// Transform diffs two item lists by identity. It returns a reason only when
// exactly one item was added, removed or changed; nil otherwise.
func Transform[E any](prev, next []E, identify func(E) string, equal func(a, b E) bool) *ChangeReason[E] {
	before := make(map[string]E, len(prev))
	for _, e := range prev {
		before[identify(e)] = e
	}

	var (
		reason  *ChangeReason[E]
		changes int
	)
	seen := make(map[string]struct{}, len(next))
	for _, e := range next {
		id := identify(e)
		seen[id] = struct{}{}
		old, ok := before[id]
		switch {
		case !ok:
			changes++
			reason = &ChangeReason[E]{Kind: ItemAdded, Item: e}
		case !equal(old, e):
			changes++
			reason = &ChangeReason[E]{Kind: ItemChanged, From: old, To: e}
		}
	}
	for _, e := range prev {
		if _, ok := seen[identify(e)]; ok {
			continue
		}
		changes++
		reason = &ChangeReason[E]{Kind: ItemRemoved, Item: e}
	}

	if changes != 1 {
		return nil
	}
	return reason
}
