package core

import "slices"

// dedupeIDs returns ids sorted with duplicates removed.
func dedupeIDs(ids []int32) []int32 {
	if len(ids) == 0 {
		return nil
	}
	out := slices.Clone(ids)
	slices.Sort(out)
	return slices.Compact(out)
}

// missingIDs returns the requested ids absent from found, in request order.
func missingIDs(requested, found []int32) []int32 {
	have := make(map[int32]struct{}, len(found))
	for _, id := range found {
		have[id] = struct{}{}
	}
	var missing []int32
	for _, id := range requested {
		if _, ok := have[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing
}
