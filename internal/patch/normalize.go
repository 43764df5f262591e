package patch

// Normalize drops redundant replace operations. A run of adjacent replaces
// of the same path collapses into one carrying the last value. Any other
// operation in between ends the run, so the result applies to the same
// document as p.
func Normalize(p Patch) Patch {
	if p == nil {
		return nil
	}

	out := make(Patch, 0, len(p))
	for _, op := range p {
		if n := len(out); n > 0 && op.Op == OpReplace && out[n-1].Op == OpReplace && out[n-1].Path == op.Path {
			out[n-1] = op
			continue
		}
		out = append(out, op)
	}
	return out
}
