package geometry

// Contains reports whether ref lies strictly inside the closed polygon
// traced by path, using the even-odd rule: a ray cast from ref towards +x
// toggles the result at every edge it crosses, the wrap-around edge from
// the last vertex to the first included.
//
// Self-intersecting paths get the usual even-odd answer, so a region
// enclosed twice counts as outside. Paths with fewer than three vertices
// enclose nothing.
func Contains(ref Point, path Path) bool {
	inside := false
	n := len(path)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		if crosses(ref, path[i], path[j]) {
			inside = !inside
		}
	}
	return inside
}

// crosses reports whether the edge (a, b) straddles ref.Y and meets the
// horizontal line through ref to the right of it.
//
// The straddle test must stay asymmetric (strictly above vs. not above):
// it excludes horizontal edges, which keeps the division well defined, and
// counts a vertex lying exactly on the ray once rather than twice.
func crosses(ref, a, b Point) bool {
	if (a.Y > ref.Y) == (b.Y > ref.Y) {
		return false
	}
	x := (b.X-a.X)*(ref.Y-a.Y)/(b.Y-a.Y) + a.X
	return ref.X < x
}
