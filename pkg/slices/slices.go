package slices

// Map returns a new slice holding the result of fn for each element of s.
func Map[S ~[]E, E any, R any](s S, fn func(E) R) []R {
	if s == nil {
		return nil
	}

	r := make([]R, 0, len(s))

	for _, v := range s {
		r = append(r, fn(v))
	}

	return r
}
