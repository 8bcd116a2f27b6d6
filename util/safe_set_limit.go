package util

import "golang.org/x/sync/errgroup"

// SafeSetLimit sets the goroutine limit of g. A limit below one is raised to one, since
// errgroup treats zero as "no goroutine may run" and a negative limit as unbounded.
func SafeSetLimit(g *errgroup.Group, limit int) int {
	if limit < 1 {
		limit = 1
	}

	g.SetLimit(limit)

	return limit
}
