// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package mediabutton

import (
	"math"

	"github.com/holomush/mediabutton/pkg/plugin"
)

// Nearest returns the candidate carrying the tag component that is closest
// to origin on the x/y plane. Ties go to the candidate that appears first.
// Candidates without components are skipped. The slice is not modified.
func Nearest(candidates []plugin.Object, origin plugin.Position, tag string) (plugin.Object, bool) {
	var (
		best     plugin.Object
		bestDist float64
		found    bool
	)
	for i := range candidates {
		c := &candidates[i]
		if len(c.Components) == 0 || !c.HasComponent(tag) {
			continue
		}
		d := distance2D(c.Position, origin)
		if !found || d < bestDist {
			best, bestDist, found = *c, d, true
		}
	}
	return best, found
}

func distance2D(a, b plugin.Position) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	return math.Sqrt(dx*dx + dy*dy)
}
