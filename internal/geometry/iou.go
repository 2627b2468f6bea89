// Package geometry holds the rectangle overlap metric used for frame-to-frame
// correspondence.
package geometry

import "github.com/pruthvir7/ParkingManagement/internal/domain"

// Overlap returns the Intersection-over-Union of two axis-aligned boxes, in [0,1].
// Disjoint boxes, boxes with non-positive area and a zero union all yield 0.
func Overlap(a, b domain.Box) float64 {
	areaA, areaB := a.Area(), b.Area()
	if areaA == 0 || areaB == 0 {
		return 0
	}

	inter := a.Rect().Intersect(b.Rect())
	if inter.Empty() {
		return 0
	}
	interArea := inter.Dx() * inter.Dy()

	union := areaA + areaB - interArea
	if union <= 0 {
		return 0
	}
	return float64(interArea) / float64(union)
}
