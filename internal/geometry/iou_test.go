package geometry

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pruthvir7/ParkingManagement/internal/domain"
)

func TestOverlapIdentical(t *testing.T) {
	boxes := []domain.Box{
		{X: 0, Y: 0, Width: 1, Height: 1},
		{X: 10, Y: 20, Width: 120, Height: 40},
		{X: 300, Y: 5, Width: 64, Height: 64},
	}
	for _, b := range boxes {
		assert.Equal(t, 1.0, Overlap(b, b), "box %+v", b)
	}
}

func TestOverlapDisjoint(t *testing.T) {
	a := domain.Box{X: 0, Y: 0, Width: 10, Height: 10}
	cases := []domain.Box{
		{X: 20, Y: 0, Width: 10, Height: 10},
		{X: 0, Y: 30, Width: 10, Height: 10},
		{X: 10, Y: 0, Width: 10, Height: 10}, // touching edge only
		{X: -50, Y: -50, Width: 5, Height: 5},
	}
	for _, b := range cases {
		assert.Equal(t, 0.0, Overlap(a, b), "box %+v", b)
	}
}

func TestOverlapSymmetric(t *testing.T) {
	pairs := [][2]domain.Box{
		{{X: 0, Y: 0, Width: 10, Height: 10}, {X: 5, Y: 5, Width: 10, Height: 10}},
		{{X: 100, Y: 40, Width: 80, Height: 20}, {X: 110, Y: 42, Width: 80, Height: 22}},
		{{X: 0, Y: 0, Width: 4, Height: 4}, {X: 1, Y: 1, Width: 2, Height: 2}},
	}
	for _, p := range pairs {
		assert.Equal(t, Overlap(p[0], p[1]), Overlap(p[1], p[0]))
	}
}

func TestOverlapPartial(t *testing.T) {
	a := domain.Box{X: 0, Y: 0, Width: 10, Height: 10}
	b := domain.Box{X: 5, Y: 0, Width: 10, Height: 10}
	// intersection 50, union 150
	assert.InDelta(t, 1.0/3.0, Overlap(a, b), 1e-9)

	inner := domain.Box{X: 0, Y: 0, Width: 5, Height: 10}
	assert.InDelta(t, 0.5, Overlap(a, inner), 1e-9)
}

func TestOverlapDegenerate(t *testing.T) {
	a := domain.Box{X: 0, Y: 0, Width: 10, Height: 10}
	assert.Equal(t, 0.0, Overlap(a, domain.Box{X: 0, Y: 0, Width: 0, Height: 10}))
	assert.Equal(t, 0.0, Overlap(domain.Box{X: 0, Y: 0, Width: -3, Height: 10}, a))
	assert.Equal(t, 0.0, Overlap(domain.Box{}, domain.Box{}))
}
