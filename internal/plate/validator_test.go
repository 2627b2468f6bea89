package plate

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pruthvir7/ParkingManagement/internal/domain"
)

func TestValidateAccepts(t *testing.T) {
	for _, s := range []string{"KA 18 EQ 0001", "CG 19 EQ 0001", "MH 01 AB 1234"} {
		assert.True(t, Validate(s), s)
	}
}

func TestValidateRejects(t *testing.T) {
	for _, s := range []string{
		"",
		"KA01AB1234",
		"KA 18 EQ 001",
		"KA 18 EQ 00011",
		"ka 18 eq 0001",
		"KA  18 EQ 0001",
		" KA 18 EQ 0001",
		"KA 18 EQ 0001 ",
		"K4 18 EQ 0001",
		"KA 1B EQ 0001",
		"KA-18-EQ-0001",
		"KA 18 EQ 0001\n",
		"Unknown_10_20",
		"Unregistered",
	} {
		assert.False(t, Validate(s), "%q", s)
	}
}

func TestQualifies(t *testing.T) {
	assert.True(t, Qualifies("KA18"))
	assert.True(t, Qualifies("1a"))
	assert.False(t, Qualifies("KARNATAKA"))
	assert.False(t, Qualifies("0001"))
	assert.False(t, Qualifies(""))
	assert.False(t, Qualifies("--"))
}

func TestSelectTextFirstQualifyingWins(t *testing.T) {
	box := domain.Box{X: 12, Y: 34, Width: 100, Height: 30}
	got, ok := SelectText([]domain.TextCandidate{
		{Text: "IND", Confidence: 0.99},
		{Text: "KA 18 EQ 0001", Confidence: 0.40},
		{Text: "KA 18 EQ 0007", Confidence: 0.95},
	}, box)
	assert.True(t, ok)
	assert.Equal(t, "KA 18 EQ 0001", got)
}

func TestSelectTextFallsBackToUnknownLabel(t *testing.T) {
	box := domain.Box{X: 12, Y: 34, Width: 100, Height: 30}
	got, ok := SelectText([]domain.TextCandidate{{Text: "IND"}, {Text: "2024"}}, box)
	assert.False(t, ok)
	assert.Equal(t, "Unknown_12_34", got)
	assert.False(t, Validate(got))

	got, ok = SelectText(nil, box)
	assert.False(t, ok)
	assert.NotEqual(t, UnknownLabel(domain.Box{X: 13, Y: 34}), got)
}
