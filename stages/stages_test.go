package stages

import (
	"errors"
	"math"
	"testing"

	"github.com/qolzam/metamorph/internal/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		votes int
		want  Stage
	}{
		{math.MinInt, Egg},
		{-1, Egg},
		{0, Egg},
		{1, Caterpillar},
		{2, Chrysalis},
		{3, Butterfly},
		{4, Butterfly},
		{1000, Butterfly},
		{math.MaxInt, Butterfly},
	}

	for _, tt := range tests {
		got, err := Classify(tt.votes)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "votes=%d", tt.votes)
	}
}

func TestClassify_GapIsConfigurationError(t *testing.T) {
	gapped := []rule{
		{match: func(v int) bool { return v <= 0 }, stage: Egg},
		{match: func(v int) bool { return v >= 3 }, stage: Butterfly},
	}

	_, err := classify(gapped, 1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrConfiguration))

	err = checkCoverage(gapped, 0, 10)
	assert.True(t, errors.Is(err, apperr.ErrConfiguration))
}

func TestCheckCoverage_UnknownStage(t *testing.T) {
	bad := []rule{{match: func(int) bool { return true }, stage: "larva"}}
	err := checkCoverage(bad, 0, 1)
	assert.True(t, errors.Is(err, apperr.ErrConfiguration))
}

func TestCheckCoverage_CurrentTable(t *testing.T) {
	assert.NoError(t, CheckCoverage(-1000, 1000))
}

func TestParse(t *testing.T) {
	s, err := Parse("chrysalis")
	require.NoError(t, err)
	assert.Equal(t, Chrysalis, s)

	_, err = Parse("butterfy")
	assert.True(t, errors.Is(err, apperr.ErrValidation))
}

func TestOrDefault(t *testing.T) {
	assert.Equal(t, Egg, OrDefault(""))
	assert.Equal(t, Butterfly, OrDefault(Butterfly))
}
