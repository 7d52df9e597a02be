package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecommendationFor(t *testing.T) {
	assert.Equal(t, RecommendationLow, RecommendationFor(1))
	assert.Equal(t, RecommendationLow, RecommendationFor(2))
	assert.Equal(t, RecommendationMid, RecommendationFor(3))
	assert.Equal(t, RecommendationHigh, RecommendationFor(4))
	assert.Equal(t, RecommendationHigh, RecommendationFor(5))
}
