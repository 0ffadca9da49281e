package utils

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeID(t *testing.T) {
	assert.Equal(t, "12", NormalizeID("  12 "))
	assert.Equal(t, "12", NormalizeID(float64(12)))
	assert.Equal(t, "12.5", NormalizeID(12.5))
	assert.Equal(t, "12", NormalizeID(json.Number("12")))
	assert.Equal(t, "12", NormalizeID(12))
	assert.Equal(t, "", NormalizeID(nil))
}

func TestSameID(t *testing.T) {
	assert.True(t, SameID("12", float64(12)))
	assert.True(t, SameID(" abc ", "abc"))
	assert.False(t, SameID("12", "13"))
}
