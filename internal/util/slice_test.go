package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSortedKeys(t *testing.T) {
	// GIVEN
	input := map[string]int{
		"v_output": 3,
		"a_output": 2,
		"rate":     1,
	}

	// WHEN
	result := SortedKeys(input)

	// THEN
	assert.Equal(t, []string{"a_output", "rate", "v_output"}, result)
}
