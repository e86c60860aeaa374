package docproc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPageRangeExcluding(t *testing.T) {
	tests := []struct {
		count    int
		excluded int
		expected string
	}{
		{5, 0, "2-5"},
		{5, 4, "1-4"},
		{5, 2, "1-2,4-5"},
		{3, 1, "1,3"},
		{2, 0, "2"},
		{2, 1, "1"},
		{4, 1, "1,3-4"},
		{4, 2, "1-2,4"},
	}

	for _, tt := range tests {
		got := PageRangeExcluding(tt.count, tt.excluded)
		assert.Equal(t, tt.expected, got, "count=%d excluded=%d", tt.count, tt.excluded)
	}
}

func TestOrderSpec(t *testing.T) {
	spec, err := OrderSpec(3, []int{2, 0, 1})
	require.NoError(t, err)
	assert.Equal(t, "3,1,2", spec)

	spec, err = OrderSpec(1, []int{0})
	require.NoError(t, err)
	assert.Equal(t, "1", spec)
}

func TestOrderSpec_RejectsBadPermutations(t *testing.T) {
	_, err := OrderSpec(3, []int{0, 1})
	assert.Error(t, err, "too short")

	_, err = OrderSpec(3, []int{0, 1, 1})
	assert.Error(t, err, "repeated index")

	_, err = OrderSpec(3, []int{0, 1, 3})
	assert.Error(t, err, "out of range")

	_, err = OrderSpec(3, []int{0, 1, -1})
	assert.Error(t, err, "negative index")
}
