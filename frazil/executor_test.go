package frazil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitTasks(t *testing.T) {
	for _, tc := range []struct{ total, workers int }{
		{0, 4}, {1, 4}, {3, 4}, {4, 4}, {7, 4}, {8, 4}, {9, 4}, {100, 3}, {101, 8}, {5, 1},
	} {
		ranges := splitTasks(tc.total, tc.workers)
		next := 0
		for _, r := range ranges {
			assert.Equal(t, next, r[0], "total %d workers %d", tc.total, tc.workers)
			assert.Greater(t, r[1], r[0])
			next = r[1]
		}
		assert.Equal(t, tc.total, next, "total %d workers %d", tc.total, tc.workers)
	}
}

func TestSplitTasks_Halves(t *testing.T) {
	// 每个 worker 两个任务，余数单列
	assert.Equal(t, [][2]int{{0, 1}, {1, 3}, {3, 4}, {4, 6}, {6, 7}}, splitTasks(7, 2))
}
