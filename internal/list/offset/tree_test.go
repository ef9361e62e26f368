package offset

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sliceIndex is the obvious linear implementation, used as the oracle.
type sliceIndex []int

func (s sliceIndex) total() int {
	t := 0
	for _, v := range s {
		t += v
	}
	return t
}

func (s sliceIndex) indexOfOffset(y int) (int, int) {
	acc := 0
	for i, v := range s {
		if y < acc+v {
			return i, y - acc
		}
		acc += v
	}
	last := len(s) - 1
	return last, y - (acc - s[last])
}

func alternating(n int) []int {
	values := make([]int, n)
	for i := range values {
		if i%2 == 0 {
			values[i] = 20
		} else {
			values[i] = 30
		}
	}
	return values
}

func TestTreeQueries(t *testing.T) {
	t.Parallel()

	t.Run("empty", func(t *testing.T) {
		t.Parallel()
		tree := NewTree(nil)
		assert.Equal(t, 0, tree.Total())
		assert.Equal(t, 0, tree.Count())
		idx, rem := tree.IndexOfOffset(10)
		assert.Equal(t, -1, idx)
		assert.Equal(t, 0, rem)
	})

	t.Run("alternating heights", func(t *testing.T) {
		t.Parallel()
		tree := NewTree(alternating(100))
		require.Equal(t, 100, tree.Count())
		assert.Equal(t, 2500, tree.Total())

		idx, rem := tree.IndexOfOffset(0)
		assert.Equal(t, 0, idx)
		assert.Equal(t, 0, rem)

		// 245 = 4*50 + 20 + 25: item 9 spans [220,250).
		idx, rem = tree.IndexOfOffset(245)
		assert.Equal(t, 9, idx)
		assert.Equal(t, 25, rem)
		assert.Equal(t, 220, tree.AccumulatedUpTo(9))

		idx, rem = tree.IndexOfOffset(220)
		assert.Equal(t, 9, idx)
		assert.Equal(t, 0, rem)
	})

	t.Run("offset past the end clamps to the last item", func(t *testing.T) {
		t.Parallel()
		tree := NewTree([]int{10, 10, 10})
		idx, rem := tree.IndexOfOffset(1000)
		assert.Equal(t, 2, idx)
		assert.Equal(t, 980, rem)
	})

	t.Run("zero height entries never contain an offset", func(t *testing.T) {
		t.Parallel()
		tree := NewTree([]int{5, 0, 0, 5})
		idx, rem := tree.IndexOfOffset(5)
		assert.Equal(t, 3, idx)
		assert.Equal(t, 0, rem)
	})

	t.Run("accumulated clamps", func(t *testing.T) {
		t.Parallel()
		tree := NewTree([]int{1, 2, 3})
		assert.Equal(t, 0, tree.AccumulatedUpTo(-4))
		assert.Equal(t, 3, tree.AccumulatedUpTo(2))
		assert.Equal(t, 6, tree.AccumulatedUpTo(42))
	})
}

func TestTreeRangeOperations(t *testing.T) {
	t.Parallel()

	tree := NewTree([]int{1, 2, 3, 4, 5})
	tree.ReplaceRange(1, []int{20, 30})
	assert.Equal(t, []int{1, 20, 30, 4, 5}, tree.Values())

	tree.RemoveRange(0, 2)
	assert.Equal(t, []int{30, 4, 5}, tree.Values())

	tree.InsertRange(3, []int{7, 8})
	assert.Equal(t, []int{30, 4, 5, 7, 8}, tree.Values())

	tree.InsertRange(0, []int{9})
	assert.Equal(t, []int{9, 30, 4, 5, 7, 8}, tree.Values())
	assert.Equal(t, 63, tree.Total())

	assert.Panics(t, func() { tree.RemoveRange(4, 3) })
	assert.Panics(t, func() { tree.InsertRange(7, []int{1}) })
	assert.Panics(t, func() { tree.ValueAt(6) })
}

func TestTreeMatchesSlice(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewPCG(7, 11))
	var oracle sliceIndex
	tree := NewTree(nil)

	randomValues := func() []int {
		values := make([]int, rng.IntN(20))
		for i := range values {
			values[i] = rng.IntN(8)
		}
		return values
	}

	for step := range 2000 {
		switch rng.IntN(3) {
		case 0:
			values := randomValues()
			at := rng.IntN(len(oracle) + 1)
			tree.InsertRange(at, values)
			oracle = append(oracle[:at:at], append(values, oracle[at:]...)...)
		case 1:
			if len(oracle) == 0 {
				continue
			}
			at := rng.IntN(len(oracle))
			count := rng.IntN(len(oracle) - at + 1)
			tree.RemoveRange(at, count)
			oracle = append(oracle[:at:at], oracle[at+count:]...)
		case 2:
			if len(oracle) == 0 {
				continue
			}
			at := rng.IntN(len(oracle))
			values := randomValues()
			values = values[:min(len(values), len(oracle)-at)]
			tree.ReplaceRange(at, values)
			copy(oracle[at:], values)
		}

		require.Equal(t, len(oracle), tree.Count(), "step %d", step)
		require.Equal(t, oracle.total(), tree.Total(), "step %d", step)
		if len(oracle) == 0 {
			continue
		}
		i := rng.IntN(len(oracle))
		require.Equal(t, oracle[i], tree.ValueAt(i), "step %d", step)
		y := rng.IntN(oracle.total() + 10)
		wantIdx, wantRem := oracle.indexOfOffset(y)
		gotIdx, gotRem := tree.IndexOfOffset(y)
		require.Equal(t, wantIdx, gotIdx, "step %d offset %d", step, y)
		require.Equal(t, wantRem, gotRem, "step %d offset %d", step, y)
	}
	if len(oracle) > 0 {
		assert.Equal(t, []int(oracle), tree.Values())
	}
}
