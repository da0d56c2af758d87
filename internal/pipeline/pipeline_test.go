package pipeline

import (
	"errors"
	"runtime"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWorkers(t *testing.T) {
	assert.Equal(t, 3, Workers(3))
	assert.Equal(t, runtime.NumCPU(), Workers(0))
	assert.Equal(t, runtime.NumCPU(), Workers(-1))
}

func TestRun(t *testing.T) {
	items := make([]int, 1000)
	for i := range items {
		items[i] = i + 1
	}

	const n = 4
	sums := make([]int, n)
	err := Run(items, n, func(w int, item int) error {
		sums[w] += item
		return nil
	})
	assert.NoError(t, err)

	total := 0
	for _, s := range sums {
		total += s
	}
	assert.Equal(t, 1000*1001/2, total)
}

func TestRunError(t *testing.T) {
	errBoom := errors.New("boom")

	var calls atomic.Int64
	err := Run([]int{1, 2, 3, 4, 5}, 2, func(_ int, item int) error {
		calls.Add(1)
		if item == 3 {
			return errBoom
		}
		return nil
	})
	assert.ErrorIs(t, err, errBoom)
	assert.GreaterOrEqual(t, calls.Load(), int64(1))
}

func TestRunEmpty(t *testing.T) {
	assert.NoError(t, Run([]string(nil), 4, func(int, string) error {
		t.Error("unexpected call")
		return nil
	}))
}

func TestWait(t *testing.T) {
	a := make(chan error, 1)
	b := make(chan error, 1)
	a <- nil
	close(a)
	b <- errors.New("second")
	close(b)

	assert.EqualError(t, Wait(a, b), "second")
}
