/*
Package pipeline implements the bounded fan-out used by the data parallel
stages of a conversion. A producer feeds items over a channel to a fixed
number of workers; each worker reports on its own error channel and the
channels are merged before returning.
*/
package pipeline

import (
	"context"
	"runtime"
	"sync"
)

// Workers returns n, or the number of CPUs when n isn't positive
func Workers(n int) int {
	if n > 0 {
		return n
	}
	return runtime.NumCPU()
}

func produce[T any](ctx context.Context, items []T) <-chan T {
	out := make(chan T)
	go func() {
		defer close(out)
		for _, item := range items {
			select {
			case out <- item:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

func worker[T any](id int, in <-chan T, fn func(int, T) error) <-chan error {
	errc := make(chan error, 1)
	go func() {
		defer close(errc)
		for item := range in {
			if err := fn(id, item); err != nil {
				errc <- err
				return
			}
		}
	}()
	return errc
}

// Run calls fn for every item using n workers. The first argument passed to
// fn is the worker number in [0, n) so callers can give each worker its own
// output. Run returns once every worker has finished, or with the first
// error reported.
func Run[T any](items []T, n int, fn func(int, T) error) error {
	ctx, cancelFunc := context.WithCancel(context.Background())
	defer cancelFunc()

	in := produce(ctx, items)

	errcList := make([]<-chan error, 0, n)
	for i := 0; i < n; i++ {
		errcList = append(errcList, worker(i, in, fn))
	}

	return Wait(errcList...)
}

// Wait blocks until all of the error channels are closed and returns the
// first non-nil error
func Wait(errs ...<-chan error) error {
	errc := Merge(errs...)
	for err := range errc {
		if err != nil {
			return err
		}
	}
	return nil
}

// Merge combines several error channels into one
func Merge(cs ...<-chan error) <-chan error {
	var wg sync.WaitGroup
	out := make(chan error, len(cs))
	wg.Add(len(cs))
	for _, c := range cs {
		go func(c <-chan error) {
			for n := range c {
				out <- n
			}
			wg.Done()
		}(c)
	}
	go func() {
		wg.Wait()
		close(out)
	}()
	return out
}
