package sdk

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDispatcherSerializesWork(t *testing.T) {
	t.Parallel()

	d := newDispatcher(0)
	t.Cleanup(d.close)

	const goroutines = 50
	const iterations = 20

	counter := 0
	var wg sync.WaitGroup
	wg.Add(goroutines)
	for g := 0; g < goroutines; g++ {
		go func() {
			defer wg.Done()
			for i := 0; i < iterations; i++ {
				require.NoError(t, d.do(func() { counter++ }))
			}
		}()
	}
	wg.Wait()

	got, err := d.call(func() (any, error) { return counter, nil })
	require.NoError(t, err)
	require.Equal(t, goroutines*iterations, got)
}

func TestDispatcherCallReturnsError(t *testing.T) {
	t.Parallel()

	d := newDispatcher(4)
	t.Cleanup(d.close)

	errBoom := errors.New("boom")
	_, err := d.call(func() (any, error) { return nil, errBoom })
	require.ErrorIs(t, err, errBoom)

	v, err := d.call(nil)
	require.NoError(t, err)
	require.Nil(t, v)
}

func TestDispatcherCloseDrainsQueue(t *testing.T) {
	t.Parallel()

	d := newDispatcher(16)
	ran := 0
	for i := 0; i < 10; i++ {
		require.NoError(t, d.do(func() { ran++ }))
	}
	d.close()
	d.close()
	require.Equal(t, 10, ran)

	require.ErrorIs(t, d.do(func() {}), errDispatcherClosed)
	_, err := d.call(func() (any, error) { return nil, nil })
	require.ErrorIs(t, err, errDispatcherClosed)
}
