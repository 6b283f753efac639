package event

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFireRunsListenersInOrder(t *testing.T) {
	b := New()
	var got []string
	b.Listen("order.created", func(_ context.Context, p interface{}) error {
		got = append(got, "first:"+p.(string))
		return nil
	})
	b.Listen("order.created", func(_ context.Context, p interface{}) error {
		got = append(got, "second:"+p.(string))
		return nil
	})
	b.Listen("other", func(context.Context, interface{}) error {
		t.Fatal("unrelated listener called")
		return nil
	})

	assert.NoError(t, b.Fire(context.Background(), "order.created", "12"))
	assert.Equal(t, []string{"first:12", "second:12"}, got)
}

func TestFireStopsAtFirstErrorAndRecoversPanics(t *testing.T) {
	b := New()
	boom := errors.New("boom")
	b.Listen("e", func(context.Context, interface{}) error { return boom })
	b.Listen("e", func(context.Context, interface{}) error { t.Fatal("should not run"); return nil })
	assert.ErrorIs(t, b.Fire(context.Background(), "e", nil), boom)

	p := New()
	p.Listen("e", func(context.Context, interface{}) error { panic("bad listener") })
	assert.ErrorContains(t, p.Fire(context.Background(), "e", nil), "bad listener")
}

func TestFireAsyncSurvivesCancelledCaller(t *testing.T) {
	b := New()
	var calls atomic.Int32
	for i := 0; i < 3; i++ {
		b.Listen("e", func(ctx context.Context, _ interface{}) error {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			calls.Add(1)
			return nil
		})
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	b.FireAsync(ctx, "e", nil)
	b.Wait()

	assert.EqualValues(t, 3, calls.Load())
}
