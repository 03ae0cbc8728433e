package eventbus

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type testEvent struct{ name string }

func (e testEvent) Name() string { return e.name }

func TestBus_PublishCallsAllSubscribers(t *testing.T) {
	bus := New(zap.NewNop(), time.Second)
	var calls int32

	for i := 0; i < 3; i++ {
		bus.Subscribe("a", func(ctx context.Context, event Event) error {
			atomic.AddInt32(&calls, 1)
			return nil
		})
	}
	bus.Subscribe("b", func(ctx context.Context, event Event) error {
		atomic.AddInt32(&calls, 100)
		return nil
	})

	bus.Publish(context.Background(), testEvent{name: "a"})
	bus.Wait()

	assert.Equal(t, int32(3), atomic.LoadInt32(&calls), "должны быть вызваны только подписчики события 'a'")
}

func TestBus_ListenerErrorDoesNotStopOthers(t *testing.T) {
	bus := New(zap.NewNop(), time.Second)
	var ok int32

	bus.Subscribe("a", func(ctx context.Context, event Event) error {
		return errors.New("boom")
	})
	bus.Subscribe("a", func(ctx context.Context, event Event) error {
		atomic.AddInt32(&ok, 1)
		return nil
	})

	bus.Publish(context.Background(), testEvent{name: "a"})
	bus.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&ok))
}

func TestBus_HandlerOutlivesCallerContext(t *testing.T) {
	bus := New(zap.NewNop(), time.Second)
	done := make(chan error, 1)

	bus.Subscribe("a", func(ctx context.Context, event Event) error {
		done <- ctx.Err()
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	bus.Publish(ctx, testEvent{name: "a"})
	bus.Wait()

	assert.NoError(t, <-done, "отмена контекста вызывающего не должна отменять обработчик")
}
