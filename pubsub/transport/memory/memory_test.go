package memory

import (
	"context"
	"testing"
	"time"

	"github.com/go-foreman/enrollsaga/pubsub/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryTransport(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tr := NewTransport()
	require.NoError(t, tr.Connect(ctx))
	require.NoError(t, tr.CreateTopic(ctx, transport.NewTopic("payment-created")))
	require.NoError(t, tr.CreateQueue(ctx, transport.NewQueue("enrollment"), transport.NewQueueBind("payment-created", "")))
	require.NoError(t, tr.CreateQueue(ctx, transport.NewQueue("audit"), transport.NewQueueBind("payment-created", "")))

	t.Run("bind to unknown topic", func(t *testing.T) {
		err := tr.CreateQueue(ctx, transport.NewQueue("q"), transport.NewQueueBind("unknown", ""))
		assert.EqualError(t, err, "topic unknown does not exist")
	})

	t.Run("send to unknown topic", func(t *testing.T) {
		err := tr.Send(ctx, transport.NewOutboundPkg(nil, "", transport.DeliveryDestination{DestinationTopic: "unknown"}, nil, ""))
		assert.EqualError(t, err, "topic unknown does not exist")
	})

	t.Run("fan out to every bound queue", func(t *testing.T) {
		err := tr.Send(ctx, transport.NewOutboundPkg(
			[]byte("payload"),
			"application/json",
			transport.DeliveryDestination{DestinationTopic: "payment-created"},
			map[string]interface{}{"uid": "uid-1"},
			"pay-1",
		))
		require.NoError(t, err)
		assert.Equal(t, 1, tr.Pending("enrollment"))
		assert.Equal(t, 1, tr.Pending("audit"))

		income, err := tr.Consume(ctx, []transport.Queue{transport.NewQueue("enrollment")})
		require.NoError(t, err)

		inPkg := <-income
		assert.Equal(t, "uid-1", inPkg.UID())
		assert.Equal(t, "payment-created", inPkg.Origin())
		assert.Equal(t, "pay-1", inPkg.Key())
		assert.Equal(t, []byte("payload"), inPkg.Payload())

		require.NoError(t, inPkg.Nack(WithRequeue()))
		redelivered := <-income
		assert.Same(t, inPkg, redelivered)
		require.NoError(t, redelivered.Ack())
		assert.True(t, redelivered.(*inMemoryPkg).Acked())
	})

	t.Run("consume unknown queue", func(t *testing.T) {
		_, err := tr.Consume(ctx, []transport.Queue{transport.NewQueue("unknown")})
		assert.EqualError(t, err, "queue unknown does not exist")
	})

	t.Run("income closes on cancel", func(t *testing.T) {
		consumeCtx, cancelConsume := context.WithCancel(ctx)
		income, err := tr.Consume(consumeCtx, []transport.Queue{transport.NewQueue("audit")})
		require.NoError(t, err)
		cancelConsume()

		deadline := time.After(time.Second * 5)
		for {
			select {
			case _, open := <-income:
				if !open {
					return
				}
			case <-deadline:
				t.Fatal("income channel was not closed")
			}
		}
	})
}
