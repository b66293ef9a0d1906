package enrollsaga

import (
	"context"
	"testing"

	"github.com/go-foreman/enrollsaga/contracts"
	"github.com/go-foreman/enrollsaga/pubsub/dispatcher"
	"github.com/go-foreman/enrollsaga/pubsub/endpoint"
	"github.com/go-foreman/enrollsaga/pubsub/message"
	"github.com/go-foreman/enrollsaga/pubsub/transport"
	"github.com/go-foreman/enrollsaga/pubsub/transport/memory"
	"github.com/go-foreman/enrollsaga/runtime/scheme"
	"github.com/go-foreman/enrollsaga/testing/log"
	messageMock "github.com/go-foreman/enrollsaga/testing/mocks/pubsub/message"
	transportMock "github.com/go-foreman/enrollsaga/testing/mocks/pubsub/transport"
	"github.com/golang/mock/gomock"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type aComponent struct {
	err error
}

func (a aComponent) Init(b *MessageBus) error {
	return a.err
}

type fakeSubscriber struct {
	queues []string
}

func (f *fakeSubscriber) Run(ctx context.Context, queues ...transport.Queue) error {
	for _, q := range queues {
		f.queues = append(f.queues, q.Name())
	}
	return nil
}

func (f *fakeSubscriber) Stop(ctx context.Context) error {
	return nil
}

func TestMessageBusConfigOptions(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	dispatcherInstance := dispatcher.NewDispatcher()
	routerInstance := endpoint.NewRouter()
	marshallerMock := messageMock.NewMockMarshaller(ctrl)
	componentMock := &aComponent{}

	c := &container{}

	opts := []ConfigOption{
		WithDispatcher(dispatcherInstance),
		WithRouter(routerInstance),
		WithMarshaller(marshallerMock),
		WithComponents(componentMock),
	}

	for _, o := range opts {
		o(c)
	}

	assert.Same(t, dispatcherInstance, c.messagesDispatcher)
	assert.Same(t, routerInstance, c.router)
	assert.Same(t, marshallerMock, c.marshaller)
	assert.Equal(t, []Component{componentMock}, c.components)
}

func TestMessageBusConstructor(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	testLogger := log.NewNilLogger()
	schemeRegistry := scheme.NewKnownTypesRegistry()
	marshallerMock := messageMock.NewMockMarshaller(ctrl)
	sub := &fakeSubscriber{}

	t.Run("no transport", func(t *testing.T) {
		mBus, err := NewMessageBus(testLogger, nil)
		assert.Nil(t, mBus)
		assert.EqualError(t, err, "transport is nil")
	})

	t.Run("component error", func(t *testing.T) {
		mBus, err := NewMessageBus(testLogger, memory.NewTransport(), WithComponents(&aComponent{}, &aComponent{err: errors.New("component error")}))
		assert.Nil(t, mBus)
		assert.EqualError(t, err, "initializing component *enrollsaga.aComponent: component error")
	})

	t.Run("with opts", func(t *testing.T) {
		mBus, err := NewMessageBus(testLogger, memory.NewTransport(), WithSchemeRegistry(schemeRegistry), WithMarshaller(marshallerMock), WithSubscriber(sub))
		require.NoError(t, err)

		assert.Same(t, testLogger, mBus.Logger())
		assert.Same(t, schemeRegistry, mBus.SchemeRegistry())
		assert.Same(t, marshallerMock, mBus.Marshaller())
		assert.Same(t, sub, mBus.Subscriber())
	})

	t.Run("defaults", func(t *testing.T) {
		mBus, err := NewMessageBus(testLogger, memory.NewTransport())
		require.NoError(t, err)

		assert.NotNil(t, mBus.SchemeRegistry())
		assert.NotNil(t, mBus.Marshaller())
		assert.NotNil(t, mBus.Dispatcher())
		assert.NotNil(t, mBus.Router())
		assert.NotNil(t, mBus.Subscriber())
		assert.NotNil(t, mBus.Transport())
	})
}

func TestMessageBus_Send(t *testing.T) {
	ctx := context.Background()
	testLogger := log.NewNilLogger()

	t.Run("routes to topic", func(t *testing.T) {
		memTransport := memory.NewTransport()
		mBus, err := NewMessageBus(testLogger, memTransport)
		require.NoError(t, err)

		contracts.RegisterTypes(mBus.SchemeRegistry())
		mBus.RouteToTopic(contracts.PaymentCreatedTopic, &contracts.PaymentCreated{})
		mBus.ConsumeTopics("enrollment-service", contracts.PaymentCreatedTopic)
		require.NoError(t, mBus.Connect(ctx))

		ev := &contracts.PaymentCreated{EventID: "ev-1", PaymentID: "pay-1", UserID: 1, CourseID: 100, Amount: 10}
		require.NoError(t, mBus.Send(ctx, message.NewOutcomingMessage(ev)))

		assert.Equal(t, 1, memTransport.Pending("enrollment-service"))
	})

	t.Run("no route", func(t *testing.T) {
		mBus, err := NewMessageBus(testLogger, memory.NewTransport())
		require.NoError(t, err)

		msg := message.NewOutcomingMessage(&contracts.PaymentFailed{PaymentID: "pay-1"})
		err = mBus.Send(ctx, msg)
		assert.EqualError(t, err, "no endpoints defined for message "+msg.UID()+" of type *contracts.PaymentFailed")
	})

	t.Run("transport error", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		tMock := transportMock.NewMockTransport(ctrl)
		mBus, err := NewMessageBus(testLogger, tMock)
		require.NoError(t, err)

		contracts.RegisterTypes(mBus.SchemeRegistry())
		mBus.RouteToTopic(contracts.PaymentFailedTopic, &contracts.PaymentFailed{})

		tMock.EXPECT().Send(gomock.Any(), gomock.Any()).Return(errors.New("broker is down"))

		msg := message.NewOutcomingMessage(&contracts.PaymentFailed{PaymentID: "pay-1"})
		err = mBus.Send(ctx, msg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "broker is down")
	})
}

func TestMessageBus_Connect(t *testing.T) {
	ctx := context.Background()
	testLogger := log.NewNilLogger()

	t.Run("declares topics and queues", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		tMock := transportMock.NewMockTransport(ctrl)
		mBus, err := NewMessageBus(testLogger, tMock)
		require.NoError(t, err)

		mBus.RouteToTopic("payment-created", &contracts.PaymentCreated{})
		mBus.ConsumeTopics("payment-service", "enrollment-result")
		mBus.DeclareTopics("enrollment-result-dlt")

		assert.Equal(t, []string{"enrollment-result", "enrollment-result-dlt", "payment-created"}, mBus.Topics())

		gomock.InOrder(
			tMock.EXPECT().Connect(gomock.Any()).Return(nil),
			tMock.EXPECT().CreateTopic(gomock.Any(), transport.NewTopic("enrollment-result")).Return(nil),
			tMock.EXPECT().CreateTopic(gomock.Any(), transport.NewTopic("enrollment-result-dlt")).Return(nil),
			tMock.EXPECT().CreateTopic(gomock.Any(), transport.NewTopic("payment-created")).Return(nil),
			tMock.EXPECT().CreateQueue(gomock.Any(), transport.NewQueue("payment-service"), transport.NewQueueBind("enrollment-result", "#")).Return(nil),
		)

		require.NoError(t, mBus.Connect(ctx))
	})

	t.Run("topic error", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		tMock := transportMock.NewMockTransport(ctrl)
		mBus, err := NewMessageBus(testLogger, tMock)
		require.NoError(t, err)

		mBus.DeclareTopics("saga-events")

		tMock.EXPECT().Connect(gomock.Any()).Return(nil)
		tMock.EXPECT().CreateTopic(gomock.Any(), gomock.Any()).Return(errors.New("not authorized"))

		assert.EqualError(t, mBus.Connect(ctx), "creating topic saga-events: not authorized")
	})

	t.Run("connection error", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		tMock := transportMock.NewMockTransport(ctrl)
		mBus, err := NewMessageBus(testLogger, tMock)
		require.NoError(t, err)

		tMock.EXPECT().Connect(gomock.Any()).Return(errors.New("dial tcp: connection refused"))

		assert.EqualError(t, mBus.Connect(ctx), "connecting transport: dial tcp: connection refused")
	})
}

func TestMessageBus_Run(t *testing.T) {
	ctx := context.Background()
	sub := &fakeSubscriber{}

	mBus, err := NewMessageBus(log.NewNilLogger(), memory.NewTransport(), WithSubscriber(sub))
	require.NoError(t, err)

	assert.EqualError(t, mBus.Run(ctx), "no queues to consume, bind one with ConsumeTopics")

	mBus.ConsumeTopics("saga-coordinator", "saga-events")
	mBus.ConsumeTopics("payment-service", "enrollment-result")

	require.NoError(t, mBus.Run(ctx))
	assert.Equal(t, []string{"payment-service", "saga-coordinator"}, sub.queues)
}
