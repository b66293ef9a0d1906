package subscriber

import (
	"context"
	"testing"
	"time"

	"github.com/go-foreman/enrollsaga/pubsub/dispatcher"
	puberrors "github.com/go-foreman/enrollsaga/pubsub/errors"
	"github.com/go-foreman/enrollsaga/pubsub/message"
	"github.com/go-foreman/enrollsaga/pubsub/message/execution"
	"github.com/go-foreman/enrollsaga/runtime/scheme"
	"github.com/go-foreman/enrollsaga/testing/log"
	mockMessage "github.com/go-foreman/enrollsaga/testing/mocks/pubsub/message"
	mockTransport "github.com/go-foreman/enrollsaga/testing/mocks/pubsub/transport"
	"github.com/golang/mock/gomock"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type someTest struct {
	message.ObjectMeta
	Data string `json:"data"`
}

type anotherTest struct {
	message.ObjectMeta
}

func TestProcessor(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	testLogger := log.NewNilLogger()
	marshaller := mockMessage.NewMockMarshaller(ctrl)
	msgDispatcher := dispatcher.NewDispatcher()
	execCtxFactory := execution.NewMessageExecutionCtxFactory(nil, testLogger)

	pkgProcessor := NewMessageProcessor(marshaller, execCtxFactory, msgDispatcher, testLogger)

	payload := []byte(`{"kind":"someTest","group":"testGroup","data":"111"}`)
	data := &someTest{
		Data: "111",
		ObjectMeta: message.ObjectMeta{
			TypeMeta: scheme.TypeMeta{Kind: "someTest", Group: "testGroup"},
		},
	}

	var executed []*message.ReceivedMessage
	msgDispatcher.Subscribe(&someTest{}, func(execCtx execution.MessageExecutionCtx) error {
		executed = append(executed, execCtx.Message())
		if execCtx.Message().Payload().(*someTest).Data == "fail" {
			return errors.New("always return an error")
		}
		return nil
	})

	newPkg := func() *mockTransport.MockIncomingPkg {
		inPkg := mockTransport.NewMockIncomingPkg(ctrl)
		inPkg.EXPECT().Payload().Return(payload).AnyTimes()
		inPkg.EXPECT().UID().Return("123").AnyTimes()
		inPkg.EXPECT().Origin().Return("payment-created").AnyTimes()
		inPkg.EXPECT().Headers().Return(map[string]interface{}{"traceId": "trace-1", "uid": "123"}).AnyTimes()
		inPkg.EXPECT().ReceivedAt().Return(time.Time{}).AnyTimes()
		return inPkg
	}

	ctx := context.Background()

	t.Run("successfully process a pkg", func(t *testing.T) {
		executed = nil
		marshaller.EXPECT().Unmarshal(payload).Return(data, nil)

		require.NoError(t, pkgProcessor.Process(ctx, newPkg()))
		require.Len(t, executed, 1)
		assert.Equal(t, "123", executed[0].UID())
		assert.Equal(t, "trace-1", executed[0].TraceID())
		assert.Equal(t, "payment-created", executed[0].Origin())
		assert.Same(t, data, executed[0].Payload())
	})

	t.Run("error unmarshalling payload is not retried", func(t *testing.T) {
		marshaller.EXPECT().Unmarshal(payload).Return(nil, message.WithDecoderErr(errors.New("some error")))

		err := pkgProcessor.Process(ctx, newPkg())
		assert.EqualError(t, err, "decoding package 123: some error")
		assert.Equal(t, puberrors.NoRetry, puberrors.GetStatus(err))
	})

	t.Run("no executors defined", func(t *testing.T) {
		obj := &anotherTest{ObjectMeta: message.ObjectMeta{TypeMeta: scheme.TypeMeta{Kind: "anotherTest", Group: "testGroup"}}}
		marshaller.EXPECT().Unmarshal(payload).Return(obj, nil)

		err := pkgProcessor.Process(ctx, newPkg())
		assert.EqualError(t, err, "no executors defined for message 123 of kind testGroup.anotherTest")
		assert.Equal(t, puberrors.NoRetry, puberrors.GetStatus(err))

		var noExecutorsErr NoExecutorsDefinedErr
		assert.True(t, errors.As(err, &noExecutorsErr))
	})

	t.Run("executor returns an error", func(t *testing.T) {
		failing := &someTest{Data: "fail", ObjectMeta: data.ObjectMeta}
		marshaller.EXPECT().Unmarshal(payload).Return(failing, nil)

		err := pkgProcessor.Process(ctx, newPkg())
		assert.EqualError(t, err, "executing message 123 of kind testGroup.someTest: always return an error")
		assert.Equal(t, puberrors.Retry, puberrors.GetStatus(err))
	})
}
