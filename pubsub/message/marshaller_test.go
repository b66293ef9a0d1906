package message

import (
	"testing"
	"time"

	"github.com/go-foreman/enrollsaga/runtime/scheme"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	group scheme.Group = "test"
)

// onlyTyped has group and kind but no uid, it can't travel over the bus
type onlyTyped struct {
	scheme.TypeMeta
	A int `json:"a"`
}

type SomeTestType struct {
	ObjectMeta
	A          int       `json:"a"`
	Seq        uint64    `json:"seq"`
	ID         int64     `json:"id"`
	Steps      []string  `json:"steps"`
	OccurredAt time.Time `json:"occurredAt"`
	Partition  *int      `json:"partition,omitempty"`
	Raw        []byte    `json:"raw"`
}

func TestJsonMarshaller(t *testing.T) {
	knownRegistry := scheme.NewKnownTypesRegistry()
	marshaller := NewJsonMarshaller(knownRegistry)
	knownRegistry.AddKnownTypes(group, &SomeTestType{})

	t.Run("marshal and unmarshal registered type", func(t *testing.T) {
		partition := 3
		instance := &SomeTestType{
			ObjectMeta: ObjectMeta{UID: "some-id"},
			A:          1,
			Seq:        18446744073709551615,
			ID:         9007199254740993,
			Steps:      []string{"ValidateCourse", "CreatePayment"},
			OccurredAt: time.Date(2024, 1, 2, 3, 4, 5, 6, time.UTC),
			Partition:  &partition,
			Raw:        []byte("payload"),
		}

		marshaled, err := marshaller.Marshal(instance)
		require.NoError(t, err)
		assert.Contains(t, string(marshaled), `"kind":"SomeTestType"`)
		assert.Contains(t, string(marshaled), `"group":"test"`)

		decodedObj, err := marshaller.Unmarshal(marshaled)
		require.NoError(t, err)
		require.IsType(t, &SomeTestType{}, decodedObj)
		assert.EqualValues(t, instance, decodedObj)
	})

	t.Run("unmarshal payload with empty GK", func(t *testing.T) {
		decodedObj, err := marshaller.Unmarshal([]byte(`{"group":"test","uid":"some-id","a":1}`))
		require.Error(t, err)
		assert.Nil(t, decodedObj)
		assert.True(t, IsDecoderErr(err))
		assert.Equal(t, "creating instance of object for test.: type test. is not registered in KnownTypes", err.Error())
	})

	t.Run("unmarshal invalid json", func(t *testing.T) {
		_, err := marshaller.Unmarshal([]byte(`{"group":`))
		require.Error(t, err)
		assert.True(t, IsDecoderErr(err))
	})

	t.Run("unmarshal wrong field type", func(t *testing.T) {
		_, err := marshaller.Unmarshal([]byte(`{"group":"test","kind":"SomeTestType","a":"not a number"}`))
		require.Error(t, err)
		assert.True(t, IsDecoderErr(err))
	})

	t.Run("unmarshal registered type that is not a message object", func(t *testing.T) {
		knownRegistry.AddKnownTypes(group, &onlyTyped{})

		decodedObj, err := marshaller.Unmarshal([]byte(`{"group":"test","kind":"onlyTyped","a":1}`))
		require.Error(t, err)
		assert.Nil(t, decodedObj)
		assert.True(t, IsDecoderErr(err))
		assert.Equal(t, "type *message.onlyTyped registered for test.onlyTyped is not a message object", err.Error())
	})

	t.Run("marshal unregistered type", func(t *testing.T) {
		_, err := marshaller.Marshal(&SomeEvent{})
		assert.EqualError(t, err, "marshalling object: no kind is registered in scheme for the type SomeEvent")
	})
}
