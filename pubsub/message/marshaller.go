package message

import (
	"bytes"
	"encoding/json"
	"reflect"
	"strconv"
	"time"

	"github.com/go-foreman/enrollsaga/runtime/scheme"
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
)

//go:generate mockgen --build_flags=--mod=mod -destination ../../testing/mocks/pubsub/message/marshaller.go -package message . Marshaller

// Marshaller converts objects to the wire format and back
type Marshaller interface {
	Marshal(obj Object) ([]byte, error)
	Unmarshal(b []byte) (Object, error)
}

// DecoderErr marks payloads that can never be decoded, retrying them makes no sense
type DecoderErr struct {
	error
}

func (e DecoderErr) Cause() error {
	return e.error
}

func WithDecoderErr(err error) error {
	return DecoderErr{err}
}

func IsDecoderErr(err error) bool {
	var decoderErr DecoderErr
	return errors.As(err, &decoderErr)
}

func NewJsonMarshaller(knownTypes scheme.KnownTypesRegistry) Marshaller {
	return &jsonMarshaller{knownTypes: knownTypes}
}

type jsonMarshaller struct {
	knownTypes scheme.KnownTypesRegistry
}

func (j jsonMarshaller) Marshal(obj Object) ([]byte, error) {
	gk := obj.GroupKind()

	if gk.Empty() {
		objGK, err := j.knownTypes.ObjectKind(obj)
		if err != nil {
			return nil, errors.Wrapf(err, "marshalling object")
		}
		obj.SetGroupKind(objGK)
	}

	res, err := json.Marshal(obj)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return res, nil
}

func (j jsonMarshaller) Unmarshal(b []byte) (Object, error) {
	unstructured := make(map[string]interface{})

	decoder := json.NewDecoder(bytes.NewReader(b))
	decoder.UseNumber()

	if err := decoder.Decode(&unstructured); err != nil {
		return nil, WithDecoderErr(errors.Wrap(err, "unmarshalling json"))
	}

	gk := scheme.GroupKind{}
	if group, ok := unstructured["group"].(string); ok {
		gk.Group = scheme.Group(group)
	}
	if kind, ok := unstructured["kind"].(string); ok {
		gk.Kind = kind
	}

	obj, err := j.knownTypes.NewObject(gk)
	if err != nil {
		return nil, WithDecoderErr(errors.Wrapf(err, "creating instance of object for %s", gk.String()))
	}

	//obj is a pointer to the registered struct, mapstructure fills it from the unstructured map
	decoderConf := mapstructure.DecoderConfig{
		Squash:  true,
		TagName: "json",
		Result:  obj,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeHookFunc(time.RFC3339Nano),
			mapstructure.StringToTimeDurationHookFunc(),
			base64ToBytesHook,
		),
	}

	objDecoder, err := mapstructure.NewDecoder(&decoderConf)
	if err != nil {
		return nil, WithDecoderErr(errors.WithStack(err))
	}

	if err := objDecoder.Decode(unstructured); err != nil {
		return nil, WithDecoderErr(errors.Wrapf(err, "decoding map into %s", gk.String()))
	}

	msgObj, ok := obj.(Object)
	if !ok {
		return nil, WithDecoderErr(errors.Errorf("type %T registered for %s is not a message object", obj, gk.String()))
	}

	return msgObj, nil
}

// encoding/json writes []byte as base64 strings
func base64ToBytesHook(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
	if from.Kind() != reflect.String || to != reflect.TypeOf([]byte(nil)) {
		return data, nil
	}

	var res []byte
	if err := json.Unmarshal([]byte(strconv.Quote(reflect.ValueOf(data).String())), &res); err != nil {
		return nil, errors.Wrap(err, "decoding base64 bytes")
	}

	return res, nil
}
