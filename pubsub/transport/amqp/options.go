package amqp

import (
	"github.com/go-foreman/enrollsaga/pubsub/transport"
	"github.com/pkg/errors"
)

type ConsumeOptions struct {
	Exclusive     bool
	NoLocal       bool
	NoWait        bool
	PrefetchCount uint
}

func convertConsumeOptsType(options interface{}) (*ConsumeOptions, error) {
	opts, ok := options.(*ConsumeOptions)

	if !ok {
		return nil, errors.Errorf("this option must be called on amqp.ConsumeOptions type")
	}

	return opts, nil
}

func convertSendOptsType(options interface{}) (*SendOptions, error) {
	opts, ok := options.(*SendOptions)

	if !ok {
		return nil, errors.Errorf("this option must be called on amqp.SendOptions type")
	}

	return opts, nil
}

func WithQosPrefetchCount(limit uint) transport.ConsumeOpts {
	return func(options interface{}) error {
		opts, err := convertConsumeOptsType(options)

		if err != nil {
			return errors.Wrap(err, "calling WithQosPrefetchCount opt")
		}
		opts.PrefetchCount = limit
		return nil
	}
}

func WithExclusive() transport.ConsumeOpts {
	return func(options interface{}) error {
		opts, err := convertConsumeOptsType(options)

		if err != nil {
			return errors.Wrap(err, "calling WithExclusive opt")
		}

		opts.Exclusive = true

		return nil
	}
}

func WithNoLocal() transport.ConsumeOpts {
	return func(options interface{}) error {
		opts, err := convertConsumeOptsType(options)

		if err != nil {
			return errors.Wrap(err, "calling WithNoLocal opt")
		}

		opts.NoLocal = true

		return nil
	}
}

type SendOptions struct {
	Mandatory bool
	Immediate bool
}

func WithMandatory() transport.SendOpts {
	return func(options interface{}) error {
		opts, err := convertSendOptsType(options)

		if err != nil {
			return errors.Wrap(err, "calling WithMandatory opt")
		}

		opts.Mandatory = true

		return nil
	}
}
