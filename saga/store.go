package saga

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

var ErrSagaNotFound = errors.New("saga not found")

//go:generate mockgen --build_flags=--mod=mod -destination ../testing/mocks/saga/store.go -package saga . Store

// Store keeps projected saga instances. Implementations are safe for concurrent use and never share returned instances with their internal state.
type Store interface {
	Create(ctx context.Context, instance *Instance) error
	// GetById returns ErrSagaNotFound when there is no such saga
	GetById(ctx context.Context, sagaId string) (*Instance, error)
	GetByFilter(ctx context.Context, filters ...FilterOption) ([]*Instance, error)
	// Count returns how many instances match filters, offset and limit are ignored. No filters count the whole store.
	Count(ctx context.Context, filters ...FilterOption) (int, error)
	Update(ctx context.Context, instance *Instance) error
	Delete(ctx context.Context, sagaId string) error
}

type FilterOption func(opts *filterOptions)

func WithSagaId(sagaId string) FilterOption {
	return func(opts *filterOptions) {
		opts.sagaId = sagaId
	}
}

func WithStatus(statuses ...Status) FilterOption {
	return func(opts *filterOptions) {
		opts.statuses = append(opts.statuses, statuses...)
	}
}

// WithUpdatedBefore selects instances that were not updated since t
func WithUpdatedBefore(t time.Time) FilterOption {
	return func(opts *filterOptions) {
		opts.updatedBefore = &t
	}
}

func WithOffsetAndLimit(offset, limit int) FilterOption {
	return func(opts *filterOptions) {
		opts.offset = &offset
		opts.limit = &limit
	}
}

type filterOptions struct {
	sagaId        string
	statuses      []Status
	updatedBefore *time.Time
	offset        *int
	limit         *int
}

func (f *filterOptions) empty() bool {
	return f.sagaId == "" && len(f.statuses) == 0 && f.updatedBefore == nil && f.limit == nil
}

func (f *filterOptions) match(instance *Instance) bool {
	if f.sagaId != "" && instance.SagaID != f.sagaId {
		return false
	}

	if f.updatedBefore != nil && !instance.UpdatedAt.Before(*f.updatedBefore) {
		return false
	}

	if len(f.statuses) == 0 {
		return true
	}

	for _, s := range f.statuses {
		if instance.Status == s {
			return true
		}
	}

	return false
}

func countFilters(filters []FilterOption) *filterOptions {
	opts := &filterOptions{}
	for _, f := range filters {
		f(opts)
	}
	opts.offset, opts.limit = nil, nil
	return opts
}

func parseFilters(filters []FilterOption) (*filterOptions, error) {
	if len(filters) == 0 {
		return nil, errors.New("no filters found, you have to specify at least one so result won't be whole store")
	}

	opts := &filterOptions{}
	for _, f := range filters {
		f(opts)
	}

	if opts.empty() {
		return nil, errors.New("all specified filters are empty, you have to specify at least one so result won't be whole store")
	}

	return opts, nil
}
