package saga

import (
	"context"
	"sort"

	"github.com/pkg/errors"
	"github.com/puzpuzpuz/xsync/v3"
)

// NewMemoryStore creates a store backed by a concurrent map. Instances are copied in and out.
func NewMemoryStore() Store {
	return &memStore{instances: xsync.NewMapOf[string, *Instance]()}
}

type memStore struct {
	instances *xsync.MapOf[string, *Instance]
}

func (m *memStore) Create(ctx context.Context, instance *Instance) error {
	if _, loaded := m.instances.LoadOrStore(instance.SagaID, instance.Clone()); loaded {
		return errors.Errorf("saga %s already exists", instance.SagaID)
	}
	return nil
}

func (m *memStore) GetById(ctx context.Context, sagaId string) (*Instance, error) {
	instance, ok := m.instances.Load(sagaId)
	if !ok {
		return nil, errors.Wrapf(ErrSagaNotFound, "loading saga %s", sagaId)
	}
	return instance.Clone(), nil
}

func (m *memStore) GetByFilter(ctx context.Context, filters ...FilterOption) ([]*Instance, error) {
	opts, err := parseFilters(filters)
	if err != nil {
		return nil, err
	}

	res := make([]*Instance, 0)
	m.instances.Range(func(_ string, instance *Instance) bool {
		if opts.match(instance) {
			res = append(res, instance.Clone())
		}
		return true
	})

	sort.Slice(res, func(i, j int) bool {
		if res[i].StartedAt.Equal(res[j].StartedAt) {
			return res[i].SagaID < res[j].SagaID
		}
		return res[i].StartedAt.Before(res[j].StartedAt)
	})

	if opts.offset != nil {
		if *opts.offset >= len(res) {
			return []*Instance{}, nil
		}
		res = res[*opts.offset:]
	}

	if opts.limit != nil && *opts.limit < len(res) {
		res = res[:*opts.limit]
	}

	return res, nil
}

func (m *memStore) Count(ctx context.Context, filters ...FilterOption) (int, error) {
	opts := countFilters(filters)

	count := 0
	m.instances.Range(func(_ string, instance *Instance) bool {
		if opts.match(instance) {
			count++
		}
		return true
	})

	return count, nil
}

func (m *memStore) Update(ctx context.Context, instance *Instance) error {
	var found bool
	m.instances.Compute(instance.SagaID, func(old *Instance, loaded bool) (*Instance, bool) {
		found = loaded
		if !loaded {
			return nil, true
		}
		return instance.Clone(), false
	})

	if !found {
		return errors.Wrapf(ErrSagaNotFound, "updating saga %s", instance.SagaID)
	}

	return nil
}

func (m *memStore) Delete(ctx context.Context, sagaId string) error {
	if _, loaded := m.instances.LoadAndDelete(sagaId); !loaded {
		return errors.Wrapf(ErrSagaNotFound, "deleting saga %s", sagaId)
	}
	return nil
}
