package idempotency

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-foreman/enrollsaga/saga"
	"github.com/pkg/errors"
)

type sqlStore struct {
	db     *sql.DB
	driver saga.SQLDriver
	now    func() time.Time
}

// NewSQLStore creates table processed_events if needed. Drivers are the same as for the saga store.
func NewSQLStore(db *sql.DB, driver saga.SQLDriver) (Store, error) {
	s := &sqlStore{db: db, driver: driver, now: time.Now}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*30)
	defer cancel()

	if _, err := db.ExecContext(ctx, `create table if not exists processed_events
	(
		consumer varchar(255) not null,
		event_id varchar(255) not null,
		processed_at timestamp null,
		primary key (consumer, event_id)
	);`); err != nil {
		return nil, errors.Wrapf(err, "initializing tables for idempotency store, driver %s", driver)
	}

	return s, nil
}

func (s *sqlStore) Processed(ctx context.Context, consumer, eventID string) (bool, error) {
	var found int
	err := s.db.QueryRowContext(ctx, saga.PrepQuery(s.driver, "SELECT 1 FROM processed_events WHERE consumer=? AND event_id=?;"), consumer, eventID).Scan(&found)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, errors.Wrapf(err, "querying processed event %s of %s", eventID, consumer)
	}

	return true, nil
}

func (s *sqlStore) MarkProcessed(ctx context.Context, consumer, eventID string) error {
	query := "INSERT IGNORE INTO processed_events (consumer, event_id, processed_at) VALUES (?, ?, ?);"
	if s.driver == saga.PGDriver {
		query = "INSERT INTO processed_events (consumer, event_id, processed_at) VALUES (?, ?, ?) ON CONFLICT DO NOTHING;"
	}

	if _, err := s.db.ExecContext(ctx, saga.PrepQuery(s.driver, query), consumer, eventID, s.now().UTC()); err != nil {
		return errors.Wrapf(err, "inserting processed event %s of %s", eventID, consumer)
	}

	return nil
}

func (s *sqlStore) Prune(ctx context.Context, before time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx, saga.PrepQuery(s.driver, "DELETE FROM processed_events WHERE processed_at < ?;"), before.UTC())
	if err != nil {
		return 0, errors.Wrap(err, "deleting processed events")
	}

	pruned, err := res.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "counting deleted processed events")
	}

	return int(pruned), nil
}
