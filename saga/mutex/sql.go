package mutex

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/go-foreman/enrollsaga/log"
	"github.com/go-foreman/enrollsaga/saga"
	"github.com/pkg/errors"
)

// NewSqlMutex creates a mutex backed by database named locks: GET_LOCK for mysql and advisory locks for postgres.
// Every held lock keeps its own connection out of the pool until it is released.
func NewSqlMutex(db *sql.DB, driver saga.SQLDriver, logger log.Logger) Mutex {
	if driver == saga.PGDriver {
		return &pgsqlMutex{db: db, logger: logger}
	}
	return &mysqlMutex{db: db, logger: logger}
}

type mysqlMutex struct {
	db     *sql.DB
	logger log.Logger
}

func (m *mysqlMutex) Lock(ctx context.Context, sagaId string) (Lock, error) {
	conn, err := m.db.Conn(ctx)
	if err != nil {
		return nil, WithMutexErr(errors.Wrapf(err, "obtaining a connection from pool for saga %s", sagaId))
	}

	r := sql.NullInt64{}
	if err := conn.QueryRowContext(ctx, "SELECT GET_LOCK(?, -1);", sagaId).Scan(&r); err != nil {
		closingErr := conn.Close()
		return nil, WithMutexErr(errors.Wrapf(err, "acquiring lock for saga %s. %s", sagaId, closingErr))
	}

	/*
		Returns 1 if the lock was obtained successfully,
		0 if the attempt timed out (for example, because another client has previously locked the name),
		or NULL if an error occurred (such as running out of memory or the thread was killed with mysqladmin kill).
	*/
	if r.Valid && r.Int64 == 1 {
		return &mysqlLock{conn: conn, sagaId: sagaId, logger: m.logger}, nil
	}

	closingErr := conn.Close()

	if !r.Valid {
		return nil, WithMutexErr(errors.Errorf("got NULL when acquiring lock for saga %s. %s", sagaId, closingErr))
	}

	return nil, WithMutexErr(errors.Errorf("got error status %d when acquiring lock for saga %s. %s", r.Int64, sagaId, closingErr))
}

type mysqlLock struct {
	conn   *sql.Conn
	sagaId string
	logger log.Logger
}

func (l *mysqlLock) Release(ctx context.Context) error {
	r := sql.NullInt64{}
	if err := l.conn.QueryRowContext(ctx, "SELECT RELEASE_LOCK(?);", l.sagaId).Scan(&r); err != nil {
		closingErr := l.conn.Close()
		return WithMutexErr(errors.Wrapf(err, "releasing lock for saga %s. %s", l.sagaId, closingErr))
	}

	if r.Int64 != 1 {
		closingErr := l.conn.Close()
		return WithMutexErr(errors.Errorf("lock was not established by this thread for saga %s. %s", l.sagaId, closingErr))
	}

	if err := l.conn.Close(); err != nil {
		l.logger.Logf(log.WarnLevel, "lock of saga %s is released but connection is not closed. %s", l.sagaId, err)
	}

	return nil
}

type pgsqlMutex struct {
	db     *sql.DB
	logger log.Logger
}

func (p *pgsqlMutex) Lock(ctx context.Context, sagaId string) (Lock, error) {
	conn, err := p.db.Conn(ctx)
	if err != nil {
		return nil, WithMutexErr(errors.Wrapf(err, "obtaining a connection from pool for saga %s", sagaId))
	}

	if _, err := conn.ExecContext(ctx, "SELECT pg_advisory_lock(hashtext($1));", sagaId); err != nil {
		errMsg := fmt.Sprintf("acquiring lock for saga %s. %s", sagaId, err)

		if closingErr := conn.Close(); closingErr != nil {
			errMsg = fmt.Sprintf("%s. also failed to close connection %s", errMsg, closingErr)
		}
		return nil, WithMutexErr(errors.New(errMsg))
	}

	return &pgsqlLock{conn: conn, sagaId: sagaId, logger: p.logger}, nil
}

type pgsqlLock struct {
	conn   *sql.Conn
	sagaId string
	logger log.Logger
}

func (l *pgsqlLock) Release(ctx context.Context) error {
	var unlocked bool
	if err := l.conn.QueryRowContext(ctx, "SELECT pg_advisory_unlock(hashtext($1));", l.sagaId).Scan(&unlocked); err != nil {
		closingErr := l.conn.Close()
		return WithMutexErr(errors.Wrapf(err, "releasing lock for saga %s. %s", l.sagaId, closingErr))
	}

	closingErr := l.conn.Close()

	if !unlocked {
		return WithMutexErr(errors.Errorf("lock was not established by this session for saga %s. %s", l.sagaId, closingErr))
	}

	if closingErr != nil {
		l.logger.Logf(log.WarnLevel, "lock of saga %s is released but connection is not closed. %s", l.sagaId, closingErr)
	}

	return nil
}
