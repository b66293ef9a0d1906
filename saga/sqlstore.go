package saga

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

const (
	MYSQLDriver SQLDriver = "mysql"
	PGDriver    SQLDriver = "pg"

	sagaTableName = "saga_instance"
	sagaColumns   = "saga_id, user_id, course_id, payment_id, enrollment_id, status, completed_steps, compensated_steps, failed_step, error_message, last_sequence, started_at, updated_at"
)

type SQLDriver string

type sqlStore struct {
	db     *sql.DB
	driver SQLDriver
}

// NewSQLStore creates sql saga store, it supports mysql and postgres drivers.
// driver param is required because placeholders differ, see https://github.com/golang/go/issues/3602.
// Mysql DSN must have parseTime=true.
func NewSQLStore(db *sql.DB, driver SQLDriver) (Store, error) {
	s := &sqlStore{db: db, driver: driver}
	if err := s.initTables(); err != nil {
		return nil, errors.Wrapf(err, "initializing tables for SQLStore, driver %s", driver)
	}

	return s, nil
}

func (s *sqlStore) Create(ctx context.Context, instance *Instance) error {
	completed, compensated, err := marshalSteps(instance)
	if err != nil {
		return errors.Wrapf(err, "marshalling steps of saga %s", instance.SagaID)
	}

	_, err = s.db.ExecContext(ctx, s.prepQuery(fmt.Sprintf("INSERT INTO %s (%s) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);", sagaTableName, sagaColumns)),
		instance.SagaID,
		instance.UserID,
		instance.CourseID,
		instance.PaymentID,
		instance.EnrollmentID,
		instance.Status.String(),
		completed,
		compensated,
		instance.FailedStep,
		instance.ErrorMessage,
		instance.LastSequence,
		instance.StartedAt,
		instance.UpdatedAt,
	)
	if err != nil {
		return errors.Wrapf(err, "inserting saga instance %s", instance.SagaID)
	}

	return nil
}

func (s *sqlStore) GetById(ctx context.Context, sagaId string) (*Instance, error) {
	row := s.db.QueryRowContext(ctx, s.prepQuery(fmt.Sprintf("SELECT %s FROM %s WHERE saga_id=?;", sagaColumns, sagaTableName)), sagaId)

	instance, err := scanInstance(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errors.Wrapf(ErrSagaNotFound, "loading saga %s", sagaId)
		}
		return nil, errors.Wrapf(err, "loading saga %s", sagaId)
	}

	return instance, nil
}

func (s *sqlStore) GetByFilter(ctx context.Context, filters ...FilterOption) ([]*Instance, error) {
	opts, err := parseFilters(filters)
	if err != nil {
		return nil, err
	}

	where, args := whereClause(opts)
	query := fmt.Sprintf("SELECT %s FROM %s%s", sagaColumns, sagaTableName, where)

	query += " ORDER BY started_at, saga_id"

	if opts.limit != nil {
		query += fmt.Sprintf(" LIMIT %d", *opts.limit)
	}

	if opts.offset != nil {
		query += fmt.Sprintf(" OFFSET %d", *opts.offset)
	}

	rows, err := s.db.QueryContext(ctx, s.prepQuery(query+";"), args...)
	if err != nil {
		return nil, errors.Wrap(err, "querying sagas with filter")
	}

	defer rows.Close()

	res := make([]*Instance, 0)

	for rows.Next() {
		instance, err := scanInstance(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scanning saga")
		}
		res = append(res, instance)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.WithStack(err)
	}

	return res, nil
}

func (s *sqlStore) Count(ctx context.Context, filters ...FilterOption) (int, error) {
	where, args := whereClause(countFilters(filters))

	var count int
	if err := s.db.QueryRowContext(ctx, s.prepQuery(fmt.Sprintf("SELECT COUNT(*) FROM %s%s;", sagaTableName, where)), args...).Scan(&count); err != nil {
		return 0, errors.Wrap(err, "counting sagas with filter")
	}

	return count, nil
}

func whereClause(opts *filterOptions) (string, []interface{}) {
	var (
		args       []interface{}
		conditions []string
	)

	if opts.sagaId != "" {
		conditions = append(conditions, "saga_id = ?")
		args = append(args, opts.sagaId)
	}

	if len(opts.statuses) > 0 {
		placeholders := make([]string, len(opts.statuses))
		for i, st := range opts.statuses {
			placeholders[i] = "?"
			args = append(args, st.String())
		}
		conditions = append(conditions, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ", ")))
	}

	if opts.updatedBefore != nil {
		conditions = append(conditions, "updated_at < ?")
		args = append(args, *opts.updatedBefore)
	}

	if len(conditions) == 0 {
		return "", args
	}

	return " WHERE " + strings.Join(conditions, " AND "), args
}

// Update doesn't check affected rows, mysql reports zero when nothing changed
func (s *sqlStore) Update(ctx context.Context, instance *Instance) error {
	completed, compensated, err := marshalSteps(instance)
	if err != nil {
		return errors.Wrapf(err, "marshalling steps of saga %s", instance.SagaID)
	}

	_, err = s.db.ExecContext(ctx, s.prepQuery(fmt.Sprintf("UPDATE %s SET user_id=?, course_id=?, payment_id=?, enrollment_id=?, status=?, completed_steps=?, compensated_steps=?, failed_step=?, error_message=?, last_sequence=?, started_at=?, updated_at=? WHERE saga_id=?;", sagaTableName)),
		instance.UserID,
		instance.CourseID,
		instance.PaymentID,
		instance.EnrollmentID,
		instance.Status.String(),
		completed,
		compensated,
		instance.FailedStep,
		instance.ErrorMessage,
		instance.LastSequence,
		instance.StartedAt,
		instance.UpdatedAt,
		instance.SagaID,
	)
	if err != nil {
		return errors.Wrapf(err, "updating saga instance %s", instance.SagaID)
	}

	return nil
}

func (s *sqlStore) Delete(ctx context.Context, sagaId string) error {
	res, err := s.db.ExecContext(ctx, s.prepQuery(fmt.Sprintf("DELETE FROM %s WHERE saga_id=?;", sagaTableName)), sagaId)
	if err != nil {
		return errors.Wrapf(err, "executing delete query for saga %s", sagaId)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return errors.Wrapf(err, "getting response of delete query for saga %s", sagaId)
	}

	if rows == 0 {
		return errors.Wrapf(ErrSagaNotFound, "deleting saga %s", sagaId)
	}

	return nil
}

func (s *sqlStore) initTables() error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*30)
	defer cancel()

	_, err := s.db.ExecContext(ctx, fmt.Sprintf(`create table if not exists %s
	(
		saga_id varchar(255) not null primary key,
		user_id bigint not null,
		course_id bigint not null,
		payment_id varchar(255) null,
		enrollment_id varchar(255) null,
		status varchar(32) not null,
		completed_steps text null,
		compensated_steps text null,
		failed_step varchar(255) null,
		error_message text null,
		last_sequence bigint not null,
		started_at timestamp null,
		updated_at timestamp null
	);`, sagaTableName))

	return errors.WithStack(err)
}

// prepQuery replaces wildcard params to specific driver. Standard wildcard is '?'
func (s *sqlStore) prepQuery(query string) string {
	return PrepQuery(s.driver, query)
}

// PrepQuery rewrites '?' placeholders into '$n' for postgres
func PrepQuery(driver SQLDriver, query string) string {
	if driver != PGDriver {
		return query
	}

	var res []byte
	counter := 1

	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			res = append(append(res, '$'), []byte(strconv.Itoa(counter))...)
			counter++
			continue
		}
		res = append(res, query[i])
	}

	return string(res)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanInstance(row rowScanner) (*Instance, error) {
	var (
		instance     Instance
		status       string
		paymentID    sql.NullString
		enrollmentID sql.NullString
		completed    sql.NullString
		compensated  sql.NullString
		failedStep   sql.NullString
		errorMessage sql.NullString
		startedAt    sql.NullTime
		updatedAt    sql.NullTime
	)

	if err := row.Scan(
		&instance.SagaID,
		&instance.UserID,
		&instance.CourseID,
		&paymentID,
		&enrollmentID,
		&status,
		&completed,
		&compensated,
		&failedStep,
		&errorMessage,
		&instance.LastSequence,
		&startedAt,
		&updatedAt,
	); err != nil {
		return nil, err
	}

	instance.Status = Status(status)
	if !instance.Status.Valid() {
		return nil, errors.Errorf("unknown status %q of saga %s", status, instance.SagaID)
	}

	instance.PaymentID = paymentID.String
	instance.EnrollmentID = enrollmentID.String
	instance.FailedStep = failedStep.String
	instance.ErrorMessage = errorMessage.String
	instance.StartedAt = startedAt.Time
	instance.UpdatedAt = updatedAt.Time

	var err error
	if instance.CompletedSteps, err = unmarshalSteps(completed); err != nil {
		return nil, errors.Wrapf(err, "decoding completed steps of saga %s", instance.SagaID)
	}

	if instance.CompensatedSteps, err = unmarshalSteps(compensated); err != nil {
		return nil, errors.Wrapf(err, "decoding compensated steps of saga %s", instance.SagaID)
	}

	return &instance, nil
}

func marshalSteps(instance *Instance) (string, string, error) {
	completed, err := json.Marshal(nonNil(instance.CompletedSteps))
	if err != nil {
		return "", "", err
	}

	compensated, err := json.Marshal(nonNil(instance.CompensatedSteps))
	if err != nil {
		return "", "", err
	}

	return string(completed), string(compensated), nil
}

func unmarshalSteps(v sql.NullString) ([]string, error) {
	steps := make([]string, 0)
	if !v.Valid || v.String == "" {
		return steps, nil
	}

	if err := json.Unmarshal([]byte(v.String), &steps); err != nil {
		return nil, err
	}

	return steps, nil
}

func nonNil(steps []string) []string {
	if steps == nil {
		return []string{}
	}
	return steps
}
