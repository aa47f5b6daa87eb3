package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sermir2003/stoilo/internal/blobstore"
	"github.com/sermir2003/stoilo/internal/domain"
	"github.com/sermir2003/stoilo/internal/logging"
)

// PostgresStore is the Store implementation backing the Task Gateway,
// Validator and Assimilator. Grounded on nova's
// internal/store.PostgresStore: a pgxpool.Pool constructed once,
// schema ensured idempotently at startup, every operation a single
// round trip.
type PostgresStore struct {
	pool      *pgxpool.Pool
	overflow  blobstore.Overflow // nil disables blob offload; every blob stays inline
	threshold int64
}

// Option configures a PostgresStore at construction.
type Option func(*PostgresStore)

// WithBlobOverflow enables offloading blobs larger than thresholdBytes
// to the given Overflow store (SPEC_FULL §3.5).
func WithBlobOverflow(o blobstore.Overflow, thresholdBytes int64) Option {
	return func(s *PostgresStore) {
		s.overflow = o
		s.threshold = thresholdBytes
	}
}

// NewPostgresStore opens a connection pool of at most poolSize
// connections (the DSN's own pool params apply when poolSize <= 0),
// pings it, and ensures the task_data schema exists.
func NewPostgresStore(ctx context.Context, dsn string, poolSize int, opts ...Option) (*PostgresStore, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres DSN is required")
	}

	pgxCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres DSN: %w", err)
	}
	if poolSize > 0 {
		pgxCfg.MaxConns = int32(poolSize)
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, fmt.Errorf("create postgres pool: %w", err)
	}

	s := &PostgresStore{pool: pool}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	if err := s.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	if s.pool == nil {
		return fmt.Errorf("postgres not initialized")
	}
	return s.pool.Ping(ctx)
}

// ensureSchema creates task_data if it does not already exist. The VCH
// owns the workunit/result tables read by GetTaskIDForWorkunit/Result;
// this store never creates or migrates them (spec §6).
func (s *PostgresStore) ensureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS task_data (
			task_id             TEXT PRIMARY KEY,
			flavor              TEXT NOT NULL,
			call_spec           BYTEA NOT NULL,
			init_valid_func     BYTEA NOT NULL,
			compare_valid_func  BYTEA NOT NULL,
			task_status         SMALLINT NOT NULL,
			result_status       SMALLINT,
			returned            BYTEA,
			error_message       TEXT
		)
	`)
	if err != nil {
		return fmt.Errorf("ensure task_data schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) CreateTask(ctx context.Context, taskID, flavor string, callSpec, initValidFunc, compareValidFunc []byte) error {
	callSpec, err := s.maybeOffload(ctx, taskID, "call_spec", callSpec)
	if err != nil {
		return err
	}
	initValidFunc, err = s.maybeOffload(ctx, taskID, "init_valid_func", initValidFunc)
	if err != nil {
		return err
	}
	compareValidFunc, err = s.maybeOffload(ctx, taskID, "compare_valid_func", compareValidFunc)
	if err != nil {
		return err
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO task_data (task_id, flavor, call_spec, init_valid_func, compare_valid_func, task_status)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, taskID, flavor, callSpec, initValidFunc, compareValidFunc, domain.TaskStatusRunning)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateTask
		}
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

func (s *PostgresStore) SetTaskFailed(ctx context.Context, taskID, errorMessage string) bool {
	tag, err := s.pool.Exec(ctx, `
		UPDATE task_data
		SET task_status = $1, result_status = $2, error_message = $3
		WHERE task_id = $4 AND task_status = $5
	`, domain.TaskStatusFinished, domain.ResultStatusSystemError, errorMessage, taskID, domain.TaskStatusRunning)
	if err != nil {
		logging.Op().Error("failed to mark task failed", "task_id", taskID, "error", err)
		return false
	}
	return tag.RowsAffected() > 0
}

func (s *PostgresStore) SetTaskFinished(ctx context.Context, taskID string, resultStatus domain.ResultStatus, returned []byte, errorMessage string) (bool, error) {
	encodedReturned, err := s.maybeOffload(ctx, taskID, "returned", returned)
	if err != nil {
		return false, err
	}

	tag, err := s.pool.Exec(ctx, `
		UPDATE task_data
		SET task_status = $1, result_status = $2, returned = $3, error_message = $4
		WHERE task_id = $5 AND task_status = $6
	`, domain.TaskStatusFinished, resultStatus, encodedReturned, errorMessage, taskID, domain.TaskStatusRunning)
	if err != nil {
		return false, fmt.Errorf("set task finished: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *PostgresStore) GetTaskStatus(ctx context.Context, taskID string) (*domain.Task, error) {
	var (
		t            domain.Task
		taskStatus   int32
		resultStatus *int32
		returned     []byte
		errorMessage *string
	)
	err := s.pool.QueryRow(ctx, `
		SELECT task_id, flavor, task_status, result_status, returned, error_message
		FROM task_data
		WHERE task_id = $1
	`, taskID).Scan(&t.TaskID, &t.Flavor, &taskStatus, &resultStatus, &returned, &errorMessage)
	if err == pgx.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get task status: %w", err)
	}

	t.TaskStatus = domain.TaskStatus(taskStatus)
	if resultStatus != nil {
		t.ResultStatus = domain.ResultStatus(*resultStatus)
		t.ResultStatusValid = true
	}
	if len(returned) > 0 {
		rehydrated, err := s.maybeRehydrate(ctx, returned)
		if err != nil {
			return nil, err
		}
		t.Returned = rehydrated
	}
	if errorMessage != nil {
		t.ErrorMessage = *errorMessage
	}
	return &t, nil
}

func (s *PostgresStore) GetTaskIDForWorkunit(ctx context.Context, wuID string) (string, error) {
	var taskID string
	err := s.pool.QueryRow(ctx, `SELECT name FROM workunit WHERE id = $1`, wuID).Scan(&taskID)
	if err == pgx.ErrNoRows {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get task_id for workunit %s: %w", wuID, err)
	}
	return taskID, nil
}

func (s *PostgresStore) GetTaskIDForResult(ctx context.Context, resultID string) (string, error) {
	var workunitID string
	err := s.pool.QueryRow(ctx, `SELECT workunitid FROM result WHERE id = $1`, resultID).Scan(&workunitID)
	if err == pgx.ErrNoRows {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get workunit for result %s: %w", resultID, err)
	}
	return s.GetTaskIDForWorkunit(ctx, workunitID)
}

func (s *PostgresStore) GetValidationFunc(ctx context.Context, taskID string, mode domain.ValidationMode) ([]byte, error) {
	var column string
	switch mode {
	case domain.ValidationModeInit:
		column = "init_valid_func"
	case domain.ValidationModeCompare:
		column = "compare_valid_func"
	default:
		return nil, fmt.Errorf("invalid validation mode: %s", mode)
	}

	var blob []byte
	err := s.pool.QueryRow(ctx, fmt.Sprintf(`SELECT %s FROM task_data WHERE task_id = $1`, column), taskID).Scan(&blob)
	if err == pgx.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get validation func (%s) for task %s: %w", mode, taskID, err)
	}
	return s.maybeRehydrate(ctx, blob)
}

func (s *PostgresStore) maybeOffload(ctx context.Context, taskID, field string, data []byte) ([]byte, error) {
	if s.overflow == nil || s.threshold <= 0 || int64(len(data)) <= s.threshold {
		return data, nil
	}
	ref, err := s.overflow.Put(ctx, taskID, field, data)
	if err != nil {
		return nil, fmt.Errorf("offload %s blob for task %s: %w", field, taskID, err)
	}
	return []byte(ref), nil
}

func (s *PostgresStore) maybeRehydrate(ctx context.Context, data []byte) ([]byte, error) {
	if s.overflow == nil || !isOverflowRef(data) {
		return data, nil
	}
	return s.overflow.Get(ctx, string(data))
}

func isOverflowRef(data []byte) bool {
	return len(data) > len(blobstore.RefPrefix) && string(data[:len(blobstore.RefPrefix)]) == blobstore.RefPrefix
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
