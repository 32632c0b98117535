package database

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/npri-watch/npri-api/internal/config"
)

func newMockDB(t *testing.T, opts Options) (*DB, sqlmock.Sqlmock) {
	t.Helper()

	mockDB, mock, err := sqlmock.New(
		sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual),
		sqlmock.MonitorPingsOption(true),
	)
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	return New(mockDB, opts), mock
}

func TestNilConnectionHandling(t *testing.T) {
	t.Run("Close with nil DB pointer", func(t *testing.T) {
		db := &DB{DB: nil}
		db.Close()
	})

	t.Run("Close with nil DB", func(t *testing.T) {
		var db *DB
		db.Close()
	})
}

func TestClose(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	db := New(mockDB, Options{})
	mock.ExpectClose()

	db.Close()

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNew_Defaults(t *testing.T) {
	db, _ := newMockDB(t, Options{})

	assert.Equal(t, 15*time.Second, db.queryTimeout)
	assert.Equal(t, "disabled", db.BreakerState())

	db, _ = newMockDB(t, Options{QueryTimeout: time.Second, Breaker: config.BreakerSettings{Enabled: true}})
	assert.Equal(t, time.Second, db.queryTimeout)
	assert.Equal(t, "closed", db.BreakerState())
}

func TestQuery(t *testing.T) {
	const q = `SELECT * FROM "npri_exporter_table" WHERE "NpriID" IN ($1, $2)`

	t.Run("Rows are materialized in column order", func(t *testing.T) {
		db, mock := newMockDB(t, Options{})

		mock.ExpectQuery(q).
			WithArgs("1", "15").
			WillReturnRows(sqlmock.NewRows([]string{"NpriID", "FacilityName", "geom"}).
				AddRow(1, "Refinery", []byte("0101000020")).
				AddRow(15, "Smelter", nil))

		rs, err := db.Query(context.Background(), q, "1", "15")
		require.NoError(t, err)

		assert.Equal(t, []string{"NpriID", "FacilityName", "geom"}, rs.Columns)
		require.Len(t, rs.Rows, 2)
		assert.Equal(t, "0101000020", rs.Rows[0][2])
		assert.Nil(t, rs.Rows[1][2])
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Empty result is an empty slice", func(t *testing.T) {
		db, mock := newMockDB(t, Options{})

		mock.ExpectQuery(q).WithArgs("1", "15").WillReturnRows(sqlmock.NewRows([]string{"NpriID"}))

		rs, err := db.Query(context.Background(), q, "1", "15")
		require.NoError(t, err)
		assert.NotNil(t, rs.Rows)
		assert.Empty(t, rs.Rows)
	})

	t.Run("Errors are returned", func(t *testing.T) {
		db, mock := newMockDB(t, Options{})

		pqErr := &pq.Error{Code: "42P01", Message: `relation "npri_exporter_table" does not exist`}
		mock.ExpectQuery(q).WithArgs("1", "15").WillReturnError(pqErr)

		rs, err := db.Query(context.Background(), q, "1", "15")
		assert.Nil(t, rs)
		assert.ErrorIs(t, err, pqErr)
	})

	t.Run("Row errors are returned", func(t *testing.T) {
		db, mock := newMockDB(t, Options{})

		mock.ExpectQuery(q).WithArgs("1", "15").
			WillReturnRows(sqlmock.NewRows([]string{"NpriID"}).AddRow(1).RowError(0, errors.New("connection reset")))

		_, err := db.Query(context.Background(), q, "1", "15")
		assert.Error(t, err)
	})

	t.Run("Timeout surfaces as deadline exceeded", func(t *testing.T) {
		db, mock := newMockDB(t, Options{QueryTimeout: 20 * time.Millisecond})

		mock.ExpectQuery(q).WithArgs("1", "15").
			WillDelayFor(time.Second).
			WillReturnRows(sqlmock.NewRows([]string{"NpriID"}).AddRow(1))

		_, err := db.Query(context.Background(), q, "1", "15")
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("Query id is read from the context", func(t *testing.T) {
		ctx := WithQueryID(context.Background(), "q-42")
		assert.Equal(t, "q-42", QueryIDFromContext(ctx))
		assert.Equal(t, "", QueryIDFromContext(context.Background()))
	})
}

func TestQuery_Breaker(t *testing.T) {
	const q = `SELECT * FROM "npri_tri_table" WHERE "SubstanceID" IN ($1)`

	breaker := config.BreakerSettings{
		Enabled:          true,
		MaxRequests:      1,
		Interval:         time.Minute,
		Timeout:          time.Minute,
		FailureThreshold: 2,
	}

	t.Run("Opens after consecutive server failures", func(t *testing.T) {
		db, mock := newMockDB(t, Options{Breaker: breaker})

		mock.ExpectQuery(q).WithArgs("7").WillReturnError(errors.New("connection refused"))
		mock.ExpectQuery(q).WithArgs("7").WillReturnError(errors.New("connection refused"))

		_, err := db.Query(context.Background(), q, "7")
		require.Error(t, err)
		_, err = db.Query(context.Background(), q, "7")
		require.Error(t, err)

		_, err = db.Query(context.Background(), q, "7")
		assert.ErrorIs(t, err, gobreaker.ErrOpenState)
		assert.Equal(t, "open", db.BreakerState())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Statement errors do not open it", func(t *testing.T) {
		db, mock := newMockDB(t, Options{Breaker: breaker})

		for i := 0; i < 3; i++ {
			mock.ExpectQuery(q).WithArgs("7").WillReturnError(&pq.Error{Code: "42703"})
		}

		for i := 0; i < 3; i++ {
			_, err := db.Query(context.Background(), q, "7")
			var pqErr *pq.Error
			require.True(t, errors.As(err, &pqErr))
		}

		assert.Equal(t, "closed", db.BreakerState())
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestQueryReadOnly(t *testing.T) {
	const q = `SELECT "NpriID" FROM npri_exporter_table LIMIT 1`

	t.Run("Commits after reading", func(t *testing.T) {
		db, mock := newMockDB(t, Options{})

		mock.ExpectBegin()
		mock.ExpectPrepare(q).ExpectQuery().WillReturnRows(sqlmock.NewRows([]string{"NpriID"}).AddRow(3))
		mock.ExpectCommit()

		rs, err := db.QueryReadOnly(context.Background(), q)
		require.NoError(t, err)
		assert.Equal(t, [][]any{{3}}, rs.Rows)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Rolls back when the statement fails", func(t *testing.T) {
		db, mock := newMockDB(t, Options{})

		readOnly := &pq.Error{Code: "25006", Message: "cannot execute DELETE in a read-only transaction"}
		mock.ExpectBegin()
		mock.ExpectPrepare("DELETE FROM npri_exporter_table RETURNING *").ExpectQuery().WillReturnError(readOnly)
		mock.ExpectRollback()

		_, err := db.QueryReadOnly(context.Background(), "DELETE FROM npri_exporter_table RETURNING *")
		assert.ErrorIs(t, err, readOnly)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Multiple commands never reach execution", func(t *testing.T) {
		db, mock := newMockDB(t, Options{})

		const stacked = "SELECT 1; COMMIT; DROP TABLE npri_exporter_table"
		multi := &pq.Error{Code: "42601", Message: "cannot insert multiple commands into a prepared statement"}
		mock.ExpectBegin()
		mock.ExpectPrepare(stacked).WillReturnError(multi)
		mock.ExpectRollback()

		_, err := db.QueryReadOnly(context.Background(), stacked)
		assert.ErrorIs(t, err, multi)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Begin failure", func(t *testing.T) {
		db, mock := newMockDB(t, Options{})

		mock.ExpectBegin().WillReturnError(errors.New("too many connections"))

		_, err := db.QueryReadOnly(context.Background(), q)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to begin transaction")
	})
}

func TestTransaction(t *testing.T) {
	t.Run("Successful transaction", func(t *testing.T) {
		db, mock := newMockDB(t, Options{})

		mock.ExpectBegin()
		mock.ExpectCommit()

		err := db.Transaction(context.Background(), nil, func(tx *sql.Tx) error {
			return nil
		})

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Function error rolls back", func(t *testing.T) {
		db, mock := newMockDB(t, Options{})

		mock.ExpectBegin()
		mock.ExpectRollback()

		fnErr := errors.New("function error")
		err := db.Transaction(context.Background(), nil, func(tx *sql.Tx) error {
			return fnErr
		})

		assert.Equal(t, fnErr, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Rollback failure", func(t *testing.T) {
		db, mock := newMockDB(t, Options{})

		mock.ExpectBegin()
		mock.ExpectRollback().WillReturnError(errors.New("rollback error"))

		err := db.Transaction(context.Background(), nil, func(tx *sql.Tx) error {
			return errors.New("function error")
		})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to rollback transaction")
	})

	t.Run("Commit failure", func(t *testing.T) {
		db, mock := newMockDB(t, Options{})

		mock.ExpectBegin()
		mock.ExpectCommit().WillReturnError(errors.New("commit error"))

		err := db.Transaction(context.Background(), nil, func(tx *sql.Tx) error {
			return nil
		})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to commit transaction")
	})

	t.Run("Panic rolls back and re-panics", func(t *testing.T) {
		db, mock := newMockDB(t, Options{})

		mock.ExpectBegin()
		mock.ExpectRollback()

		defer func() {
			r := recover()
			assert.Equal(t, "panic test", r)
			assert.NoError(t, mock.ExpectationsWereMet())
		}()

		_ = db.Transaction(context.Background(), nil, func(tx *sql.Tx) error {
			panic("panic test")
		})
	})
}

func TestHealthCheck(t *testing.T) {
	t.Run("Successful health check", func(t *testing.T) {
		db, mock := newMockDB(t, Options{})

		mock.ExpectPing()
		mock.ExpectQuery("SELECT 1").WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))

		assert.NoError(t, db.HealthCheck(context.Background()))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Ping failure", func(t *testing.T) {
		db, mock := newMockDB(t, Options{})

		mock.ExpectPing().WillReturnError(errors.New("connection refused"))

		err := db.HealthCheck(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database health check failed")
	})

	t.Run("Query failure", func(t *testing.T) {
		db, mock := newMockDB(t, Options{})

		mock.ExpectPing()
		mock.ExpectQuery("SELECT 1").WillReturnError(errors.New("query error"))

		err := db.HealthCheck(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database query test failed")
	})

	t.Run("Unexpected result", func(t *testing.T) {
		db, mock := newMockDB(t, Options{})

		mock.ExpectPing()
		mock.ExpectQuery("SELECT 1").WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(2))

		err := db.HealthCheck(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database returned unexpected result")
	})
}

func TestConnect_Unreachable(t *testing.T) {
	cfg := &config.AppConfig{
		Database: config.DatabaseSettings{
			Host:         "127.0.0.1",
			Port:         1,
			Name:         "npri",
			User:         "reader",
			SSLMode:      "disable",
			MaxOpenConns: 1,
		},
	}

	db, err := Connect(context.Background(), cfg)
	assert.Nil(t, db)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to ping database")
}
