package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/segmentio/ksuid"

	"github.com/roman-kulish/flightlog/internal/telemetry"
)

// ErrNoData indicates that the requested flight does not exist.
var ErrNoData = errors.New("no data available")

// maxRowsPerStatement keeps batch inserts below SQLite's bound parameter limit.
const maxRowsPerStatement = 500

var _ Store = (*SqliteStore)(nil)

// SqliteStore handles database operations
type SqliteStore struct {
	dbPath string

	writeDB     *sql.DB
	writeDBOnce sync.Once
	writeDBErr  error

	readDB     *sql.DB
	readDBOnce sync.Once
	readDBErr  error

	closeOnce sync.Once
	closeErr  error
}

// NewSqliteStore returns a store backed by the SQLite database at dbPath.
// Connections are opened lazily; the schema is created on first write.
func NewSqliteStore(dbPath string) *SqliteStore {
	return &SqliteStore{dbPath: dbPath}
}

func runSQLCommand(db *sql.DB, sql string) error {
	_, err := db.Exec(sql)
	return err
}

func (s *SqliteStore) getWriteDB() (*sql.DB, error) {
	s.writeDBOnce.Do(func() {
		db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?%s", s.dbPath, "_journal_mode=WAL&_synchronous=NORMAL&_foreign_keys=on"))
		if err != nil {
			s.writeDBErr = fmt.Errorf("opening write connection: %w", err)
			return
		}
		db.SetMaxOpenConns(1)

		if err = runSQLCommand(db, initSchemaSQL); err != nil {
			_ = db.Close()
			s.writeDBErr = fmt.Errorf("initializing schema: %w", err)
			return
		}

		s.writeDB = db
	})

	return s.writeDB, s.writeDBErr
}

func (s *SqliteStore) getReadDB() (*sql.DB, error) {
	s.readDBOnce.Do(func() {
		db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?%s", s.dbPath, "mode=ro"))
		if err != nil {
			s.readDBErr = fmt.Errorf("opening read connection: %w", err)
			return
		}
		s.readDB = db
	})

	return s.readDB, s.readDBErr
}

func (s *SqliteStore) CreateFlight(ctx context.Context, src *FlightSource) (flightID int64, err error) {
	if src == nil {
		return 0, errors.New("flight source is required")
	}

	db, err := s.getWriteDB()
	if err != nil {
		err = fmt.Errorf("getting write connection: %w", err)
		return
	}

	stmt, err := db.PrepareContext(ctx, insertFlightSQL)
	if err != nil {
		err = fmt.Errorf("preparing statement: %w", err)
		return
	}
	defer closeWithError(stmt, &err)

	result, err := stmt.ExecContext(ctx,
		ksuid.New().String(),
		src.Path,
		time.Now().UTC(),
		src.HasHeader,
		src.FormatVersion,
		src.RecordSize,
	)
	if err != nil {
		err = fmt.Errorf("inserting flight: %w", err)
		return
	}

	flightID, err = result.LastInsertId()
	if err != nil {
		err = fmt.Errorf("getting flight ID: %w", err)
	}
	return
}

func (s *SqliteStore) StoreRecords(ctx context.Context, flightID, firstSeq int64, records []telemetry.FlightRecord) (err error) {
	if len(records) == 0 {
		return
	}

	db, err := s.getWriteDB()
	if err != nil {
		return fmt.Errorf("getting write connection: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer rollbackWithError(tx, &err)

	seq := firstSeq
	values := make([]any, 0, min(len(records), maxRowsPerStatement)*(len(recordColumns)+2))

	var sb strings.Builder
	for chunk := range slices.Chunk(records, maxRowsPerStatement) {
		sb.Reset()
		sb.WriteString(insertRecordSQL)
		values = values[:0]

		for i := range chunk {
			values = appendRecordValues(values, flightID, seq, &chunk[i])
			seq++

			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(recordPlaceholder)
		}

		if _, err = tx.ExecContext(ctx, sb.String(), values...); err != nil {
			return fmt.Errorf("batch inserting records: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}

func (s *SqliteStore) FinishFlight(ctx context.Context, flightID int64, recordCount, truncatedBytes int) error {
	return s.execWrite(ctx, finishFlightSQL, "updating flight", recordCount, truncatedBytes, flightID)
}

func (s *SqliteStore) DeleteFlight(ctx context.Context, flightID int64) error {
	return s.execWrite(ctx, deleteFlightSQL, "deleting flight", flightID)
}

func (s *SqliteStore) execWrite(ctx context.Context, query, op string, args ...any) error {
	db, err := s.getWriteDB()
	if err != nil {
		return fmt.Errorf("getting write connection: %w", err)
	}

	result, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%s: %w", op, ErrNoData)
	}
	return nil
}

func (s *SqliteStore) Flight(ctx context.Context, id int64) (flight *Flight, err error) {
	db, err := s.getReadDB()
	if err != nil {
		err = fmt.Errorf("getting read connection: %w", err)
		return
	}

	stmt, err := db.PrepareContext(ctx, selectFlightSQL)
	if err != nil {
		err = fmt.Errorf("preparing statement: %w", err)
		return
	}
	defer closeWithError(stmt, &err)

	if flight, err = scanFlight(stmt.QueryRowContext(ctx, id)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = fmt.Errorf("flight %d: %w", id, ErrNoData)
			return
		}
		err = fmt.Errorf("scanning flight: %w", err)
	}
	return
}

func (s *SqliteStore) Flights(ctx context.Context) (flights []*Flight, err error) {
	db, err := s.getReadDB()
	if err != nil {
		err = fmt.Errorf("getting read connection: %w", err)
		return
	}

	rows, err := db.QueryContext(ctx, selectFlightsSQL)
	if err != nil {
		err = fmt.Errorf("querying flights: %w", err)
		return
	}
	defer closeWithError(rows, &err)

	for rows.Next() {
		var f *Flight
		if f, err = scanFlight(rows); err != nil {
			err = fmt.Errorf("scanning flight: %w", err)
			return
		}
		flights = append(flights, f)
	}
	err = rows.Err()
	return
}

func scanFlight(rs rowScanner) (*Flight, error) {
	var f Flight
	err := rs.Scan(
		&f.ID,
		&f.UID,
		&f.SourcePath,
		&f.ImportedAt,
		&f.HasHeader,
		&f.FormatVersion,
		&f.RecordSize,
		&f.RecordCount,
		&f.TruncatedBytes,
	)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// ReadRecords creates a RecordReader over the records of a flight. Records are
// fetched in batches using keyset pagination, so arbitrarily long flights can
// be read without holding a cursor open between batches.
//
// The returned RecordReader must be closed after use. Each reader instance
// should only be used from a single goroutine.
func (s *SqliteStore) ReadRecords(ctx context.Context, flightID int64, opts ...ReaderOption) (*RecordReader, error) {
	db, err := s.getReadDB()
	if err != nil {
		return nil, fmt.Errorf("getting read connection: %w", err)
	}

	flight, err := s.Flight(ctx, flightID)
	if err != nil {
		return nil, err
	}

	return newRecordReader(db, flight, opts...)
}

func (s *SqliteStore) Close() error {
	s.closeOnce.Do(func() {
		var writeErr, readErr error

		if s.writeDB != nil {
			_ = runSQLCommand(s.writeDB, initIndexesSQL)

			writeErr = s.writeDB.Close()
			s.writeDB = nil
		}

		if s.readDB != nil {
			readErr = s.readDB.Close()
			s.readDB = nil
		}

		s.closeErr = errors.Join(writeErr, readErr)
	})

	return s.closeErr
}
