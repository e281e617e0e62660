package storage

import (
	"context"

	_ "github.com/mattn/go-sqlite3"

	"github.com/roman-kulish/flightlog/internal/telemetry"
)

// Store provides an interface for archiving decoded flight logs.
// All operations that write to the database should be considered atomic.
type Store interface {
	// CreateFlight registers a new flight for the given log file and returns
	// its identifier. Records are attached with StoreRecords.
	CreateFlight(ctx context.Context, src *FlightSource) (flightID int64, err error)

	// StoreRecords saves a batch of records in a single transaction. The first
	// record gets sequence number firstSeq, the following ones are numbered
	// consecutively.
	StoreRecords(ctx context.Context, flightID, firstSeq int64, records []telemetry.FlightRecord) error

	// FinishFlight records the outcome of the import.
	FinishFlight(ctx context.Context, flightID int64, recordCount, truncatedBytes int) error

	// DeleteFlight removes a flight and its records.
	DeleteFlight(ctx context.Context, flightID int64) error

	// Flight returns a single flight. It returns ErrNoData if it does not exist.
	Flight(ctx context.Context, id int64) (*Flight, error)

	// Flights returns all flights ordered by import time.
	Flights(ctx context.Context) ([]*Flight, error)

	// ReadRecords returns a reader over the records of a flight, in sequence
	// order. The reader must be closed after use.
	ReadRecords(ctx context.Context, flightID int64, opts ...ReaderOption) (*RecordReader, error)

	// Close releases all database connections. It is safe to call Close
	// multiple times.
	Close() error
}
