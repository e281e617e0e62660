package storage

import (
	"time"

	"github.com/roman-kulish/flightlog/internal/telemetry"
)

// Flight is a decoded log file stored in the archive.
type Flight struct {
	ID             int64     `json:"id"`             // Database identifier
	UID            string    `json:"uid"`            // Globally unique flight identifier (KSUID)
	SourcePath     string    `json:"sourcePath"`     // Path of the imported log file
	ImportedAt     time.Time `json:"importedAt"`     // When the import started
	HasHeader      bool      `json:"hasHeader"`      // Whether the log carried an RLG1 header
	FormatVersion  uint16    `json:"formatVersion"`  // Header format version, zero for legacy logs
	RecordSize     int       `json:"recordSize"`     // Record size in bytes
	RecordCount    int       `json:"recordCount"`    // Number of records stored
	TruncatedBytes int       `json:"truncatedBytes"` // Size of the dropped trailing partial record
}

// FlightSource describes a log file about to be imported.
type FlightSource struct {
	Path          string
	HasHeader     bool
	FormatVersion uint16
	RecordSize    int
}

// Record is a stored flight record with its position in the log.
type Record struct {
	Seq int64 `json:"seq"`
	telemetry.FlightRecord
}
