package interfaces

import (
	"context"
	"errors"
	"time"
)

// ErrReadTimeout is returned by LogReader.Next when no record arrived within the timeout
var ErrReadTimeout = errors.New("event log read timeout")

// LogRecord is one raw record of the event log
type LogRecord struct {
	Offset    int64
	Value     []byte
	Timestamp time.Time
}

// EventLog is a single-partition append-only log. One client is shared by the process.
type EventLog interface {
	// Append writes value and returns its offset after the broker acknowledged it
	Append(ctx context.Context, value []byte) (int64, error)

	// Watermarks returns the lowest retained offset and the offset the next record will get
	Watermarks(ctx context.Context) (low int64, high int64, err error)

	// Reader opens an explicit position reader starting at offset. No consumer group is involved.
	Reader(ctx context.Context, offset int64) (LogReader, error)

	// Close releases the client
	Close() error
}

// LogReader reads records sequentially from a fixed starting offset
type LogReader interface {
	// Next waits up to timeout for the next record. Returns ErrReadTimeout if none arrived.
	Next(ctx context.Context, timeout time.Duration) (*LogRecord, error)

	// Close releases resources bound to the reader
	Close() error
}
