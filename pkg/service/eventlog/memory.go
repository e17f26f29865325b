package eventlog

import (
	"context"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/trustflow/pkg/domain/interfaces"
)

// Memory is an in-process event log. Offsets start at 0.
type Memory struct {
	mu      sync.Mutex
	records []*interfaces.LogRecord // records[i].Offset == low + i
	low     int64
	notify  chan struct{}
	closed  bool
}

func NewMemory() *Memory {
	return &Memory{notify: make(chan struct{})}
}

func (m *Memory) Append(ctx context.Context, value []byte) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return 0, goerr.Wrap(ErrUnavailable, "event log is closed")
	}

	copied := make([]byte, len(value))
	copy(copied, value)

	offset := m.low + int64(len(m.records))
	m.records = append(m.records, &interfaces.LogRecord{
		Offset:    offset,
		Value:     copied,
		Timestamp: time.Now().UTC(),
	})

	close(m.notify)
	m.notify = make(chan struct{})

	return offset, nil
}

func (m *Memory) Watermarks(ctx context.Context) (int64, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return 0, 0, goerr.Wrap(ErrUnavailable, "event log is closed")
	}
	return m.low, m.low + int64(len(m.records)), nil
}

// DeleteBefore drops records below offset, moving the low watermark like broker retention does
func (m *Memory) DeleteBefore(offset int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if offset <= m.low {
		return
	}
	n := min(offset-m.low, int64(len(m.records)))
	m.records = m.records[n:]
	m.low += n
}

func (m *Memory) Reader(ctx context.Context, offset int64) (interfaces.LogReader, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, goerr.Wrap(ErrUnavailable, "event log is closed")
	}
	return &memoryReader{log: m, next: offset}, nil
}

func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// at returns the record at offset, or a channel closed on the next append
func (m *Memory) at(offset int64) (*interfaces.LogRecord, <-chan struct{}) {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := offset - m.low
	if idx >= 0 && idx < int64(len(m.records)) {
		return m.records[idx], nil
	}
	return nil, m.notify
}

type memoryReader struct {
	log  *Memory
	next int64
}

func (r *memoryReader) Next(ctx context.Context, timeout time.Duration) (*interfaces.LogRecord, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		// Records deleted by retention are skipped like a broker resets to the low watermark
		if low, _, err := r.log.Watermarks(ctx); err == nil && r.next < low {
			r.next = low
		}

		rec, wait := r.log.at(r.next)
		if rec != nil {
			r.next++
			return rec, nil
		}

		select {
		case <-wait:
		case <-timer.C:
			return nil, interfaces.ErrReadTimeout
		case <-ctx.Done():
			return nil, goerr.Wrap(ctx.Err(), "event log read canceled")
		}
	}
}

func (r *memoryReader) Close() error {
	return nil
}
