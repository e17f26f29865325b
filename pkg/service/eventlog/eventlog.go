// Package eventlog provides single-partition append-only logs used as the activity topic.
// Three backends exist: Kafka (franz-go), Redis Streams (go-redis) and an in-process log for tests
// and development.
package eventlog

import (
	"errors"
	"fmt"

	"github.com/secmon-lab/trustflow/pkg/domain/interfaces"
)

// DefaultTopic is the activity topic name
const DefaultTopic = "trustflow-activity"

// ErrUnavailable is returned when the broker cannot be reached or rejects a request
var ErrUnavailable = errors.New("event log unavailable")

func unavailable(err error) error {
	return fmt.Errorf("%w: %w", ErrUnavailable, err)
}

var (
	_ interfaces.EventLog = &Memory{}
	_ interfaces.EventLog = &Redis{}
	_ interfaces.EventLog = &Kafka{}
)
