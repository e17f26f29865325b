package eventlog

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/redis/go-redis/v9"
	"github.com/secmon-lab/trustflow/pkg/domain/interfaces"
)

const redisValueField = "value"

// appendScript allocates the next offset and appends the entry with stream ID "<offset+1>-0"
// in one atomic step, so stream IDs map one-to-one onto log offsets.
var appendScript = redis.NewScript(`
local seq = redis.call('INCR', KEYS[2])
local id = seq .. '-0'
local maxlen = tonumber(ARGV[2])
if maxlen > 0 then
  redis.call('XADD', KEYS[1], 'MAXLEN', '~', maxlen, id, 'value', ARGV[1])
else
  redis.call('XADD', KEYS[1], id, 'value', ARGV[1])
end
return seq - 1
`)

// Redis is an event log on a Redis stream
type Redis struct {
	client *redis.Client
	stream string
	maxLen int64
}

type RedisOption func(*Redis)

// WithRedisMaxLen caps the stream length (approximate trimming), acting as retention
func WithRedisMaxLen(n int64) RedisOption {
	return func(r *Redis) {
		r.maxLen = n
	}
}

// NewRedis wraps client. The client is owned by the event log and closed by Close.
func NewRedis(client *redis.Client, stream string, opts ...RedisOption) *Redis {
	r := &Redis{
		client: client,
		stream: stream,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Redis) seqKey() string {
	return r.stream + ":seq"
}

func (r *Redis) Append(ctx context.Context, value []byte) (int64, error) {
	offset, err := appendScript.Run(ctx, r.client, []string{r.stream, r.seqKey()}, value, r.maxLen).Int64()
	if err != nil {
		return 0, goerr.Wrap(unavailable(err), "failed to append to stream", goerr.V("stream", r.stream))
	}
	return offset, nil
}

func (r *Redis) Watermarks(ctx context.Context) (int64, int64, error) {
	seq, err := r.client.Get(ctx, r.seqKey()).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return 0, 0, goerr.Wrap(unavailable(err), "failed to get stream sequence", goerr.V("stream", r.stream))
	}
	high := seq

	first, err := r.client.XRangeN(ctx, r.stream, "-", "+", 1).Result()
	if err != nil {
		return 0, 0, goerr.Wrap(unavailable(err), "failed to read stream head", goerr.V("stream", r.stream))
	}
	if len(first) == 0 {
		return high, high, nil
	}

	low, err := offsetFromStreamID(first[0].ID)
	if err != nil {
		return 0, 0, err
	}
	return low, high, nil
}

func (r *Redis) Reader(ctx context.Context, offset int64) (interfaces.LogReader, error) {
	if offset < 0 {
		offset = 0
	}
	return &redisReader{
		client: r.client,
		stream: r.stream,
		lastID: fmt.Sprintf("%d-0", offset),
	}, nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}

func offsetFromStreamID(id string) (int64, error) {
	ms, _, ok := strings.Cut(id, "-")
	if !ok {
		return 0, goerr.New("malformed stream ID", goerr.V("id", id))
	}
	n, err := strconv.ParseInt(ms, 10, 64)
	if err != nil {
		return 0, goerr.Wrap(err, "malformed stream ID", goerr.V("id", id))
	}
	return n - 1, nil
}

type redisReader struct {
	client *redis.Client
	stream string
	lastID string
}

func (r *redisReader) Next(ctx context.Context, timeout time.Duration) (*interfaces.LogRecord, error) {
	if timeout < time.Millisecond {
		timeout = time.Millisecond
	}

	streams, err := r.client.XRead(ctx, &redis.XReadArgs{
		Streams: []string{r.stream, r.lastID},
		Count:   1,
		Block:   timeout,
	}).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, interfaces.ErrReadTimeout
		}
		return nil, goerr.Wrap(unavailable(err), "failed to read stream", goerr.V("stream", r.stream), goerr.V("lastID", r.lastID))
	}

	for _, s := range streams {
		for _, msg := range s.Messages {
			r.lastID = msg.ID

			offset, err := offsetFromStreamID(msg.ID)
			if err != nil {
				return nil, err
			}

			rec := &interfaces.LogRecord{Offset: offset}
			switch v := msg.Values[redisValueField].(type) {
			case string:
				rec.Value = []byte(v)
			case []byte:
				rec.Value = v
			}
			return rec, nil
		}
	}

	return nil, interfaces.ErrReadTimeout
}

func (r *redisReader) Close() error {
	return nil
}
