package eventlog

import (
	"context"
	"errors"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/trustflow/pkg/domain/interfaces"
	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"
)

// activityPartition is the only partition the activity topic uses; total order is per partition
const activityPartition int32 = 0

// recordDeliveryTimeout fails a produce that the broker did not acknowledge in time
const recordDeliveryTimeout = 30 * time.Second

// Kafka is an event log on partition 0 of a Kafka topic. The producer client is shared by the process;
// each reader gets its own direct-assignment consumer client.
type Kafka struct {
	brokers []string
	topic   string
	client  *kgo.Client
	admin   *kadm.Client
	extra   []kgo.Opt
}

type KafkaOption func(*Kafka)

// WithKafkaClientOpts passes additional franz-go options (TLS, SASL) to every client
func WithKafkaClientOpts(opts ...kgo.Opt) KafkaOption {
	return func(k *Kafka) {
		k.extra = append(k.extra, opts...)
	}
}

func NewKafka(brokers []string, topic string, opts ...KafkaOption) (*Kafka, error) {
	k := &Kafka{
		brokers: brokers,
		topic:   topic,
	}
	for _, opt := range opts {
		opt(k)
	}

	clientOpts := append([]kgo.Opt{
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.RecordPartitioner(kgo.ManualPartitioner()),
		kgo.RequiredAcks(kgo.AllISRAcks()),
		kgo.ProducerLinger(0),
		kgo.RecordDeliveryTimeout(recordDeliveryTimeout),
	}, k.extra...)

	client, err := kgo.NewClient(clientOpts...)
	if err != nil {
		return nil, goerr.Wrap(unavailable(err), "failed to create kafka client", goerr.V("brokers", brokers))
	}

	k.client = client
	k.admin = kadm.NewClient(client)
	return k, nil
}

// EnsureTopic creates the topic with a single partition when it does not exist
func (k *Kafka) EnsureTopic(ctx context.Context, replicationFactor int16) error {
	resp, err := k.admin.CreateTopics(ctx, 1, replicationFactor, nil, k.topic)
	if err != nil {
		return goerr.Wrap(unavailable(err), "failed to create topic", goerr.V("topic", k.topic))
	}

	for _, r := range resp.Sorted() {
		if r.Err != nil && !errors.Is(r.Err, kerr.TopicAlreadyExists) {
			return goerr.Wrap(r.Err, "failed to create topic", goerr.V("topic", r.Topic))
		}
	}
	return nil
}

func (k *Kafka) Append(ctx context.Context, value []byte) (int64, error) {
	rec := &kgo.Record{
		Topic:     k.topic,
		Partition: activityPartition,
		Value:     value,
	}

	produced, err := k.client.ProduceSync(ctx, rec).First()
	if err != nil {
		return 0, goerr.Wrap(unavailable(err), "failed to produce record", goerr.V("topic", k.topic))
	}
	return produced.Offset, nil
}

func (k *Kafka) Watermarks(ctx context.Context) (int64, int64, error) {
	starts, err := k.admin.ListStartOffsets(ctx, k.topic)
	if err != nil {
		return 0, 0, goerr.Wrap(unavailable(err), "failed to list start offsets", goerr.V("topic", k.topic))
	}
	ends, err := k.admin.ListEndOffsets(ctx, k.topic)
	if err != nil {
		return 0, 0, goerr.Wrap(unavailable(err), "failed to list end offsets", goerr.V("topic", k.topic))
	}

	low, ok := starts.Lookup(k.topic, activityPartition)
	if !ok {
		return 0, 0, goerr.New("partition not found", goerr.V("topic", k.topic))
	}
	if low.Err != nil {
		return 0, 0, goerr.Wrap(unavailable(low.Err), "failed to get low watermark", goerr.V("topic", k.topic))
	}

	high, ok := ends.Lookup(k.topic, activityPartition)
	if !ok {
		return 0, 0, goerr.New("partition not found", goerr.V("topic", k.topic))
	}
	if high.Err != nil {
		return 0, 0, goerr.Wrap(unavailable(high.Err), "failed to get high watermark", goerr.V("topic", k.topic))
	}

	return low.Offset, high.Offset, nil
}

// Reader starts a consumer assigned directly to partition 0 at offset. No group, no commits.
func (k *Kafka) Reader(ctx context.Context, offset int64) (interfaces.LogReader, error) {
	opts := append([]kgo.Opt{
		kgo.SeedBrokers(k.brokers...),
		kgo.ConsumePartitions(map[string]map[int32]kgo.Offset{
			k.topic: {activityPartition: kgo.NewOffset().At(offset)},
		}),
	}, k.extra...)

	client, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, goerr.Wrap(unavailable(err), "failed to create kafka consumer", goerr.V("topic", k.topic))
	}
	return &kafkaReader{client: client}, nil
}

func (k *Kafka) Close() error {
	k.client.Close()
	return nil
}

type kafkaReader struct {
	client  *kgo.Client
	pending []*kgo.Record
}

func (r *kafkaReader) Next(ctx context.Context, timeout time.Duration) (*interfaces.LogRecord, error) {
	if len(r.pending) == 0 {
		pollCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		fetches := r.client.PollRecords(pollCtx, 1)
		if fetches.IsClientClosed() {
			return nil, goerr.Wrap(ErrUnavailable, "kafka consumer closed")
		}
		for _, fe := range fetches.Errors() {
			if errors.Is(fe.Err, context.DeadlineExceeded) || errors.Is(fe.Err, context.Canceled) {
				continue
			}
			return nil, goerr.Wrap(unavailable(fe.Err), "failed to fetch records",
				goerr.V("topic", fe.Topic),
				goerr.V("partition", fe.Partition))
		}

		r.pending = fetches.Records()
		if len(r.pending) == 0 {
			if ctx.Err() != nil {
				return nil, goerr.Wrap(ctx.Err(), "event log read canceled")
			}
			return nil, interfaces.ErrReadTimeout
		}
	}

	rec := r.pending[0]
	r.pending = r.pending[1:]
	return &interfaces.LogRecord{
		Offset:    rec.Offset,
		Value:     rec.Value,
		Timestamp: rec.Timestamp,
	}, nil
}

func (r *kafkaReader) Close() error {
	r.client.Close()
	return nil
}
