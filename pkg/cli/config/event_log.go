package config

import (
	"context"
	"log/slog"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/redis/go-redis/v9"
	"github.com/secmon-lab/trustflow/pkg/domain/interfaces"
	"github.com/secmon-lab/trustflow/pkg/service/eventlog"
	"github.com/secmon-lab/trustflow/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

// EventLog holds CLI flags for the activity topic
type EventLog struct {
	backend       string
	topic         string
	kafkaBrokers  string
	kafkaCreate   bool
	kafkaReplicas int
	redisAddr     string
	redisPassword string
	redisDB       int
	redisMaxLen   int
}

func (x *EventLog) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "event-log-backend",
			Category:    "Event Log",
			Usage:       "Activity topic backend (kafka, redis or memory)",
			Value:       "memory",
			Sources:     cli.EnvVars("TRUSTFLOW_EVENT_LOG_BACKEND"),
			Destination: &x.backend,
		},
		&cli.StringFlag{
			Name:        "event-log-topic",
			Category:    "Event Log",
			Usage:       "Kafka topic or Redis stream key of the activity log",
			Value:       eventlog.DefaultTopic,
			Sources:     cli.EnvVars("TRUSTFLOW_EVENT_LOG_TOPIC"),
			Destination: &x.topic,
		},
		&cli.StringFlag{
			Name:        "kafka-brokers",
			Category:    "Event Log",
			Usage:       "Comma separated Kafka seed brokers",
			Value:       "localhost:9092",
			Sources:     cli.EnvVars("TRUSTFLOW_KAFKA_BROKERS"),
			Destination: &x.kafkaBrokers,
		},
		&cli.BoolFlag{
			Name:        "kafka-create-topic",
			Category:    "Event Log",
			Usage:       "Create the activity topic at startup if it does not exist",
			Sources:     cli.EnvVars("TRUSTFLOW_KAFKA_CREATE_TOPIC"),
			Destination: &x.kafkaCreate,
		},
		&cli.IntFlag{
			Name:        "kafka-replication-factor",
			Category:    "Event Log",
			Usage:       "Replication factor used when creating the topic",
			Value:       1,
			Sources:     cli.EnvVars("TRUSTFLOW_KAFKA_REPLICATION_FACTOR"),
			Destination: &x.kafkaReplicas,
		},
		&cli.StringFlag{
			Name:        "redis-addr",
			Category:    "Event Log",
			Usage:       "Redis address",
			Value:       "localhost:6379",
			Sources:     cli.EnvVars("TRUSTFLOW_REDIS_ADDR"),
			Destination: &x.redisAddr,
		},
		&cli.StringFlag{
			Name:        "redis-password",
			Category:    "Event Log",
			Usage:       "Redis password",
			Sources:     cli.EnvVars("TRUSTFLOW_REDIS_PASSWORD"),
			Destination: &x.redisPassword,
		},
		&cli.IntFlag{
			Name:        "redis-db",
			Category:    "Event Log",
			Usage:       "Redis database number",
			Sources:     cli.EnvVars("TRUSTFLOW_REDIS_DB"),
			Destination: &x.redisDB,
		},
		&cli.IntFlag{
			Name:        "redis-max-len",
			Category:    "Event Log",
			Usage:       "Approximate retention of the Redis stream in entries (0 keeps everything)",
			Sources:     cli.EnvVars("TRUSTFLOW_REDIS_MAX_LEN"),
			Destination: &x.redisMaxLen,
		},
	}
}

func (x EventLog) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("backend", x.backend),
		slog.String("topic", x.topic),
		slog.String("kafka_brokers", x.kafkaBrokers),
		slog.String("redis_addr", x.redisAddr),
	)
}

func (x *EventLog) brokers() []string {
	var brokers []string
	for _, b := range strings.Split(x.kafkaBrokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

// Configure creates the process-wide event log client. The caller closes it at shutdown.
func (x *EventLog) Configure(ctx context.Context) (interfaces.EventLog, error) {
	switch x.backend {
	case "kafka":
		brokers := x.brokers()
		if len(brokers) == 0 {
			return nil, goerr.New("kafka-brokers is required when using kafka backend")
		}
		log, err := eventlog.NewKafka(brokers, x.topic)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to initialize kafka event log")
		}
		if x.kafkaCreate {
			if err := log.EnsureTopic(ctx, int16(x.kafkaReplicas)); err != nil {
				_ = log.Close()
				return nil, goerr.Wrap(err, "failed to ensure activity topic")
			}
		}
		logging.Default().Info("Using Kafka event log", "brokers", brokers, "topic", x.topic)
		return log, nil

	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     x.redisAddr,
			Password: x.redisPassword,
			DB:       x.redisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, goerr.Wrap(err, "failed to connect to redis", goerr.V("addr", x.redisAddr))
		}
		logging.Default().Info("Using Redis stream event log", "addr", x.redisAddr, "stream", x.topic)
		return eventlog.NewRedis(client, x.topic, eventlog.WithRedisMaxLen(int64(x.redisMaxLen))), nil

	case "memory":
		logging.Default().Info("Using in-memory event log (development mode)")
		return eventlog.NewMemory(), nil

	default:
		return nil, goerr.New("invalid event log backend", goerr.V("backend", x.backend))
	}
}
