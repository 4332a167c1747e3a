package kafka

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"
)

// PermanentError помечает сообщение как непригодное к повторной
// обработке (битый payload, невалидные поля). Только такие ошибки
// уводят сообщение в DLQ; остальные считаются временными.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

func Permanent(err error) error {
	return &PermanentError{Err: err}
}

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type publisher interface {
	Publish(ctx context.Context, topic string, key, value []byte) error
}

type Consumer struct {
	r   messageReader
	dlq publisher
}

func NewConsumer(brokers []string, topic, groupID string, dlq *Producer) *Consumer {
	cfg := kafka.ReaderConfig{
		Brokers:           brokers,
		GroupID:           groupID,
		HeartbeatInterval: 3 * time.Second,
		SessionTimeout:    30 * time.Second,
	}
	if groupID != "" {
		cfg.GroupTopics = []string{topic}
	} else {
		cfg.Topic = topic
	}
	c := &Consumer{r: kafka.NewReader(cfg)}
	if dlq != nil {
		c.dlq = dlq
	}
	return c
}

func newConsumerWithReader(r messageReader, dlq publisher) *Consumer {
	return &Consumer{r: r, dlq: dlq}
}

func (c *Consumer) Close() error {
	return c.r.Close()
}

// Consume обрабатывает сообщения handler'ом. Битое сообщение
// (PermanentError) уходит в DLQ, если он настроен, и коммитится, чтобы
// не блокировать партицию. Временная ошибка останавливает цикл без
// коммита — сообщение будет доставлено повторно.
func (c *Consumer) Consume(ctx context.Context, topic string, handler func(key, value []byte) error) error {
	for {
		msg, err := c.r.FetchMessage(ctx)
		if err != nil {
			return errors.Wrap(err, "fetch message")
		}
		if err := handler(msg.Key, msg.Value); err != nil {
			var perm *PermanentError
			if c.dlq == nil || !errors.As(err, &perm) {
				return err
			}
			if err := c.dlq.Publish(ctx, topic+"-dlq", msg.Key, msg.Value); err != nil {
				return errors.Wrap(err, "publish to dlq")
			}
		}
		// Commit только после успеха или ухода в DLQ, иначе потеряем сообщение.
		if err := c.r.CommitMessages(ctx, msg); err != nil {
			return errors.Wrap(err, "commit message")
		}
	}
}
