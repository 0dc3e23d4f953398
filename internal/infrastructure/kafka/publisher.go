// Package kafka publica los eventos confirmados del libro de stock.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"

	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

var _ inventory.MovementNotifier = (*Publisher)(nil)

// StockEvent mensaje publicado por cada escritura confirmada.
type StockEvent struct {
	EventID    string                 `json:"event_id"`
	EventType  string                 `json:"event_type"`
	ProductID  string                 `json:"product_id,omitempty"`
	Movements  []entity.StockMovement `json:"movements,omitempty"`
	Quantities map[string]int64       `json:"quantities,omitempty"`
	Affected   int64                  `json:"affected,omitempty"`
	Timestamp  time.Time              `json:"timestamp"`
}

// Publisher productor síncrono de eventos de stock. La llave del mensaje es el producto,
// de modo que los eventos de un mismo producto caen en la misma partición y conservan el orden.
type Publisher struct {
	producer sarama.SyncProducer
	topic    string
	log      *logger.Logger
}

// NewPublisher crea el productor contra los brokers indicados.
func NewPublisher(brokers []string, topic string, log *logger.Logger) (*Publisher, error) {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.Retry.Max = 3
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Compression = sarama.CompressionSnappy
	config.Producer.MaxMessageBytes = 1000000

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("crear productor kafka: %w", err)
	}
	if log == nil {
		log = logger.Nop()
	}
	log.Info().Strs("brokers", brokers).Str("topic", topic).Msg("publicador kafka inicializado")
	return NewPublisherWithProducer(producer, topic, log), nil
}

// NewPublisherWithProducer usa un productor ya construido.
func NewPublisherWithProducer(producer sarama.SyncProducer, topic string, log *logger.Logger) *Publisher {
	if log == nil {
		log = logger.Nop()
	}
	return &Publisher{producer: producer, topic: topic, log: log}
}

// Notify implementa inventory.MovementNotifier.
func (p *Publisher) Notify(_ context.Context, e inventory.MovementEvent) error {
	event := StockEvent{
		EventID:    uuid.New().String(),
		EventType:  e.Type,
		ProductID:  e.ProductID,
		Movements:  e.Movements,
		Quantities: e.Quantities,
		Affected:   e.Affected,
		Timestamp:  e.At,
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("serializar evento: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Value: sarama.ByteEncoder(payload),
		Headers: []sarama.RecordHeader{
			{Key: []byte("event_type"), Value: []byte(event.EventType)},
			{Key: []byte("event_id"), Value: []byte(event.EventID)},
		},
	}
	if event.ProductID != "" {
		msg.Key = sarama.StringEncoder(event.ProductID)
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		p.log.Error().Err(err).
			Str("topic", p.topic).
			Str("event_type", event.EventType).
			Str("product_id", event.ProductID).
			Msg("no se pudo publicar el evento de stock")
		return fmt.Errorf("publicar evento en kafka: %w", err)
	}
	p.log.Debug().
		Str("event_id", event.EventID).
		Str("event_type", event.EventType).
		Int32("partition", partition).
		Int64("offset", offset).
		Msg("evento de stock publicado")
	return nil
}

// Close cierra el productor.
func (p *Publisher) Close() error {
	if err := p.producer.Close(); err != nil {
		return fmt.Errorf("cerrar productor kafka: %w", err)
	}
	return nil
}
