package kafka_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/kafka"
)

func TestPublisher_PublicaEventoConsistente(t *testing.T) {
	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	producer := mocks.NewSyncProducer(t, cfg)

	var got kafka.StockEvent
	producer.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		return json.Unmarshal(val, &got)
	})

	pub := kafka.NewPublisherWithProducer(producer, "stock-movements", nil)
	at := time.Date(2024, 2, 1, 9, 0, 0, 0, time.UTC)
	err := pub.Notify(context.Background(), inventory.MovementEvent{
		Type:       inventory.EventStockSold,
		ProductID:  "P",
		Movements:  []entity.StockMovement{{ID: "m1", ProductID: "P", Direction: entity.DirectionOut}},
		Quantities: map[string]int64{"M": 3},
		At:         at,
	})
	require.NoError(t, err)
	require.NoError(t, pub.Close())

	assert.Equal(t, inventory.EventStockSold, got.EventType)
	assert.Equal(t, "P", got.ProductID)
	assert.NotEmpty(t, got.EventID)
	assert.Equal(t, map[string]int64{"M": 3}, got.Quantities)
	require.Len(t, got.Movements, 1)
	assert.True(t, got.Timestamp.Equal(at))
}

func TestPublisher_ErrorDelBroker(t *testing.T) {
	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	producer := mocks.NewSyncProducer(t, cfg)
	producer.ExpectSendMessageAndFail(errors.New("broker no disponible"))

	pub := kafka.NewPublisherWithProducer(producer, "stock-movements", nil)
	err := pub.Notify(context.Background(), inventory.MovementEvent{Type: inventory.EventStockRepaired, Affected: 2})
	assert.Error(t, err)
	require.NoError(t, pub.Close())
}
