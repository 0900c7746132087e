package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/arturocano02/FarmDirect-sub000/models"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func TestPublishStatusChanged_KeysByOrderID(t *testing.T) {
	w := &fakeWriter{}
	p := &Producer{writer: w, topic: "order.lifecycle", logger: zap.NewNop()}

	prev := models.StatusProcessing
	evt := models.OrderStatusChangedEvent{
		EventType:      "order.status_changed",
		OrderID:        uuid.New(),
		PreviousStatus: &prev,
		Status:         models.StatusConfirmed,
		ActorRole:      models.RoleFarm,
		Timestamp:      time.Now(),
	}

	require.NoError(t, p.PublishStatusChanged(context.Background(), evt))
	require.Len(t, w.msgs, 1)
	assert.Equal(t, evt.OrderID.String(), string(w.msgs[0].Key))

	var decoded models.OrderStatusChangedEvent
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &decoded))
	assert.Equal(t, models.StatusConfirmed, decoded.Status)
	require.NotNil(t, decoded.PreviousStatus)
	assert.Equal(t, models.StatusProcessing, *decoded.PreviousStatus)
}

func TestPublishStatusChanged_WriterError(t *testing.T) {
	w := &fakeWriter{err: errors.New("broker down")}
	p := &Producer{writer: w, topic: "order.lifecycle", logger: zap.NewNop()}

	err := p.PublishStatusChanged(context.Background(), models.OrderStatusChangedEvent{OrderID: uuid.New()})
	assert.EqualError(t, err, "broker down")
}

func TestClose(t *testing.T) {
	w := &fakeWriter{}
	p := &Producer{writer: w, topic: "t", logger: zap.NewNop()}
	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}
