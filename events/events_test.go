package events

import (
	"context"
	"encoding/json"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode(t *testing.T) {
	e := New(OrderCreated, map[string]interface{}{"order_id": 42})

	msg, err := encode(e)
	require.NoError(t, err)

	assert.Equal(t, amqp.Persistent, msg.DeliveryMode)
	assert.Equal(t, "application/json", msg.ContentType)
	assert.Equal(t, OrderCreated, msg.Type)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(msg.Body, &decoded))
	assert.Equal(t, OrderCreated, decoded["type"])
	assert.EqualValues(t, 42, decoded["payload"].(map[string]interface{})["order_id"])
}

func TestRecorder(t *testing.T) {
	var r Recorder
	require.NoError(t, r.Publish(context.Background(), New(InventoryLowStock, nil)))
	require.NoError(t, r.Publish(context.Background(), New(OrderStatusChanged, nil)))

	got := r.Events()
	require.Len(t, got, 2)
	assert.Equal(t, InventoryLowStock, got[0].Type)
}

func TestNop(t *testing.T) {
	var p Publisher = Nop{}
	assert.NoError(t, p.Publish(context.Background(), New(OrderCreated, nil)))
	assert.NoError(t, p.Close())
}
