package kafka

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEvent(t *testing.T) {
	payload := map[string]string{"order_id": "o-1", "status": "confirmed"}

	event, err := NewEvent("order.confirmed", "o-1", "order", "order-service", payload)
	require.NoError(t, err)

	assert.NotEmpty(t, event.EventID)
	assert.Equal(t, "order.confirmed", event.EventType)
	assert.Equal(t, "o-1", event.AggregateID)
	assert.Equal(t, "order", event.AggregateType)
	assert.Equal(t, "order-service", event.Source)
	assert.False(t, event.Timestamp.IsZero())
}

func TestEventRoundTrip(t *testing.T) {
	event, err := NewEvent("product.stock_changed", "p-1", "product", "product-service",
		map[string]int{"quantity_change": -2})
	require.NoError(t, err)
	event.WithCorrelationID("corr-1")

	data, err := event.Marshal()
	require.NoError(t, err)

	decoded, err := UnmarshalEvent(data)
	require.NoError(t, err)
	assert.Equal(t, event.EventID, decoded.EventID)
	assert.Equal(t, "corr-1", decoded.CorrelationID)

	var payload map[string]int
	require.NoError(t, decoded.UnmarshalData(&payload))
	assert.Equal(t, -2, payload["quantity_change"])
}

func TestUnmarshalEvent_InvalidJSON(t *testing.T) {
	_, err := UnmarshalEvent([]byte("{not json"))
	assert.Error(t, err)
}

func TestNoopPublisher(t *testing.T) {
	var p Publisher = NoopPublisher{}
	assert.NoError(t, p.Publish(t.Context(), "orders", &Event{}))
	assert.NoError(t, p.Close())
}
