package metrics

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric/noop"
)

func TestFilterAttributesDropsClientLabels(t *testing.T) {
	attrs := FilterAttributes(
		attribute.String("method", "yape"),
		attribute.String("client_id", "456"),
		attribute.String("decision", "validated"),
	)
	require.Len(t, attrs, 2)
	assert.Equal(t, attribute.Key("method"), attrs[0].Key)
	assert.Equal(t, attribute.Key("decision"), attrs[1].Key)
}

func TestNewWithNoopProvider(t *testing.T) {
	m, err := New(Config{}, noop.NewMeterProvider())
	require.NoError(t, err)
	m.RecordPaymentSubmitted(context.Background(), "cash")
	m.RecordDebtsGenerated(context.Background(), "manual", 0)

	var nilMetrics *Metrics
	nilMetrics.RecordLedgerEntry(context.Background(), "payment")
}
