package metrics

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

func TestNew_DisabledIsNoop(t *testing.T) {
	m, err := New(context.Background(), Config{Enabled: false})
	require.NoError(t, err)

	c, err := m.CreateCounter("companies.registered", "registered companies")
	require.NoError(t, err)
	c.Add(context.Background(), 1, metric.WithAttributes(attribute.String("tier", "basic")))

	h := m.HistogramOrNoop("db.session.duration", "unit of work duration", "ms")
	h.Record(context.Background(), 1.5)

	assert.NoError(t, m.Shutdown(context.Background()))
}
