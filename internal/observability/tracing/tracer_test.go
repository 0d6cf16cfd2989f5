package tracing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Disabled(t *testing.T) {
	tr, err := New(context.Background(), Config{Enabled: false, ServiceName: "companies"})
	require.NoError(t, err)
	assert.NotNil(t, tr.GetTracer())
	assert.NoError(t, tr.Shutdown(context.Background()))
}

func TestSpan_PropagatesError(t *testing.T) {
	tr, err := New(context.Background(), Config{Enabled: false})
	require.NoError(t, err)

	boom := errors.New("boom")
	err = Span(context.Background(), tr.GetTracer(), "company.delete", func(ctx context.Context) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)

	called := false
	err = Span(context.Background(), tr.GetTracer(), "company.get", func(ctx context.Context) error {
		called = true
		return nil
	})
	assert.NoError(t, err)
	assert.True(t, called)
}
