package observability

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/strata/pkg/config"
	"github.com/ajitpratap0/strata/pkg/errors"
)

func TestTracingExportsSpans(t *testing.T) {
	var buf bytes.Buffer
	provider, err := Init(TracingConfig{
		ServiceName:  "strata-test",
		Enabled:      true,
		SamplingRate: 1,
		Writer:       &buf,
	})
	require.NoError(t, err)

	ctx, span := StartSpan(context.Background(), "truncate")
	span.SetAttribute("records", 42)
	span.SetAttribute("budget", int64(4096))
	span.SetAttribute("ratio", 0.5)
	span.SetAttribute("fits", true)
	span.SetAttribute("other", []int{1})
	span.AddEvent("probe")
	span.End()

	err = Trace(ctx, "query", func(context.Context) error {
		return errors.New(errors.ErrorTypeValidation, "bad operator")
	})
	require.Error(t, err)

	require.NoError(t, provider.Shutdown(context.Background()))
	out := buf.String()
	assert.Contains(t, out, `"truncate"`)
	assert.Contains(t, out, `"query"`)
	assert.Contains(t, out, "strata-test")
	assert.Contains(t, out, "records")

	_, err = Init(TracingConfig{ServiceName: "strata-test"})
	require.NoError(t, err)
}

func TestTracingDisabled(t *testing.T) {
	provider, err := Init(TracingConfig{ServiceName: "strata-test"})
	require.NoError(t, err)

	_, span := StartSpan(context.Background(), "noop")
	assert.False(t, span.span.SpanContext().IsValid())
	span.RecordError(nil)
	span.End()
	require.NoError(t, provider.Shutdown(context.Background()))

	var nilProvider *Provider
	require.NoError(t, nilProvider.Shutdown(context.Background()))
}

func TestTracingConfigFrom(t *testing.T) {
	cfg := config.NewConfig().Observability
	cfg.EnableTracing = true
	got := TracingConfigFrom(cfg, "1.2.3")
	assert.True(t, got.Enabled)
	assert.Equal(t, "1.2.3", got.ServiceVersion)
	assert.Equal(t, 0.1, got.SamplingRate)
}
