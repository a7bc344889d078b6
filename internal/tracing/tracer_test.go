package tracing

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	require.False(t, cfg.Enabled)
	require.Equal(t, "file", cfg.Exporter)
	require.Equal(t, "localhost:4317", cfg.OTLPEndpoint)
	require.Equal(t, 1.0, cfg.SampleRate)
	require.Equal(t, "intake", cfg.ServiceName)
}

func TestNewProvider_Disabled(t *testing.T) {
	provider, err := NewProvider(Config{Enabled: false})
	require.NoError(t, err)
	require.False(t, provider.Enabled())

	_, span := provider.Tracer().Start(context.Background(), "noop")
	span.End()

	require.NoError(t, provider.Shutdown(context.Background()))
}

func TestNewProvider_FileExporterRequiresPath(t *testing.T) {
	_, err := NewProvider(Config{Enabled: true, Exporter: "file"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "file_path required")
}

func TestNewProvider_UnknownExporter(t *testing.T) {
	_, err := NewProvider(Config{Enabled: true, Exporter: "zipkin"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "unsupported exporter type")
}

func TestNewProvider_FileExporterWritesSpans(t *testing.T) {
	tracePath := filepath.Join(t.TempDir(), "nested", "traces.jsonl")

	provider, err := NewProvider(Config{
		Enabled:    true,
		Exporter:   "file",
		FilePath:   tracePath,
		SampleRate: 1.0,
	})
	require.NoError(t, err)
	require.True(t, provider.Enabled())

	_, span := Start(context.Background(), SpanQueryFetch, attribute.String(AttrCacheKey, `["hospitals"]`))
	End(span, errors.New("backend down"))

	require.NoError(t, provider.Shutdown(context.Background()))

	data, err := os.ReadFile(tracePath)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1)

	var record SpanRecord
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &record))
	require.Equal(t, SpanQueryFetch, record.Name)
	require.Equal(t, "ERROR", record.Status)
	require.Equal(t, "backend down", record.StatusMsg)
	require.Equal(t, `["hospitals"]`, record.Attributes[AttrCacheKey])
}

func TestFileExporter_ShutdownTwice(t *testing.T) {
	exporter, err := NewFileExporter(filepath.Join(t.TempDir(), "t.jsonl"))
	require.NoError(t, err)

	require.NoError(t, exporter.Shutdown(context.Background()))
	require.NoError(t, exporter.Shutdown(context.Background()))
	require.NoError(t, exporter.ExportSpans(context.Background(), nil))
}
