package logger

import (
	"context"
	"path/filepath"
	"testing"

	obscontext "github.com/smallbiznis/recaudo/internal/observability/context"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New(nil, Config{Level: "loud"})
	assert.Error(t, err)
}

func TestNewWithFileSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "recaudo.log")
	log, err := New(nil, Config{Level: "info", File: FileConfig{Path: path}})
	require.NoError(t, err)
	log.Info("hello")
	_ = log.Sync()
	assert.FileExists(t, path)
}

func TestWithContextAddsCorrelationFields(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	ctx := obscontext.WithRequestID(context.Background(), "req-1")
	ctx = obscontext.WithActor(ctx, "oficina", "42")

	WithContext(ctx, zap.New(core)).Info("event")

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "req-1", fields["request_id"])
	assert.Equal(t, "oficina", fields["actor_role"])
	assert.Equal(t, "42", fields["actor_id"])
}

func TestOperationFromSQL(t *testing.T) {
	assert.Equal(t, "INSERT", operationFromSQL("insert into debts values (1)"))
	assert.Equal(t, "SELECT", operationFromSQL("  (select 1)"))
	assert.Equal(t, "UNKNOWN", operationFromSQL(""))
}
