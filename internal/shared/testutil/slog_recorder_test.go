package testutil

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogRecorder_CapturesRecords(t *testing.T) {
	logger, rec := NewTestLogger(t)

	logger.Info("snapshot loaded", slog.Int("records", 3))
	logger.Warn("source missing", slog.String("path", "/tmp/Analytics.csv"))
	logger.Error("aggregation failed")

	require.Equal(t, 3, rec.Count())

	records := rec.GetRecords()
	assert.Equal(t, "snapshot loaded", records[0].Message)
	assert.Equal(t, slog.LevelInfo, records[0].Level)
	assert.Equal(t, int64(3), records[0].Attrs["records"])
	assert.Equal(t, "/tmp/Analytics.csv", records[1].Attrs["path"])
}

func TestLogRecorder_GetRecordsByLevel(t *testing.T) {
	logger, rec := NewTestLogger(t)

	logger.Debug("probe")
	logger.Info("one")
	logger.Info("two")
	logger.Error("boom")

	assert.Len(t, rec.GetRecordsByLevel(slog.LevelInfo), 2)
	assert.Len(t, rec.GetRecordsByLevel(slog.LevelError), 1)
	assert.Len(t, rec.GetRecordsByLevel(slog.LevelDebug), 1)
	assert.Empty(t, rec.GetRecordsByLevel(slog.LevelWarn))
}

func TestLogRecorder_ContainsMessage(t *testing.T) {
	logger, rec := NewTestLogger(t)

	logger.Info("snapshot cache invalidated")

	assert.True(t, rec.ContainsMessage("cache invalidated"))
	assert.False(t, rec.ContainsMessage("reloaded"))
}

func TestLogRecorder_GetRecordsReturnsCopy(t *testing.T) {
	logger, rec := NewTestLogger(t)
	logger.Info("first")

	records := rec.GetRecords()
	records[0].Message = "mutated"

	assert.Equal(t, "first", rec.GetRecords()[0].Message)
}
