package log

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBadgerLoggerRoutesThroughEntry(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	adapter := NewBadgerLogger(logger.WithField("component", "badgerdb"))

	adapter.Errorf("compaction failed: %s", "disk full")
	adapter.Warningf("slow write")
	adapter.Infof("value log GC")
	adapter.Debugf("memtable flush %d", 3)

	entries := hook.AllEntries()
	require.Len(t, entries, 4)

	assert.Equal(t, logrus.ErrorLevel, entries[0].Level)
	assert.Equal(t, "compaction failed: disk full", entries[0].Message)
	assert.Equal(t, "badgerdb", entries[0].Data["component"])

	assert.Equal(t, logrus.WarnLevel, entries[1].Level)
	assert.Equal(t, logrus.InfoLevel, entries[2].Level)
	assert.Equal(t, logrus.DebugLevel, entries[3].Level)
}
