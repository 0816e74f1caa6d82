package obs

import (
	"bytes"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]Level{"debug": Debug, "INFO": Info, "": Info, "warning": Warn, "Error": Error} {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestStdLogger_MinLevel(t *testing.T) {
	var buf bytes.Buffer
	l := StdLogger{L: log.New(&buf, "", 0), Min: Warn, Pref: "pool "}
	l.Logf(Info, "dropped %d", 1)
	l.Logf(Warn, "kept %d", 2)
	assert.Equal(t, "pool [WARN] kept 2\n", buf.String())
}

func TestZapLogger_Levels(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewZapLogger(zap.New(core))
	l.Logf(Debug, "d %s", "x")
	l.Logf(Warn, "w")
	l.Logf(Error, "e")

	entries := logs.AllUntimed()
	require.Len(t, entries, 3)
	assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
	assert.Equal(t, "d x", entries[0].Message)
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, zapcore.ErrorLevel, entries[2].Level)
}

func TestOrNop(t *testing.T) {
	assert.Equal(t, NopLogger{}, OrNop(nil))
	s := StdLogger{}
	assert.Equal(t, s, OrNop(s))
}

func TestMemMeter(t *testing.T) {
	m := NewMemMeter()
	m.Counter("requests", 1, Label{Key: "method", Value: "GET"})
	m.Counter("requests", 2, Label{Key: "method", Value: "GET"})
	m.Counter("requests", 1)
	m.Histogram("latency", 3)
	m.Histogram("latency", 7)

	assert.Equal(t, 3.0, m.Value("requests", Label{Key: "method", Value: "GET"}))
	assert.Equal(t, 1.0, m.Value("requests"))
	assert.Equal(t, 3.0, m.Counters()["requests{method=GET}"])
	h := m.Histograms()["latency"]
	assert.Equal(t, Summary{Count: 2, Sum: 10, Max: 7}, h)
}
