package trace

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/latticeforge/conclave/pkg/coreid"
	"github.com/latticeforge/conclave/pkg/event"
)

type pongEvent struct{}

func (pongEvent) EventType() event.Type { return "Pong" }

func TestRecorderEmitAppendsAndMirrors(t *testing.T) {
	var out bytes.Buffer
	rec := NewRecorder(&out)

	id := coreid.NewGenerator().Next("server")
	rec.Send(pongEvent{}.EventType(), id, id)

	records := rec.Records()
	require.Len(t, records, 1)
	assert.Equal(t, SendLog, records[0].Tag)
	assert.Contains(t, records[0].Payload, "sent event 'Pong'")
	assert.Contains(t, out.String(), records[0].String())
}

func TestRecorderResetClearsRecords(t *testing.T) {
	rec := NewRecorder(nil)
	rec.Error("boom")
	require.Len(t, rec.Records(), 1)

	rec.Reset()
	assert.Empty(t, rec.Records())
}

func TestParseRoundTripsRecorderOutput(t *testing.T) {
	var out bytes.Buffer
	rec := NewRecorder(&out)

	id := coreid.NewGenerator().Next("server")
	rec.Create(id)
	rec.State(id, "Idle")
	rec.Send(pongEvent{}.EventType(), id, id)

	parsed, err := Parse(&out)
	require.NoError(t, err)
	assert.Equal(t, rec.Records(), parsed)
}

func TestParseRejectsMalformedLine(t *testing.T) {
	_, err := Parse(strings.NewReader("not a trace line\n"))
	assert.Error(t, err)
}

func TestParseSkipsBlankLines(t *testing.T) {
	parsed, err := Parse(strings.NewReader("<SendLog> a sent event 'Ping' to b\n\n<SendLog> b sent event 'Pong' to a\n"))
	require.NoError(t, err)
	require.Len(t, parsed, 2)
	assert.Equal(t, SendLog, parsed[0].Tag)
	assert.Equal(t, SendLog, parsed[1].Tag)
}
