package log

import (
	"io"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleEvent(dir Direction) Event {
	return Event{
		Timestamp:  time.Now(),
		EndpointID: "3f1c9a6e-0000-0000-0000-000000000001",
		Direction:  dir,
		Layer:      LayerWire,
		Category:   CategoryMessage,
		RemoteAddr: "127.0.0.1:14562",
		DeviceID:   "m0000123",
		Message: &MessageEvent{
			Address:   "/monome/grid/key",
			Arguments: []any{int32(2), int32(5), int32(1)},
		},
	}
}

func TestEventRoundTrip(t *testing.T) {
	event := sampleEvent(DirectionIn)

	data, err := EncodeEvent(event)
	require.NoError(t, err)

	decoded, err := DecodeEvent(data)
	require.NoError(t, err)

	assert.Equal(t, event.EndpointID, decoded.EndpointID)
	assert.Equal(t, event.Direction, decoded.Direction)
	assert.Equal(t, event.Layer, decoded.Layer)
	assert.Equal(t, event.Category, decoded.Category)
	assert.Equal(t, event.DeviceID, decoded.DeviceID)
	require.NotNil(t, decoded.Message)
	assert.Equal(t, "/monome/grid/key", decoded.Message.Address)
	assert.Len(t, decoded.Message.Arguments, 3)
	assert.WithinDuration(t, event.Timestamp, decoded.Timestamp, time.Millisecond)
}

func TestFileLoggerAndReader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.glog")

	logger, err := NewFileLogger(path)
	require.NoError(t, err)

	logger.Log(sampleEvent(DirectionIn))
	logger.Log(sampleEvent(DirectionOut))
	logger.Log(sampleEvent(DirectionIn))
	require.NoError(t, logger.Close())

	// Log after close is a silent no-op.
	logger.Log(sampleEvent(DirectionIn))
	require.NoError(t, logger.Close())

	reader, err := NewReader(path)
	require.NoError(t, err)
	defer reader.Close()

	events, err := reader.ReadAll()
	require.NoError(t, err)
	assert.Len(t, events, 3)
}

func TestFilteredReader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.glog")

	logger, err := NewFileLogger(path)
	require.NoError(t, err)
	logger.Log(sampleEvent(DirectionIn))
	logger.Log(sampleEvent(DirectionOut))
	logger.Log(sampleEvent(DirectionIn))
	require.NoError(t, logger.Close())

	in := DirectionIn
	reader, err := NewFilteredReader(path, Filter{Direction: &in})
	require.NoError(t, err)
	defer reader.Close()

	events, err := reader.ReadAll()
	require.NoError(t, err)
	require.Len(t, events, 2)
	for _, ev := range events {
		assert.Equal(t, DirectionIn, ev.Direction)
	}

	_, err = reader.Next()
	assert.ErrorIs(t, err, io.EOF)
}

// recordingLogger collects events for assertions.
type recordingLogger struct {
	mu     sync.Mutex
	events []Event
}

func (r *recordingLogger) Log(event Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recordingLogger) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func TestMultiLogger(t *testing.T) {
	a := &recordingLogger{}
	b := &recordingLogger{}

	multi := NewMultiLogger(a, b, NoopLogger{})
	multi.Log(sampleEvent(DirectionIn))
	multi.Log(sampleEvent(DirectionOut))

	assert.Equal(t, 2, a.count())
	assert.Equal(t, 2, b.count())
}

func TestEnumStrings(t *testing.T) {
	assert.Equal(t, "IN", DirectionIn.String())
	assert.Equal(t, "OUT", DirectionOut.String())
	assert.Equal(t, "TRANSPORT", LayerTransport.String())
	assert.Equal(t, "WIRE", LayerWire.String())
	assert.Equal(t, "SESSION", LayerSession.String())
	assert.Equal(t, "PACKET", CategoryPacket.String())
	assert.Equal(t, "MESSAGE", CategoryMessage.String())
	assert.Equal(t, "STATE", CategoryState.String())
	assert.Equal(t, "ERROR", CategoryError.String())
	assert.Equal(t, "UNKNOWN", Direction(9).String())
}
