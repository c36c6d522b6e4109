package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRelay struct{ stats RelayStats }

func (f fakeRelay) Stats() RelayStats { return f.stats }

type fakePinger struct{ err error }

func (f fakePinger) PingContext(ctx context.Context) error { return f.err }

type fakeConn bool

func (f fakeConn) Connected() bool { return bool(f) }

func TestRelayHealthChecker(t *testing.T) {
	running := RelayStats{Running: true, Relayed: 7, LastEvent: epoch}

	tests := []struct {
		name    string
		relay   RelayStats
		dbErr   error
		nats    connectionState
		healthy bool
		errs    []string
	}{
		{name: "all up", relay: running, nats: fakeConn(true), healthy: true, errs: []string{}},
		{name: "idle relay is healthy", relay: RelayStats{Running: true}, nats: fakeConn(true), healthy: true, errs: []string{}},
		{name: "database down", relay: running, dbErr: errors.New("refused"), nats: fakeConn(true), errs: []string{"database ping failed: refused"}},
		{name: "nats down", relay: running, nats: fakeConn(false), errs: []string{"NATS disconnected"}},
		{name: "listener stopped", relay: RelayStats{}, nats: fakeConn(true), errs: []string{"listener not active"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewRelayHealthChecker(fakeRelay{tt.relay}, fakePinger{tt.dbErr}, tt.nats)
			status := h.Check(context.Background())
			assert.Equal(t, tt.healthy, status.Healthy)
			assert.Equal(t, tt.errs, status.Errors)
			assert.Equal(t, tt.relay.Relayed, status.EventsRelayed)
		})
	}
}

func TestRelayHealthChecker_ServeHTTP(t *testing.T) {
	h := NewRelayHealthChecker(fakeRelay{RelayStats{Running: true, Relayed: 3, LastEvent: epoch}}, fakePinger{}, fakeConn(true))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var status HealthStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.True(t, status.Healthy)
	assert.Equal(t, uint64(3), status.EventsRelayed)
	assert.WithinDuration(t, epoch, status.LastEventTime, time.Second)

	down := NewRelayHealthChecker(fakeRelay{}, fakePinger{}, fakeConn(true))
	rec = httptest.NewRecorder()
	down.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
