package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveCapture(t *testing.T) {
	r := New()

	r.ObserveCapture(ResultOK, 120, 300*time.Millisecond)
	r.ObserveCapture(ResultOK, 80, time.Second)
	r.ObserveCapture(ResultNoSignal, 0, 5*time.Second)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.captures.WithLabelValues(ResultOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.captures.WithLabelValues(ResultNoSignal)))
	assert.Equal(t, 1, testutil.CollectAndCount(r.capturePulses))
	assert.Equal(t, 1, testutil.CollectAndCount(r.duration))
}

func TestObserveReplay(t *testing.T) {
	r := New()

	r.ObserveReplay(ResultOK, 3, -20*time.Microsecond)
	r.ObserveReplay(ResultError, 1, 0)

	assert.Equal(t, 1.0, testutil.ToFloat64(r.replays.WithLabelValues(ResultOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.replays.WithLabelValues(ResultError)))
	assert.Equal(t, 4.0, testutil.ToFloat64(r.pulsesPlayed))
	assert.Equal(t, 1, testutil.CollectAndCount(r.replayDrift))
}

func TestNilRecorder(t *testing.T) {
	var r *Recorder

	assert.NotPanics(t, func() {
		r.ObserveCapture(ResultOK, 1, 0)
		r.ObserveReplay(ResultOK, 1, 0)
	})
}

func TestRecordersAreIndependent(t *testing.T) {
	a, b := New(), New()

	a.ObserveReplay(ResultOK, 2, 0)

	assert.Equal(t, 0.0, testutil.ToFloat64(b.pulsesPlayed))
}

func TestPush(t *testing.T) {
	var method, path string
	gw := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		method, path = req.Method, req.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	defer gw.Close()

	r := New()
	r.ObserveCapture(ResultOK, 10, time.Millisecond)

	require.NoError(t, r.Push(gw.URL, "ook-clone"))
	assert.Equal(t, http.MethodPut, method)
	assert.Equal(t, "/metrics/job/ook-clone", path)
}
