// Copyright (c) 2025 The Gravity Genesis developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type entry struct {
	level  string
	msg    string
	fields map[string]any
}

type recordingLogger struct {
	mu      sync.Mutex
	entries []entry
}

func (l *recordingLogger) add(level, msg string, ctx []any) {
	fields := make(map[string]any, len(ctx)/2)
	for i := 0; i+1 < len(ctx); i += 2 {
		fields[ctx[i].(string)] = ctx[i+1]
	}
	l.mu.Lock()
	l.entries = append(l.entries, entry{level, msg, fields})
	l.mu.Unlock()
}

func (l *recordingLogger) Trace(msg string, ctx ...any) { l.add("trace", msg, ctx) }
func (l *recordingLogger) Debug(msg string, ctx ...any) { l.add("debug", msg, ctx) }
func (l *recordingLogger) Info(msg string, ctx ...any)  { l.add("info", msg, ctx) }
func (l *recordingLogger) Warn(msg string, ctx ...any)  { l.add("warn", msg, ctx) }
func (l *recordingLogger) Error(msg string, ctx ...any) { l.add("error", msg, ctx) }

func replyWith(status int, delay time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(delay)
		if status != 0 {
			w.WriteHeader(status)
		}
		w.Write([]byte("{}"))
	}
}

func TestRequestLoggerHandler(t *testing.T) {
	tests := []struct {
		name      string
		handler   http.HandlerFunc
		enabled   bool
		slow      time.Duration
		log5xx    bool
		wantCode  int
		wantLevel string // empty when nothing must be logged
	}{
		{"enabled", replyWith(http.StatusOK, 0), true, 0, false, http.StatusOK, "info"},
		{"disabled", replyWith(http.StatusOK, 0), false, 0, false, http.StatusOK, ""},
		{"slow query", replyWith(http.StatusOK, 15*time.Millisecond), false, 10 * time.Millisecond, false, http.StatusOK, "info"},
		{"fast query under threshold", replyWith(http.StatusOK, 0), false, time.Second, false, http.StatusOK, ""},
		{"500 with 5xx logging", replyWith(http.StatusInternalServerError, 0), false, 0, true, http.StatusInternalServerError, "warn"},
		{"503 with 5xx logging", replyWith(http.StatusServiceUnavailable, 0), false, 0, true, http.StatusServiceUnavailable, "warn"},
		{"500 without 5xx logging", replyWith(http.StatusInternalServerError, 0), false, 0, false, http.StatusInternalServerError, ""},
		{"404 with 5xx logging", replyWith(http.StatusNotFound, 0), false, 0, true, http.StatusNotFound, ""},
		{"slow 500", replyWith(http.StatusInternalServerError, 15*time.Millisecond), false, 10 * time.Millisecond, true, http.StatusInternalServerError, "warn"},
		{"implicit 200", replyWith(0, 0), false, 0, true, http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := &recordingLogger{}
			var enabled atomic.Bool
			enabled.Store(tt.enabled)

			h := RequestLoggerMiddleware(logger, &enabled, tt.slow, tt.log5xx)(tt.handler)
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "http://example.com/validators", nil))
			assert.Equal(t, tt.wantCode, rr.Code)

			if tt.wantLevel == "" {
				assert.Empty(t, logger.entries)
				return
			}
			require.Len(t, logger.entries, 1)
			e := logger.entries[0]
			assert.Equal(t, tt.wantLevel, e.level)
			assert.Equal(t, "http://example.com/validators", e.fields["URI"])
			assert.Equal(t, http.MethodGet, e.fields["Method"])
			assert.Equal(t, tt.wantCode, e.fields["Status"])
			assert.IsType(t, int64(0), e.fields["DurationMs"])
			assert.IsType(t, int64(0), e.fields["Timestamp"])
		})
	}
}

func TestRequestLoggerToggle(t *testing.T) {
	logger := &recordingLogger{}
	var enabled atomic.Bool
	h := RequestLoggerMiddleware(logger, &enabled, 0, false)(replyWith(http.StatusOK, 0))

	serve := func() {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/epoch", nil))
	}
	serve()
	assert.Empty(t, logger.entries)

	enabled.Store(true)
	serve()
	serve()
	assert.Len(t, logger.entries, 2)

	enabled.Store(false)
	serve()
	assert.Len(t, logger.entries, 2)
}

func TestRequestLoggerHijack(t *testing.T) {
	logger := &recordingLogger{}
	var enabled atomic.Bool
	enabled.Store(true)

	h := RequestLoggerMiddleware(logger, &enabled, 0, false)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		conn, rw, err := w.(http.Hijacker).Hijack()
		if !assert.NoError(t, err) {
			return
		}
		defer conn.Close()
		rw.WriteString("HTTP/1.1 200 OK\r\nContent-Length: 2\r\nConnection: close\r\n\r\nok")
		rw.Flush()
	}))
	ts := httptest.NewServer(h)
	defer ts.Close()

	res, err := http.Get(ts.URL + "/subscriptions/events")
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	assert.Equal(t, "ok", string(body))

	// the recorder cannot hijack
	rec := &statusRecorder{ResponseWriter: httptest.NewRecorder()}
	_, _, err = rec.Hijack()
	assert.Error(t, err)
}
