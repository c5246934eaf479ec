package serialmux

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerialMux_SubscribeUnsubscribe(t *testing.T) {
	mux := NewSerialMux(NewTestableSerialPort())

	id1, ch1 := mux.Subscribe()
	id2, _ := mux.Subscribe()
	assert.NotEqual(t, id1, id2)

	mux.Unsubscribe(id1)
	_, ok := <-ch1
	assert.False(t, ok, "channel should be closed")

	mux.Unsubscribe("missing")
	mux.subscriberMu.Lock()
	assert.Len(t, mux.subscribers, 1)
	mux.subscriberMu.Unlock()
}

func TestSerialMux_SendCommand(t *testing.T) {
	port := NewTestableSerialPort()
	mux := NewSerialMux(port)

	require.NoError(t, mux.SendCommand("RATE=30"))
	require.NoError(t, mux.SendCommand("START\n"))
	assert.Equal(t, "RATE=30\nSTART\n", port.Written())

	port.WriteError = errors.New("boom")
	assert.Error(t, mux.SendCommand("STOP"))

	port.ShortWrite = true
	assert.ErrorIs(t, mux.SendCommand("STOP"), ErrWriteFailed)
}

func TestSerialMux_Initialise(t *testing.T) {
	port := NewTestableSerialPort()
	mux := NewSerialMux(port)

	require.NoError(t, mux.Initialise(30))
	assert.Equal(t, "STOP\nFORMAT=JSON\nRATE=30\nTORCH=ON\nPATCH=ON\nSTART\n", port.Written())

	port.WriteError = errors.New("unplugged")
	assert.Error(t, mux.Initialise(30))
}

func TestSerialMux_MonitorFansOutLines(t *testing.T) {
	port := NewTestableSerialPort()
	mux := NewSerialMux(port)
	_, ch := mux.Subscribe()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errc := make(chan error, 1)
	go func() { errc <- mux.Monitor(ctx) }()

	port.AddReadData([]byte("{\"ts\":1}\n"))
	select {
	case line := <-ch:
		assert.Equal(t, `{"ts":1}`, line)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for line")
	}

	// Blank lines are skipped.
	port.AddReadData([]byte("\n   \n{\"ts\":2}\n"))
	select {
	case line := <-ch:
		assert.Equal(t, `{"ts":2}`, line)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for line")
	}

	cancel()
	select {
	case err := <-errc:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Monitor did not return after cancel")
	}
}

func TestSerialMux_MonitorReturnsAtEOF(t *testing.T) {
	port := NewTestableSerialPort()
	mux := NewSerialMux(port)
	port.AddReadData([]byte("{\"ts\":1}\n"))
	require.NoError(t, port.Close())

	assert.NoError(t, mux.Monitor(context.Background()))
}

func TestSerialMux_CloseClosesSubscribers(t *testing.T) {
	port := NewTestableSerialPort()
	mux := NewSerialMux(port)
	_, ch := mux.Subscribe()

	require.NoError(t, mux.Close())
	_, ok := <-ch
	assert.False(t, ok)
	assert.True(t, port.Closed())
}

func TestSerialMux_AdminSendCommand(t *testing.T) {
	port := NewTestableSerialPort()
	mux := NewSerialMux(port)
	httpMux := http.NewServeMux()
	mux.AttachAdminRoutes(httpMux)

	form := url.Values{"command": {"RATE=60"}}
	req := httptest.NewRequest(http.MethodPost, "/debug/send-command-api", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.RemoteAddr = "127.0.0.1:1234"
	rec := httptest.NewRecorder()
	httpMux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "RATE=60\n", port.Written())

	req = httptest.NewRequest(http.MethodGet, "/debug/send-command-api", nil)
	req.RemoteAddr = "127.0.0.1:1234"
	rec = httptest.NewRecorder()
	httpMux.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestSerialMux_AdminConsolePage(t *testing.T) {
	mux := NewSerialMux(NewTestableSerialPort())
	httpMux := http.NewServeMux()
	mux.AttachAdminRoutes(httpMux)

	req := httptest.NewRequest(http.MethodGet, "/debug/send-command", nil)
	req.RemoteAddr = "127.0.0.1:1234"
	rec := httptest.NewRecorder()
	httpMux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Capture board console")
}

func TestClassifyLine(t *testing.T) {
	tests := []struct {
		line string
		want string
	}{
		{`{"ts":100,"r":200}`, LineTypeFrame},
		{`  {"ts":100}  `, LineTypeFrame},
		{`{"status":"ok","rate":30}`, LineTypeStatus},
		{`# booted`, LineTypeStatus},
		{`{"foo":1}`, LineTypeUnknown},
		{`garbage`, LineTypeUnknown},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClassifyLine(tt.line), tt.line)
	}
}

func TestMockSerialMux_EmitsLines(t *testing.T) {
	mux := NewMockSerialMux(func() []byte { return []byte(`{"ts":1}`) }, time.Millisecond)
	_, ch := mux.Subscribe()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go mux.Monitor(ctx)

	select {
	case line := <-ch:
		assert.Equal(t, `{"ts":1}`, line)
	case <-time.After(time.Second):
		t.Fatal("mock produced no line")
	}
	cancel()
	assert.NoError(t, mux.Close())
}
