package astirecorder

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestServerSession(t *testing.T) {
	srv := NewServer(ServerOptions{})
	h := srv.Handler()

	// Ok
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ok", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	// No session
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/session", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)

	// Session
	b := newMockedBackend()
	s := openTestSession(t, b, SessionParameters{URL: "out.mkv"})
	srv.SetSession(s)
	require.NoError(t, s.Feed(rgbImage(16, 16)))
	require.NoError(t, s.Feed(rgbImage(16, 16)))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/session", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var ss ServerSession
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&ss))
	require.Equal(t, s.ID(), ss.ID)
	require.Equal(t, "encoding", ss.State)
	require.Equal(t, uint64(2), ss.Stats.FramesFed)
	require.Equal(t, 16, ss.Info.Width)
	require.NoError(t, s.Close())
}

func TestServerEventLog(t *testing.T) {
	srv := NewServer(ServerOptions{})
	eh := NewEventHandler()
	srv.EventHandlerAdapter(eh)

	// Events emitted before the event log is started are not written
	eh.Emit(Event{Name: EventNameSessionClosed})

	path := filepath.Join(t.TempDir(), "events.csv")
	done := make(chan string)
	require.NoError(t, srv.StartEventLog(path, func(p string) error {
		done <- p
		return nil
	}))
	eh.Emit(EventError(nil, errors.New("test")))
	eh.Emit(Event{Name: EventNameFrameMuxerState, Payload: FrameMuxerStateEncoding})
	eh.Emit(Event{Name: EventNameStats, Payload: []EventStat{{Label: "l", Name: StatNameFrameRate, Value: 25.0}}})
	srv.StopEventLog()
	require.Equal(t, path, <-done)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rs, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rs, 3)
	require.Equal(t, string(EventNameError), rs[0][1])
	require.Equal(t, `"test"`, rs[0][2])
	require.Equal(t, string(EventNameFrameMuxerState), rs[1][1])
	require.Equal(t, `"encoding"`, rs[1][2])
	require.Equal(t, string(EventNameStats), rs[2][1])
	require.JSONEq(t, `[{"description":"","label":"l","name":"astirecorder.frame.rate","unit":"","value":25}]`, rs[2][2])
}
