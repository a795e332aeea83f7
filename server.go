package astirecorder

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/asticode/go-astikit"
	"github.com/asticode/go-astiws"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
)

// ServerOptions represents server options
type ServerOptions struct {
	Logger astikit.StdLogger
}

// Server is a read only monitoring server. It serves the current session
// snapshot and forwards recorder events to websocket clients.
type Server struct {
	l  astikit.SeverityLogger
	m  *sync.Mutex // Locks s
	r  *serverEventLog
	s  *Session
	ws *astiws.Manager
}

// NewServer creates a new server
func NewServer(o ServerOptions) (s *Server) {
	s = &Server{
		l:  astikit.AdaptStdLogger(o.Logger),
		m:  &sync.Mutex{},
		ws: astiws.NewManager(astiws.ManagerConfiguration{MaxMessageSize: 8192}, o.Logger),
	}
	s.r = newServerEventLog(s.l)
	return
}

// SetSession sets the session being monitored
func (s *Server) SetSession(ss *Session) {
	s.m.Lock()
	defer s.m.Unlock()
	s.s = ss
}

func (s *Server) session() *Session {
	s.m.Lock()
	defer s.m.Unlock()
	return s.s
}

// Handler returns the server handler
func (s *Server) Handler() http.Handler {
	// Create router
	r := httprouter.New()

	// Add routes
	r.Handler(http.MethodGet, "/ok", s.serveOK())
	r.Handler(http.MethodGet, "/session", s.serveSession())
	r.Handler(http.MethodGet, "/websocket", s.serveWebSocket())
	return r
}

func (s *Server) serveOK() http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {})
}

// ServerSession is the JSON representation of a session
type ServerSession struct {
	ID     string      `json:"id"`
	Info   SessionInfo `json:"info"`
	Paused bool        `json:"paused"`
	State  string      `json:"state"`
	Stats  Stats       `json:"stats"`
}

func newServerSession(s *Session) ServerSession {
	return ServerSession{
		ID:     s.ID(),
		Info:   s.Info(),
		Paused: s.Paused(),
		State:  s.State().String(),
		Stats:  s.Stats(),
	}
}

func (s *Server) serveSession() http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		// No session
		ss := s.session()
		if ss == nil {
			rw.WriteHeader(http.StatusNotFound)
			return
		}

		// Write
		rw.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(rw).Encode(newServerSession(ss)); err != nil {
			s.l.Error(fmt.Errorf("astirecorder: writing failed: %w", err))
			rw.WriteHeader(http.StatusInternalServerError)
			return
		}
	})
}

func (s *Server) serveWebSocket() http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		if err := s.ws.ServeHTTP(rw, r, s.adaptWebSocketClient); err != nil {
			var e *websocket.CloseError
			if ok := errors.As(err, &e); !ok ||
				(e.Code != websocket.CloseNoStatusReceived && e.Code != websocket.CloseNormalClosure) {
				s.l.Error(fmt.Errorf("astirecorder: handling websocket failed: %w", err))
			}
			return
		}
	})
}

func (s *Server) adaptWebSocketClient(c *astiws.Client) (err error) {
	// Register client
	s.ws.AutoRegisterClient(c)

	// Add listeners
	c.AddListener(astiws.EventNameDisconnect, s.webSocketDisconnected)
	c.AddListener("ping", s.webSocketPing)
	return
}

func (s *Server) webSocketDisconnected(c *astiws.Client, eventName string, payload json.RawMessage) error {
	s.ws.UnregisterClient(c)
	return nil
}

func (s *Server) webSocketPing(c *astiws.Client, eventName string, payload json.RawMessage) error {
	if err := c.ExtendConnection(); err != nil {
		s.l.Error(fmt.Errorf("astirecorder: extending ws connection failed: %w", err))
	}
	return nil
}

func (s *Server) sendWebSocket(eventName string, payload interface{}) {
	// Loop through clients
	s.ws.Loop(func(_ interface{}, c *astiws.Client) {
		if err := c.Write(eventName, payload); err != nil {
			s.l.Error(fmt.Errorf("astirecorder: writing event %s with payload %+v to websocket client %p failed: %w", eventName, payload, c, err))
			return
		}
	})
}

// EventHandlerAdapter forwards events to websocket clients and to the event log
func (s *Server) EventHandlerAdapter(eh *EventHandler) {
	// Register catch all handler
	eh.AddForAll(func(e Event) bool {
		// Get payload
		var p interface{}
		switch e.Name {
		case EventNameError:
			p = e.Payload.(error).Error()
		case EventNameStats:
			p = newServerStats(e)
		case EventNameFrameMuxerState:
			p = e.Payload.(FrameMuxerState).String()
		case EventNameAudioCodecDisabled, EventNameSessionClosed, EventNameSessionOpened:
			p = e.Payload
		}

		// Add to event log
		if err := s.r.add(string(e.Name), p); err != nil {
			s.l.Error(fmt.Errorf("astirecorder: adding to event log failed: %w", err))
		}

		// Send
		s.sendWebSocket(string(e.Name), p)
		return false
	})
}

// ServerStat is the JSON representation of a stat
type ServerStat struct {
	Description string      `json:"description"`
	Label       string      `json:"label"`
	Name        string      `json:"name"`
	Target      string      `json:"target,omitempty"`
	Unit        string      `json:"unit"`
	Value       interface{} `json:"value"`
}

func newServerStats(e Event) (ss []ServerStat) {
	ss = []ServerStat{}
	for _, es := range e.Payload.([]EventStat) {
		s := ServerStat{
			Description: es.Description,
			Label:       es.Label,
			Name:        es.Name,
			Unit:        es.Unit,
			Value:       es.Value,
		}
		if v, ok := es.Target.(fmt.Stringer); ok {
			s.Target = v.String()
		}
		ss = append(ss, s)
	}
	return
}

// serverEventLog writes events to a csv file as they happen
type serverEventLog struct {
	c *astikit.Chan
	l astikit.SeverityLogger
	s uint32
	w *csv.Writer
}

func newServerEventLog(l astikit.SeverityLogger) *serverEventLog {
	return &serverEventLog{
		c: astikit.NewChan(astikit.ChanOptions{
			ProcessAll: true,
		}),
		l: l,
	}
}

// StartEventLog starts writing events to a csv file located at dst. onDone is
// called once the file is closed.
func (s *Server) StartEventLog(dst string, onDone func(path string) error) (err error) {
	// Get session
	var ss *ServerSession
	if v := s.session(); v != nil {
		sv := newServerSession(v)
		ss = &sv
	}

	// Start event log
	if err = s.r.start(dst, ss, onDone); err != nil {
		err = fmt.Errorf("astirecorder: starting event log failed: %w", err)
		return
	}
	return
}

func (r *serverEventLog) start(dst string, ss *ServerSession, onDone func(path string) error) (err error) {
	// Event log already started
	if started := atomic.LoadUint32(&r.s); started > 0 {
		return
	}

	// Create destination
	var f *os.File
	if f, err = os.Create(dst); err != nil {
		err = fmt.Errorf("astirecorder: creating %s failed: %w", dst, err)
		return
	}

	// Create csv writer
	r.w = csv.NewWriter(f)

	// Write session
	if ss != nil {
		var b []byte
		if b, err = json.Marshal(ss); err != nil {
			f.Close()
			err = fmt.Errorf("astirecorder: marshaling failed: %w", err)
			return
		}
		r.w.Write([]string{"", "", string(b)})
	}

	// Execute the rest in a goroutine
	go func() {
		// Start chan
		r.c.Start(context.Background())

		// Reset chan
		r.c.Reset()

		// Flush csv
		r.w.Flush()

		// Reset csv writer
		r.w = nil

		// Close file
		if err := f.Close(); err != nil {
			r.l.Error(fmt.Errorf("astirecorder: closing file failed: %w", err))
			return
		}

		// On done
		if onDone != nil {
			if err := onDone(f.Name()); err != nil {
				r.l.Error(fmt.Errorf("astirecorder: on done failed: %w", err))
				return
			}
		}
	}()

	// Update started
	atomic.StoreUint32(&r.s, 1)
	return
}

func (r *serverEventLog) add(name string, payload interface{}) (err error) {
	// Event log not started
	if started := atomic.LoadUint32(&r.s); started == 0 {
		return
	}

	// Marshal payload
	var b []byte
	if b, err = json.Marshal(payload); err != nil {
		err = fmt.Errorf("astirecorder: marshaling failed: %w", err)
		return
	}

	// Write
	t := time.Now().UTC().Unix()
	r.c.Add(func() {
		r.w.Write([]string{strconv.Itoa(int(t)), name, string(b)})
		r.w.Flush()
	})
	return
}

// StopEventLog stops the event log
func (s *Server) StopEventLog() {
	s.r.stop()
}

func (r *serverEventLog) stop() {
	// Event log not started
	if started := atomic.LoadUint32(&r.s); started == 0 {
		return
	}

	// Update started
	atomic.StoreUint32(&r.s, 0)

	// Stop chan
	r.c.Stop()
}
