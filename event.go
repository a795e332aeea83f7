package astirecorder

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/asticode/go-astikit"
)

// EventName is the name of an event
type EventName string

// Default event names
const (
	EventNameAudioCodecDisabled EventName = "astirecorder.audio.codec.disabled"
	EventNameAudioPaused        EventName = "astirecorder.audio.paused"
	EventNameAudioResumed       EventName = "astirecorder.audio.resumed"
	EventNameAudioStarted       EventName = "astirecorder.audio.started"
	EventNameAudioStopped       EventName = "astirecorder.audio.stopped"
	EventNameError              EventName = "astirecorder.error"
	EventNameFrameMuxerState    EventName = "astirecorder.frame.muxer.state"
	EventNameSessionClosed      EventName = "astirecorder.session.closed"
	EventNameSessionOpened      EventName = "astirecorder.session.opened"
	EventNameStats              EventName = "astirecorder.stats"
)

// Event is an event coming out of the recorder
type Event struct {
	Name    EventName
	Payload interface{}
	Target  interface{}
}

// EventError returns an error event
func EventError(target interface{}, err error) Event {
	return Event{
		Name:    EventNameError,
		Payload: err,
		Target:  target,
	}
}

// EventHandler represents an event handler
type EventHandler struct {
	// Indexed by target then by event name then by listener idx
	// We use a map[int]Listener so that deletion is as smooth as possible
	cs  map[interface{}]map[EventName]map[int]EventCallback
	idx int
	m   *sync.Mutex
}

// EventCallback represents an event callback
type EventCallback func(e Event) (deleteListener bool)

// NewEventHandler creates a new event handler
func NewEventHandler() *EventHandler {
	return &EventHandler{
		cs: make(map[interface{}]map[EventName]map[int]EventCallback),
		m:  &sync.Mutex{},
	}
}

// Add adds a new callback for a specific target and event name
func (h *EventHandler) Add(target interface{}, eventName EventName, c EventCallback) {
	h.m.Lock()
	defer h.m.Unlock()
	if _, ok := h.cs[target]; !ok {
		h.cs[target] = make(map[EventName]map[int]EventCallback)
	}
	if _, ok := h.cs[target][eventName]; !ok {
		h.cs[target][eventName] = make(map[int]EventCallback)
	}
	h.idx++
	h.cs[target][eventName][h.idx] = c
}

// AddForEventName adds a new callback for a specific event name
func (h *EventHandler) AddForEventName(eventName EventName, c EventCallback) {
	h.Add(nil, eventName, c)
}

// AddForTarget adds a new callback for a specific target
func (h *EventHandler) AddForTarget(target interface{}, c EventCallback) {
	h.Add(target, "", c)
}

// AddForAll adds a new callback for all events
func (h *EventHandler) AddForAll(c EventCallback) {
	h.Add(nil, "", c)
}

func (h *EventHandler) del(target interface{}, eventName EventName, idx int) {
	h.m.Lock()
	defer h.m.Unlock()
	if _, ok := h.cs[target]; !ok {
		return
	}
	if _, ok := h.cs[target][eventName]; !ok {
		return
	}
	delete(h.cs[target][eventName], idx)
}

type eventHandlerCallback struct {
	c         EventCallback
	eventName EventName
	idx       int
	target    interface{}
}

func (h *EventHandler) callbacks(target interface{}, eventName EventName) (cs []eventHandlerCallback) {
	// Lock
	h.m.Lock()
	defer h.m.Unlock()

	// Index callbacks
	ics := make(map[int]eventHandlerCallback)
	var idxs []int
	targets := []interface{}{nil}
	if target != nil {
		targets = append(targets, target)
	}
	for _, target := range targets {
		if _, ok := h.cs[target]; !ok {
			continue
		}
		eventNames := []EventName{""}
		if eventName != "" {
			eventNames = append(eventNames, eventName)
		}
		for _, eventName := range eventNames {
			for idx, c := range h.cs[target][eventName] {
				ics[idx] = eventHandlerCallback{
					c:         c,
					eventName: eventName,
					idx:       idx,
					target:    target,
				}
				idxs = append(idxs, idx)
			}
		}
	}

	// Sort
	sort.Ints(idxs)

	// Append
	for _, idx := range idxs {
		cs = append(cs, ics[idx])
	}
	return
}

// Emit emits an event. A nil handler is a no-op.
func (h *EventHandler) Emit(e Event) {
	if h == nil {
		return
	}
	for _, c := range h.callbacks(e.Target, e.Name) {
		if c.c(e) {
			h.del(c.target, c.eventName, c.idx)
		}
	}
}

// EventHandlerLogOptions represents event handler log options
type EventHandlerLogOptions struct {
	Logger astikit.StdLogger
	// Identical messages received within this period are merged
	MessageMergingPeriod time.Duration
}

// Log adds callbacks logging recorder events. The returned event logger must be
// started and closed by the caller.
func (h *EventHandler) Log(o EventHandlerLogOptions) (l *EventLogger) {
	// Create event logger
	l = newEventLogger(o.Logger)
	l.mergingPeriod = o.MessageMergingPeriod

	// Error
	h.AddForEventName(EventNameError, func(e Event) bool {
		var t string
		if v, ok := e.Target.(interface{ String() string }); ok {
			t = v.String()
		} else if e.Target != nil {
			t = fmt.Sprintf("%p", e.Target)
		}
		if len(t) > 0 {
			t = " (" + t + ")"
		}
		l.Errorf("%s%s", e.Payload.(error), t)
		return false
	})

	// Session
	h.AddForEventName(EventNameSessionOpened, func(e Event) bool {
		l.Infof("astirecorder: session opened: %s", e.Payload)
		return false
	})
	h.AddForEventName(EventNameSessionClosed, func(e Event) bool {
		l.Infof("astirecorder: session closed")
		return false
	})
	h.AddForEventName(EventNameFrameMuxerState, func(e Event) bool {
		l.Debugk("astirecorder: frame muxer state is now %s", fmt.Sprintf("astirecorder: frame muxer state is now %s", e.Payload))
		return false
	})
	h.AddForEventName(EventNameAudioCodecDisabled, func(e Event) bool {
		l.Warnk("astirecorder: audio was wanted but %s doesn't allow any audio codec", fmt.Sprintf("astirecorder: audio was wanted but %s doesn't allow any audio codec", e.Payload))
		return false
	})

	// Audio
	h.AddForEventName(EventNameAudioStarted, func(e Event) bool {
		l.Debugk("astirecorder: audio unit is started", "astirecorder: audio unit is started")
		return false
	})
	h.AddForEventName(EventNameAudioStopped, func(e Event) bool {
		l.Debugk("astirecorder: audio unit is stopped", "astirecorder: audio unit is stopped")
		return false
	})
	h.AddForEventName(EventNameAudioPaused, func(e Event) bool {
		l.Infof("astirecorder: audio unit is paused")
		return false
	})
	h.AddForEventName(EventNameAudioResumed, func(e Event) bool {
		l.Infof("astirecorder: audio unit is resumed")
		return false
	})
	return
}
