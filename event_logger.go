package astirecorder

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/asticode/go-astikit"
)

type logLevel int

const (
	logLevelDebug logLevel = iota
	logLevelInfo
	logLevelWarn
	logLevelError
)

func (lv logLevel) write(l astikit.CompleteLogger, msg string) {
	switch lv {
	case logLevelDebug:
		l.Debug(msg)
	case logLevelWarn:
		l.Warn(msg)
	case logLevelError:
		l.Error(msg)
	default:
		l.Info(msg)
	}
}

// EventLogger logs recorder events. When merging is enabled, the first message
// of a level and key is logged right away and the following ones are summarized
// once the merging period is over.
type EventLogger struct {
	cancel        context.CancelFunc
	l             astikit.CompleteLogger
	m             *sync.Mutex // Locks pending
	mergingPeriod time.Duration
	pending       map[mergeKey]*mergedMessage
}

type mergeKey struct {
	key   string
	level logLevel
}

type mergedMessage struct {
	first   string
	repeats int
	since   time.Time
}

func newEventLogger(i astikit.StdLogger) *EventLogger {
	return &EventLogger{
		l:       astikit.AdaptStdLogger(i),
		m:       &sync.Mutex{},
		pending: make(map[mergeKey]*mergedMessage),
	}
}

// Start summarizes merged messages in the background until ctx is done or the
// logger is closed
func (l *EventLogger) Start(ctx context.Context) *EventLogger {
	// Merging is disabled
	if l.mergingPeriod <= 0 {
		return l
	}

	// Summarize periodically
	ctx, l.cancel = context.WithCancel(ctx)
	go func() {
		t := time.NewTicker(l.mergingPeriod / 2)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case n := <-t.C:
				l.summarize(func(m *mergedMessage) bool { return n.Sub(m.since) > l.mergingPeriod })
			}
		}
	}()
	return l
}

// Close stops the background summaries and summarizes what is left
func (l *EventLogger) Close() {
	if l.cancel != nil {
		l.cancel()
	}
	l.summarize(func(*mergedMessage) bool { return true })
}

func (l *EventLogger) summarize(due func(m *mergedMessage) bool) {
	l.m.Lock()
	defer l.m.Unlock()
	for k, m := range l.pending {
		if !due(m) {
			continue
		}
		switch {
		case m.repeats == 1:
			k.level.write(l.l, "astirecorder: pattern repeated once: "+m.first)
		case m.repeats > 1:
			k.level.write(l.l, fmt.Sprintf("astirecorder: pattern repeated %d times: %s", m.repeats, k.key))
		}
		delete(l.pending, k)
	}
}

func (l *EventLogger) log(lv logLevel, key, msg string) {
	// Merge
	if l.mergingPeriod > 0 {
		l.m.Lock()
		k := mergeKey{key: key, level: lv}
		if m, ok := l.pending[k]; ok {
			m.repeats++
			l.m.Unlock()
			return
		}
		l.pending[k] = &mergedMessage{first: msg, since: time.Now()}
		l.m.Unlock()
	}
	lv.write(l.l, msg)
}

// Debugk logs msg at debug level. key is what messages are merged on.
func (l *EventLogger) Debugk(key, msg string) { l.log(logLevelDebug, key, msg) }

func (l *EventLogger) Errorf(format string, v ...interface{}) {
	msg := fmt.Sprintf(format, v...)
	l.log(logLevelError, msg, msg)
}

func (l *EventLogger) Errork(key, msg string) { l.log(logLevelError, key, msg) }

func (l *EventLogger) Infof(format string, v ...interface{}) {
	msg := fmt.Sprintf(format, v...)
	l.log(logLevelInfo, msg, msg)
}

func (l *EventLogger) Infok(key, msg string) { l.log(logLevelInfo, key, msg) }

func (l *EventLogger) Warnk(key, msg string) { l.log(logLevelWarn, key, msg) }
