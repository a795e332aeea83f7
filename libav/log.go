package astilibav

import (
	"regexp"
	"strings"

	"github.com/asticode/go-astiav"
	"github.com/asticode/go-astirecorder"
)

// EventNameLog is the name of libav log events
const EventNameLog astirecorder.EventName = "astilibav.log"

// EventLog is the payload of libav log events
type EventLog struct {
	Format string
	Level  astiav.LogLevel
	Msg    string
	Parent string
}

// LogOptions represents log options
type LogOptions struct {
	IgnoredLogMessages []*regexp.Regexp
	Level              astiav.LogLevel
}

type eventLogger interface {
	Debugk(key, msg string)
	Errork(key, msg string)
	Infok(key, msg string)
	Warnk(key, msg string)
}

// Log forwards libav logs to the event handler as events and logs them with l
func Log(eh *astirecorder.EventHandler, l *astirecorder.EventLogger, o LogOptions) {
	// Set log level
	astiav.SetLogLevel(o.Level)

	// Set log callback
	astiav.SetLogCallback(func(c astiav.Classer, level astiav.LogLevel, fmt, msg string) {
		// Get parent
		var parent string
		if c != nil {
			if cl := c.Class(); cl != nil {
				parent = cl.Name()
			}
		}

		// Emit event
		eh.Emit(astirecorder.Event{
			Name: EventNameLog,
			Payload: EventLog{
				Format: fmt,
				Level:  level,
				Msg:    msg,
				Parent: parent,
			},
		})
	})

	// Handle log
	eh.AddForEventName(EventNameLog, logEventHandlerCallback(o, l))
}

func logEventHandlerCallback(o LogOptions, l eventLogger) astirecorder.EventCallback {
	return func(e astirecorder.Event) bool {
		v, ok := e.Payload.(EventLog)
		if !ok {
			return false
		}

		// Sanitize
		format := strings.TrimSpace(v.Format)
		msg := strings.TrimSpace(v.Msg)
		if msg == "" {
			return false
		}

		// Ignore
		for _, r := range o.IgnoredLogMessages {
			if r.MatchString(msg) {
				return false
			}
		}

		// Add prefix
		format = "astilibav: " + format
		msg = "astilibav: " + msg

		// Add parent
		if v.Parent != "" {
			msg += " (" + v.Parent + ")"
		}

		// Add level
		switch v.Level {
		case astiav.LogLevelDebug, astiav.LogLevelVerbose:
			l.Debugk(format, msg)
		case astiav.LogLevelInfo:
			l.Infok(format, msg)
		case astiav.LogLevelError, astiav.LogLevelFatal, astiav.LogLevelPanic:
			if v.Level == astiav.LogLevelFatal {
				msg = "FATAL! " + msg
			} else if v.Level == astiav.LogLevelPanic {
				msg = "PANIC! " + msg
			}
			l.Errork(format, msg)
		case astiav.LogLevelWarning:
			l.Warnk(format, msg)
		}
		return false
	}
}
