package astilibav

import (
	"regexp"
	"testing"

	"github.com/asticode/go-astiav"
	"github.com/asticode/go-astirecorder"
	"github.com/stretchr/testify/require"
)

type mockedEventLogger struct{ ss []string }

func (l *mockedEventLogger) Debugk(key, msg string) { l.ss = append(l.ss, "debug: "+msg) }
func (l *mockedEventLogger) Errork(key, msg string) { l.ss = append(l.ss, "error: "+msg) }
func (l *mockedEventLogger) Infok(key, msg string)  { l.ss = append(l.ss, "info: "+msg) }
func (l *mockedEventLogger) Warnk(key, msg string)  { l.ss = append(l.ss, "warn: "+msg) }

func TestLog(t *testing.T) {
	l := &mockedEventLogger{}
	c := logEventHandlerCallback(LogOptions{
		IgnoredLogMessages: []*regexp.Regexp{
			regexp.MustCompile("^test2$"),
			regexp.MustCompile(`[\w]+_pattern`),
		},
	}, l)
	c(astirecorder.Event{Payload: EventLog{Level: astiav.LogLevelInfo, Msg: "test1"}})
	c(astirecorder.Event{Payload: EventLog{Level: astiav.LogLevelInfo, Msg: "test2"}})
	c(astirecorder.Event{Payload: EventLog{Level: astiav.LogLevelWarning, Msg: " test3 \n", Parent: "mjpeg"}})
	c(astirecorder.Event{Payload: EventLog{Level: astiav.LogLevelInfo, Msg: "test_pattern"}})
	c(astirecorder.Event{Payload: EventLog{Level: astiav.LogLevelFatal, Msg: "test4"}})
	c(astirecorder.Event{Payload: EventLog{Level: astiav.LogLevelDebug, Msg: "  "}})
	c(astirecorder.Event{Payload: "invalid"})
	require.Equal(t, []string{
		"info: astilibav: test1",
		"warn: astilibav: test3 (mjpeg)",
		"error: FATAL! astilibav: test4",
	}, l.ss)
}
