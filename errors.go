package astirecorder

import (
	"errors"
	"strings"
)

// Errors
var (
	ErrUnsupportedCombination  = errors.New("astirecorder: unsupported container/codec combination")
	ErrUnsupportedPixelFormat  = errors.New("astirecorder: unsupported pixel format")
	ErrResourceAllocation      = errors.New("astirecorder: resource allocation failed")
	ErrEncode                  = errors.New("astirecorder: encoding failed")
	ErrWrite                   = errors.New("astirecorder: writing failed")
	ErrSessionClosed           = errors.New("astirecorder: session is closed")
	ErrAudioJoinTimeout        = errors.New("astirecorder: audio unit did not stop in time")
	ErrInvalidImage            = errors.New("astirecorder: invalid image")
	ErrInvalidSessionParameter = errors.New("astirecorder: invalid session parameter")
)

// Stream names
const (
	StreamAudio = "audio"
	StreamVideo = "video"
)

// Stage names
const (
	StageClose     = "close"
	StageConvert   = "convert"
	StageDecode    = "decode"
	StageEncode    = "encode"
	StageFlush     = "flush"
	StageNegotiate = "negotiate"
	StageOpen      = "open"
	StageRead      = "read"
	StageResample  = "resample"
	StageScale     = "scale"
	StageWrite     = "write"
)

// SessionError attributes a session-fatal error to a stream and a stage
type SessionError struct {
	Err    error
	Kind   error
	Stage  string
	Stream string
}

func newSessionError(kind error, stream, stage string, err error) *SessionError {
	return &SessionError{
		Err:    err,
		Kind:   kind,
		Stage:  stage,
		Stream: stream,
	}
}

func (e *SessionError) Error() string {
	var ss []string
	if e.Kind != nil {
		ss = append(ss, e.Kind.Error())
	}
	var ctx []string
	if e.Stream != "" {
		ctx = append(ctx, "stream "+e.Stream)
	}
	if e.Stage != "" {
		ctx = append(ctx, "stage "+e.Stage)
	}
	if len(ctx) > 0 {
		ss = append(ss, "("+strings.Join(ctx, ", ")+")")
	}
	if e.Err != nil {
		ss = append(ss, e.Err.Error())
	}
	return strings.Join(ss, " ")
}

// Unwrap allows errors.Is to match both the kind and the cause
func (e *SessionError) Unwrap() []error {
	var errs []error
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}
