package agent

import (
	"errors"
	"fmt"
)

// Sentinel errors matched with errors.Is.
var (
	ErrUploadFailed      = errors.New("upload failed")
	ErrSendFailed        = errors.New("send failed")
	ErrMalformedResponse = errors.New("malformed response")
)

// Kind classifies a failed call.
type Kind int

const (
	KindUpload Kind = iota
	KindSend
	KindHealth
)

func (k Kind) String() string {
	switch k {
	case KindUpload:
		return "upload"
	case KindSend:
		return "send"
	case KindHealth:
		return "health"
	default:
		return "unknown"
	}
}

// Error is returned by every Client call that fails.
type Error struct {
	Op         string
	Kind       Kind
	StatusCode int    // 0 when no response arrived
	Detail     string // FastAPI "detail" field, when present
	Err        error
}

func (e *Error) Error() string {
	msg := e.Op
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(": status %d", e.StatusCode)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is lets errors.Is match the kind sentinels without them being in the chain.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrUploadFailed:
		return e.Kind == KindUpload
	case ErrSendFailed:
		return e.Kind == KindSend
	}
	return false
}
