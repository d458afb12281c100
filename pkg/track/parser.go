// Package track normalizes heterogeneous track sources (GPX files and
// proprietary watch JSON exports) into one ActivityData model, and resamples
// the parsed point sequence to a fixed cadence for playback.
package track

import (
	"errors"
	"fmt"

	"trailbook/pkg/model"
)

// InputType selects which payload of an Input to parse.
type InputType string

const (
	InputWatch InputType = "watch"
	InputGPX   InputType = "gpx"
	// InputAuto prefers a structurally valid watch payload and falls back
	// to GPX.
	InputAuto InputType = "auto"
)

// Input carries the raw payloads of one journal entry.
type Input struct {
	Type         InputType
	WatchPayload []byte
	GPXText      string
}

// ErrNoActivityData is returned when neither payload is supplied. This is a
// "not applicable" state: the caller renders no player rather than an error.
var ErrNoActivityData = errors.New("no activity data supplied")

// ParseError reports a malformed or empty source. Parse failures are
// terminal for the session; nothing is retried.
type ParseError struct {
	Source string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.Source, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Parse normalizes the given input into an ActivityData. It is a pure
// function over its input. It fails with *ParseError when the selected
// payload is malformed or contains zero usable points, and with
// ErrNoActivityData when nothing was supplied.
func Parse(in Input) (*model.ActivityData, error) {
	switch in.Type {
	case InputWatch:
		if len(in.WatchPayload) == 0 {
			return nil, ErrNoActivityData
		}
		return parseWatch(in.WatchPayload)
	case InputGPX:
		if in.GPXText == "" {
			return nil, ErrNoActivityData
		}
		return parseGPX(in.GPXText)
	case InputAuto, "":
		if len(in.WatchPayload) == 0 && in.GPXText == "" {
			return nil, ErrNoActivityData
		}
		if len(in.WatchPayload) > 0 {
			data, err := parseWatch(in.WatchPayload)
			if err == nil {
				return data, nil
			}
			if in.GPXText == "" {
				return nil, err
			}
		}
		return parseGPX(in.GPXText)
	default:
		return nil, &ParseError{Source: string(in.Type), Err: fmt.Errorf("unknown input type")}
	}
}
