package hafas

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

var (
	ErrEmptyJourney     = errors.New("journey has no legs")
	ErrMissingDeparture = errors.New("leg has neither actual nor planned departure")
	ErrMissingArrival   = errors.New("leg has neither actual nor planned arrival")
)

// envelope matches db-rest responses of the form {"journey": {...}}.
type envelope struct {
	Journey *Journey `json:"journey"`
}

// DecodeJourney reads a journey from r. Both a bare journey object and a
// {"journey": {...}} envelope are accepted.
func DecodeJourney(r io.Reader) (*Journey, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read journey: %w", err)
	}
	return ParseJourney(data)
}

// ParseJourney is DecodeJourney for an in-memory payload.
func ParseJourney(data []byte) (*Journey, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, errors.New("empty journey payload")
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode journey: %w", err)
	}
	if env.Journey != nil {
		return env.Journey, nil
	}

	var j Journey
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("decode journey: %w", err)
	}
	return &j, nil
}

// LegError ties a validation failure to the position of the offending leg.
type LegError struct {
	Index int
	Err   error
}

func (e *LegError) Error() string {
	return fmt.Sprintf("leg %d: %v", e.Index, e.Err)
}

func (e *LegError) Unwrap() error { return e.Err }

// Validate checks the journey before transformation. Legs that will be
// filtered out as transfers are not required to carry timestamps.
func (j *Journey) Validate() error {
	if j == nil || len(j.Legs) == 0 {
		return ErrEmptyJourney
	}

	var errs []error
	for i, leg := range j.Legs {
		if leg.IsTransfer() {
			continue
		}
		if _, ok := leg.DepartureTime(); !ok {
			errs = append(errs, &LegError{Index: i, Err: ErrMissingDeparture})
		}
		if _, ok := leg.ArrivalTime(); !ok {
			errs = append(errs, &LegError{Index: i, Err: ErrMissingArrival})
		}
	}
	return errors.Join(errs...)
}

// Origin returns the name of the first leg's origin.
func (j *Journey) Origin() string {
	if j == nil || len(j.Legs) == 0 {
		return ""
	}
	return j.Legs[0].Origin.Name
}

// Destination returns the name of the last leg's destination.
func (j *Journey) Destination() string {
	if j == nil || len(j.Legs) == 0 {
		return ""
	}
	return j.Legs[len(j.Legs)-1].Destination.Name
}
