// Package track implements interactive segmentation of recorded GPS traces:
// a user taps a start and an end point on a rendered trace and gets back the
// sub-route between them. One Segmenter serves one interactive session.
package track

import (
	"errors"
	"fmt"
	"math"

	"github.com/wayfare/geoengine/internal/lib/geo"
)

// State of a segmentation session
type State int

const (
	StateEmpty State = iota
	StateRecording
	StateLoaded
	StateStartSelected
	StateRangeSelected
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateRecording:
		return "recording"
	case StateLoaded:
		return "loaded"
	case StateStartSelected:
		return "start_selected"
	case StateRangeSelected:
		return "range_selected"
	default:
		return "unknown"
	}
}

// Endpoint identifies which end of a selected range to adjust
type Endpoint string

const (
	EndpointStart Endpoint = "start"
	EndpointEnd   Endpoint = "end"
)

// TracePoint is a recorded position with its capture time
type TracePoint struct {
	Point     geo.Point `json:"point"`
	Timestamp int64     `json:"timestamp_ms"`
}

var (
	// ErrDegenerateSelection indicates a selection whose start and end
	// resolve to the same trace index. The prior state is preserved.
	ErrDegenerateSelection = errors.New("selection start and end resolve to the same trace point")

	// ErrEmptyTrace indicates an operation that requires at least one trace point
	ErrEmptyTrace = errors.New("trace has no points")
)

// InvalidStateError indicates an operation invoked in the wrong session state
type InvalidStateError struct {
	Op    string
	State State
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("%s is not valid in state %s", e.Op, e.State)
}

// Segmenter is the state machine for one trace-selection session. It is not
// safe for concurrent use; construct one per interactive session.
type Segmenter struct {
	dist  geo.Distance
	trace []TracePoint
	state State

	// Raw selected indices; normalization happens at extraction time
	startIdx int
	endIdx   int
}

// NewSegmenter creates a Segmenter with no trace
func NewSegmenter() *Segmenter {
	return &Segmenter{
		dist:     geo.NewDistance(),
		state:    StateEmpty,
		startIdx: -1,
		endIdx:   -1,
	}
}

// State returns the current session state
func (s *Segmenter) State() State {
	return s.state
}

// Trace returns a copy of the current trace
func (s *Segmenter) Trace() []TracePoint {
	out := make([]TracePoint, len(s.trace))
	copy(out, s.trace)
	return out
}

// StartRecording begins accumulating a fresh trace, discarding any loaded one
func (s *Segmenter) StartRecording() error {
	if s.state != StateEmpty && s.state != StateLoaded {
		return &InvalidStateError{Op: "StartRecording", State: s.state}
	}
	s.trace = nil
	s.clearSelection()
	s.state = StateRecording
	return nil
}

// Append adds a point to the trace being recorded
func (s *Segmenter) Append(tp TracePoint) error {
	if s.state != StateRecording {
		return &InvalidStateError{Op: "Append", State: s.state}
	}
	s.trace = append(s.trace, tp)
	return nil
}

// StopRecording freezes the recorded trace for selection
func (s *Segmenter) StopRecording() error {
	if s.state != StateRecording {
		return &InvalidStateError{Op: "StopRecording", State: s.state}
	}
	if len(s.trace) == 0 {
		s.state = StateEmpty
		return nil
	}
	s.state = StateLoaded
	return nil
}

// Load installs a previously recorded trace, replacing any current trace and
// clearing any selection
func (s *Segmenter) Load(trace []TracePoint) {
	s.trace = make([]TracePoint, len(trace))
	copy(s.trace, trace)
	s.clearSelection()
	if len(s.trace) == 0 {
		s.state = StateEmpty
	} else {
		s.state = StateLoaded
	}
}

// SelectStart resolves tap to the nearest trace index and records it as the
// range start
func (s *Segmenter) SelectStart(tap geo.Point) error {
	if s.state != StateLoaded {
		return &InvalidStateError{Op: "SelectStart", State: s.state}
	}
	idx, err := ResolveNearest(s.dist, tap, s.trace)
	if err != nil {
		return err
	}
	s.startIdx = idx
	s.state = StateStartSelected
	return nil
}

// SelectEnd resolves tap to the nearest trace index and completes the range.
// A tap resolving to the start index is rejected with ErrDegenerateSelection
// and leaves state and indices unchanged.
func (s *Segmenter) SelectEnd(tap geo.Point) error {
	if s.state != StateStartSelected {
		return &InvalidStateError{Op: "SelectEnd", State: s.state}
	}
	candidate, err := ResolveNearest(s.dist, tap, s.trace)
	if err != nil {
		return err
	}
	if candidate == s.startIdx {
		return ErrDegenerateSelection
	}
	s.endIdx = candidate
	s.state = StateRangeSelected
	return nil
}

// AdjustEndpoint re-resolves one endpoint of a completed range from a new tap
// using simple nearest-point matching. Rejects adjustments that would
// collapse the range onto the other endpoint.
func (s *Segmenter) AdjustEndpoint(which Endpoint, tap geo.Point) error {
	if s.state != StateRangeSelected {
		return &InvalidStateError{Op: "AdjustEndpoint", State: s.state}
	}
	idx, err := nearestPointIndex(s.dist, tap, s.trace)
	if err != nil {
		return err
	}
	switch which {
	case EndpointStart:
		if idx == s.endIdx {
			return ErrDegenerateSelection
		}
		s.startIdx = idx
	case EndpointEnd:
		if idx == s.startIdx {
			return ErrDegenerateSelection
		}
		s.endIdx = idx
	default:
		return fmt.Errorf("unknown endpoint %q", which)
	}
	return nil
}

// Reset clears the selection, returning to Loaded (or Empty when no trace is
// present). Valid from any state.
func (s *Segmenter) Reset() {
	s.clearSelection()
	if len(s.trace) == 0 {
		s.state = StateEmpty
	} else {
		s.state = StateLoaded
	}
}

// Bounds returns the normalized selection so that start <= end
func (s *Segmenter) Bounds() (start, end int, err error) {
	if s.state != StateRangeSelected {
		return 0, 0, &InvalidStateError{Op: "Bounds", State: s.state}
	}
	start = s.startIdx
	end = s.endIdx
	if start > end {
		start, end = end, start
	}
	return start, end, nil
}

// SubRoute extracts the selected sub-trace, inclusive of both endpoints, in
// original trace order regardless of which endpoint was tapped first
func (s *Segmenter) SubRoute() ([]TracePoint, error) {
	start, end, err := s.Bounds()
	if err != nil {
		return nil, err
	}
	out := make([]TracePoint, end-start+1)
	copy(out, s.trace[start:end+1])
	return out, nil
}

func (s *Segmenter) clearSelection() {
	s.startIdx = -1
	s.endIdx = -1
}

// ResolveNearest maps a tap to the trace index nearest to it. It considers
// every trace point and, for traces with segments, every consecutive pair
// (the winning segment reports its start index). Ties go to the lowest
// index. O(trace length) per call; no caching.
func ResolveNearest(dist geo.Distance, tap geo.Point, trace []TracePoint) (int, error) {
	if len(trace) == 0 {
		return 0, ErrEmptyTrace
	}

	best := -1
	bestDist := math.Inf(1)

	for i := range trace {
		d, err := dist.PointToPoint(tap, trace[i].Point)
		if err != nil {
			return 0, err
		}
		if d < bestDist {
			bestDist = d
			best = i
		}
		if i < len(trace)-1 {
			sd, err := dist.PointToSegment(tap, trace[i].Point, trace[i+1].Point)
			if err != nil {
				return 0, err
			}
			if sd < bestDist {
				bestDist = sd
				best = i
			}
		}
	}
	return best, nil
}

// nearestPointIndex is the point-only variant used for endpoint adjustment
func nearestPointIndex(dist geo.Distance, tap geo.Point, trace []TracePoint) (int, error) {
	if len(trace) == 0 {
		return 0, ErrEmptyTrace
	}

	best := -1
	bestDist := math.Inf(1)
	for i := range trace {
		d, err := dist.PointToPoint(tap, trace[i].Point)
		if err != nil {
			return 0, err
		}
		if d < bestDist {
			bestDist = d
			best = i
		}
	}
	return best, nil
}
