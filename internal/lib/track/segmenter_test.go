package track

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wayfare/geoengine/internal/lib/geo"
)

// straightTrace returns n points spaced ~50m apart heading north
func straightTrace(n int) []TracePoint {
	trace := make([]TracePoint, n)
	for i := 0; i < n; i++ {
		trace[i] = TracePoint{
			// 0.00045 degrees of latitude is roughly 50 meters
			Point:     geo.Point{Latitude: 1.3000 + float64(i)*0.00045, Longitude: 103.8000},
			Timestamp: int64(i) * 5000,
		}
	}
	return trace
}

func TestSegmenter_RecordingLifecycle(t *testing.T) {
	s := NewSegmenter()
	assert.Equal(t, StateEmpty, s.State())

	require.NoError(t, s.StartRecording())
	assert.Equal(t, StateRecording, s.State())

	for _, tp := range straightTrace(3) {
		require.NoError(t, s.Append(tp))
	}
	require.NoError(t, s.StopRecording())
	assert.Equal(t, StateLoaded, s.State())
	assert.Len(t, s.Trace(), 3)

	// Appending outside a recording session is rejected
	err := s.Append(TracePoint{})
	var ise *InvalidStateError
	assert.ErrorAs(t, err, &ise)
}

func TestSegmenter_StopRecordingEmptyTrace(t *testing.T) {
	s := NewSegmenter()
	require.NoError(t, s.StartRecording())
	require.NoError(t, s.StopRecording())
	assert.Equal(t, StateEmpty, s.State())
}

func TestSegmenter_SelectRange(t *testing.T) {
	s := NewSegmenter()
	s.Load(straightTrace(5))

	// Tap near point 0, then near point 4
	require.NoError(t, s.SelectStart(geo.Point{Latitude: 1.30001, Longitude: 103.80002}))
	assert.Equal(t, StateStartSelected, s.State())

	require.NoError(t, s.SelectEnd(geo.Point{Latitude: 1.30181, Longitude: 103.80001}))
	assert.Equal(t, StateRangeSelected, s.State())

	sub, err := s.SubRoute()
	require.NoError(t, err)
	require.Len(t, sub, 5)
	for i, tp := range sub {
		assert.Equal(t, int64(i)*5000, tp.Timestamp, "sub-route preserves trace order")
	}
}

func TestSegmenter_SelectRangeReversedTaps(t *testing.T) {
	s := NewSegmenter()
	trace := straightTrace(5)
	s.Load(trace)

	// Tap near point 4 first, then near point 0
	require.NoError(t, s.SelectStart(geo.Point{Latitude: 1.30181, Longitude: 103.80001}))
	require.NoError(t, s.SelectEnd(geo.Point{Latitude: 1.30001, Longitude: 103.80002}))

	start, end, err := s.Bounds()
	require.NoError(t, err)
	assert.Equal(t, 0, start)
	assert.Equal(t, 4, end)

	sub, err := s.SubRoute()
	require.NoError(t, err)
	assert.Equal(t, trace, sub, "outcome is order-independent, always ascending by index")
}

func TestSegmenter_DegenerateSelection(t *testing.T) {
	s := NewSegmenter()
	s.Load(straightTrace(5))

	tap := geo.Point{Latitude: 1.30001, Longitude: 103.80002}
	require.NoError(t, s.SelectStart(tap))

	// Same tap resolves to the same index and must be rejected
	err := s.SelectEnd(tap)
	assert.ErrorIs(t, err, ErrDegenerateSelection)
	assert.Equal(t, StateStartSelected, s.State(), "state is unchanged after rejection")

	// A distinct tap still completes the range
	require.NoError(t, s.SelectEnd(geo.Point{Latitude: 1.3009, Longitude: 103.8000}))
	assert.Equal(t, StateRangeSelected, s.State())
}

func TestSegmenter_AdjustEndpoint(t *testing.T) {
	s := NewSegmenter()
	s.Load(straightTrace(5))

	require.NoError(t, s.SelectStart(geo.Point{Latitude: 1.30001, Longitude: 103.8000}))
	require.NoError(t, s.SelectEnd(geo.Point{Latitude: 1.30181, Longitude: 103.8000}))

	// Pull the end back to point 2
	require.NoError(t, s.AdjustEndpoint(EndpointEnd, geo.Point{Latitude: 1.30090, Longitude: 103.8000}))
	start, end, err := s.Bounds()
	require.NoError(t, err)
	assert.Equal(t, 0, start)
	assert.Equal(t, 2, end)

	// Collapsing onto the other endpoint is rejected and leaves the range intact
	err = s.AdjustEndpoint(EndpointStart, geo.Point{Latitude: 1.30090, Longitude: 103.8000})
	assert.ErrorIs(t, err, ErrDegenerateSelection)
	start, end, err = s.Bounds()
	require.NoError(t, err)
	assert.Equal(t, 0, start)
	assert.Equal(t, 2, end)

	// Adjusting before a range exists is a state error
	s.Reset()
	err = s.AdjustEndpoint(EndpointEnd, geo.Point{Latitude: 1.3, Longitude: 103.8})
	var ise *InvalidStateError
	assert.ErrorAs(t, err, &ise)
}

func TestSegmenter_Reset(t *testing.T) {
	s := NewSegmenter()
	s.Load(straightTrace(3))

	require.NoError(t, s.SelectStart(geo.Point{Latitude: 1.30001, Longitude: 103.8000}))
	s.Reset()
	assert.Equal(t, StateLoaded, s.State())

	_, _, err := s.Bounds()
	assert.Error(t, err)

	s.Load(nil)
	assert.Equal(t, StateEmpty, s.State())
}

func TestSegmenter_SelectInWrongState(t *testing.T) {
	s := NewSegmenter()

	var ise *InvalidStateError
	err := s.SelectStart(geo.Point{Latitude: 1.3, Longitude: 103.8})
	assert.ErrorAs(t, err, &ise)

	s.Load(straightTrace(3))
	err = s.SelectEnd(geo.Point{Latitude: 1.3, Longitude: 103.8})
	assert.ErrorAs(t, err, &ise)
}

func TestResolveNearest(t *testing.T) {
	dist := geo.NewDistance()
	trace := straightTrace(5)

	// Tap right next to point 3
	idx, err := ResolveNearest(dist, geo.Point{Latitude: 1.30135, Longitude: 103.80001}, trace)
	require.NoError(t, err)
	assert.Equal(t, 3, idx)

	// Tap between points 1 and 2: the winning segment reports its start index
	idx, err = ResolveNearest(dist, geo.Point{Latitude: 1.300675, Longitude: 103.80005}, trace)
	require.NoError(t, err)
	assert.Equal(t, 1, idx)

	// Equidistant taps break ties toward the lowest index
	single := []TracePoint{
		{Point: geo.Point{Latitude: 1.3000, Longitude: 103.8000}},
		{Point: geo.Point{Latitude: 1.3000, Longitude: 103.8000}},
	}
	idx, err = ResolveNearest(dist, geo.Point{Latitude: 1.3001, Longitude: 103.8000}, single)
	require.NoError(t, err)
	assert.Equal(t, 0, idx)

	_, err = ResolveNearest(dist, geo.Point{Latitude: 1.3, Longitude: 103.8}, nil)
	assert.ErrorIs(t, err, ErrEmptyTrace)

	_, err = ResolveNearest(dist, geo.Point{Latitude: 999, Longitude: 0}, trace)
	assert.ErrorIs(t, err, geo.ErrInvalidCoordinate)
}
