package game

import "time"

// frameTap records the last N frame durations into a ring buffer so the
// overlay can show a smoothed frame rate. It is only touched from the frame
// loop.
type frameTap struct {
	buffer    []time.Duration
	nextIndex int
	filled    int
}

func newFrameTap(ringSize int) *frameTap {
	if ringSize < 1 {
		ringSize = 1
	}
	return &frameTap{buffer: make([]time.Duration, ringSize)}
}

func (t *frameTap) record(d time.Duration) {
	t.buffer[t.nextIndex] = d
	t.nextIndex++
	if t.nextIndex >= len(t.buffer) {
		t.nextIndex = 0
	}
	if t.filled < len(t.buffer) {
		t.filled++
	}
}

// snapshot returns up to the last n durations, most recent last.
func (t *frameTap) snapshot(n int) []time.Duration {
	if n > t.filled {
		n = t.filled
	}
	out := make([]time.Duration, 0, n)
	// Walk backwards from nextIndex - 1
	idx := t.nextIndex - 1
	if idx < 0 {
		idx = len(t.buffer) - 1
	}
	for i := 0; i < n; i++ {
		out = append(out, t.buffer[idx])
		idx--
		if idx < 0 {
			idx = len(t.buffer) - 1
		}
	}
	// reverse to chronological order
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// average returns the mean of the recorded durations, or zero when empty.
func (t *frameTap) average() time.Duration {
	samples := t.snapshot(t.filled)
	if len(samples) == 0 {
		return 0
	}
	var sum time.Duration
	for _, d := range samples {
		sum += d
	}
	return sum / time.Duration(len(samples))
}
