package vad

// ring keeps the most recent frames so a phrase includes the audio just
// before speech was detected.
type ring struct {
	frames [][]byte
	head   int
	size   int
}

func newRing(capacity int) *ring {
	if capacity < 0 {
		capacity = 0
	}
	return &ring{frames: make([][]byte, capacity)}
}

func (r *ring) Add(frame []byte) {
	if len(r.frames) == 0 {
		return
	}
	r.frames[r.head] = frame
	r.head = (r.head + 1) % len(r.frames)
	if r.size < len(r.frames) {
		r.size++
	}
}

// Drain returns the buffered frames oldest first and empties the ring.
func (r *ring) Drain() [][]byte {
	out := make([][]byte, 0, r.size)
	start := (r.head - r.size + len(r.frames)) % max(len(r.frames), 1)
	for i := 0; i < r.size; i++ {
		out = append(out, r.frames[(start+i)%len(r.frames)])
	}
	r.size = 0
	r.head = 0
	return out
}
