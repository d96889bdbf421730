package comm

// FeedResult tells what Framer.Feed did with a byte.
type FeedResult int

// Feed results.
const (
	// Appended means the byte was added to the current line.
	Appended FeedResult = iota
	// Truncated means the line is full and the byte was dropped.
	Truncated
	// Erased means a backspace removed the last byte, if any.
	Erased
	// Framed means a terminator completed a line and it was queued.
	Framed
	// FrameDropped means a line completed but the queue was full.
	FrameDropped
	// EmptyLine means a terminator arrived with nothing accumulated.
	EmptyLine
)

func (r FeedResult) String() string {
	switch r {
	case Appended:
		return "appended"
	case Truncated:
		return "truncated"
	case Erased:
		return "erased"
	case Framed:
		return "framed"
	case FrameDropped:
		return "frame-dropped"
	case EmptyLine:
		return "empty"
	}
	return "unknown"
}

// Framer accumulates received bytes into lines terminated by CR or LF.
// It is driven by a single producer.
type Framer struct {
	Frames *FrameQueue

	line []byte
	n    int
}

// NewFramer creates a Framer with a lineLength accumulator feeding frames.
func NewFramer(frames *FrameQueue, lineLength int) *Framer {
	return &Framer{Frames: frames, line: make([]byte, lineLength)}
}

// Feed consumes one byte.
func (f *Framer) Feed(b byte) FeedResult {
	switch b {
	case '\r', '\n':
		if f.n == 0 {
			return EmptyLine
		}
		line := f.line[:f.n]
		f.n = 0
		if !f.Frames.put(line) {
			return FrameDropped
		}
		return Framed
	case '\b', 0x7f:
		if f.n > 0 {
			f.n--
		}
		return Erased
	}
	if f.n >= len(f.line) {
		return Truncated
	}
	f.line[f.n] = b
	f.n++
	return Appended
}

// Pending returns the length of the incomplete line.
func (f *Framer) Pending() int {
	return f.n
}

// Reset discards the incomplete line.
func (f *Framer) Reset() {
	f.n = 0
}
