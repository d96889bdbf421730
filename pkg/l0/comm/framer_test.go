package comm

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

type framerTestSequence struct {
	in     []byte
	expect FeedResult
	frames []string
	check  bool
}

type framerTestSequenceBuilder struct {
	seq []framerTestSequence
}

func framerTestSequences() *framerTestSequenceBuilder {
	return &framerTestSequenceBuilder{}
}

func (b *framerTestSequenceBuilder) on(expect FeedResult, in ...byte) *framerTestSequenceBuilder {
	b.seq = append(b.seq, framerTestSequence{in: in, expect: expect})
	return b
}

func (b *framerTestSequenceBuilder) appended(s string) *framerTestSequenceBuilder {
	return b.on(Appended, []byte(s)...)
}

func (b *framerTestSequenceBuilder) truncated(s string) *framerTestSequenceBuilder {
	return b.on(Truncated, []byte(s)...)
}

func (b *framerTestSequenceBuilder) erase(n int) *framerTestSequenceBuilder {
	return b.on(Erased, []byte(strings.Repeat("\b", n))...)
}

func (b *framerTestSequenceBuilder) end(term byte, expect FeedResult) *framerTestSequenceBuilder {
	return b.on(expect, term)
}

func (b *framerTestSequenceBuilder) framed() *framerTestSequenceBuilder {
	return b.end('\n', Framed)
}

func (b *framerTestSequenceBuilder) frames(lines ...string) *framerTestSequenceBuilder {
	b.seq = append(b.seq, framerTestSequence{frames: lines, check: true})
	return b
}

func (b *framerTestSequenceBuilder) build() []framerTestSequence {
	return b.seq
}

func TestFramer(t *testing.T) {
	long := strings.Repeat("a", MaxLineLength)
	testCases := []struct {
		name string
		seq  []framerTestSequence
	}{
		{
			name: "single line",
			seq: framerTestSequences().
				appended("$PCSTT,*").framed().
				frames("$PCSTT,*").
				build(),
		},
		{
			name: "crlf yields one frame",
			seq: framerTestSequences().
				appended("abc").end('\r', Framed).end('\n', EmptyLine).
				frames("abc").
				build(),
		},
		{
			name: "empty lines ignored",
			seq: framerTestSequences().
				end('\n', EmptyLine).end('\r', EmptyLine).
				frames().
				build(),
		},
		{
			name: "overflow truncates line",
			seq: framerTestSequences().
				appended(long).truncated("bcd").framed().
				frames(long).
				appended("x").framed().
				frames("x").
				build(),
		},
		{
			name: "backspace",
			seq: framerTestSequences().
				erase(2).
				appended("$PCSTX").erase(1).appended("T,*").framed().
				frames("$PCSTT,*").
				appended("ab").erase(3).end('\n', EmptyLine).
				frames().
				build(),
		},
		{
			name: "full queue drops newest",
			seq: framerTestSequences().
				appended("a").framed().
				appended("b").framed().
				appended("c").end('\n', FrameDropped).
				frames("a", "b").
				appended("d").framed().
				frames("d").
				build(),
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			q := NewFrameQueue(2, MaxLineLength)
			f := NewFramer(q, MaxLineLength)
			for i, s := range tc.seq {
				if s.check {
					var lines []string
					for {
						frame, ok := q.Next()
						if !ok {
							break
						}
						lines = append(lines, string(frame))
					}
					require.Equalf(t, s.frames, lines, "seq[%d] frames mismatch", i)
					continue
				}
				for n, b := range s.in {
					require.Equalf(t, s.expect, f.Feed(b), "seq[%d].byte[%d] %q", i, n, b)
				}
			}
		})
	}
}

func TestFrameQueueDropCount(t *testing.T) {
	q := NewFrameQueue(2, 4)
	require.True(t, q.put([]byte("one")))
	require.True(t, q.put([]byte("two")))
	require.False(t, q.put([]byte("three")))
	require.Equal(t, uint64(1), q.Dropped())
	require.Equal(t, 2, q.Len())
	f, ok := q.Next()
	require.True(t, ok)
	require.Equal(t, Frame("one"), f)
	require.True(t, q.put([]byte("four!")))
	f, _ = q.Next()
	require.Equal(t, Frame("two"), f)
	f, _ = q.Next()
	require.Equal(t, Frame("four"), f)
}
