package parser

import "testing"

// recorder captures every event a Parser emits, in order, for
// comparison across feeding strategies.
type recorder struct {
	events []string
}

func (r *recorder) Print(c rune) { r.events = append(r.events, "P:"+string(c)) }
func (r *recorder) Execute(b byte) {
	r.events = append(r.events, "E:"+string(rune(b)))
}
func (r *recorder) CSI(params []int, intermediates []byte, private bool, final byte) {
	r.events = append(r.events, "C:"+itoa(params)+string(intermediates)+boolMark(private)+string(final))
}
func (r *recorder) OSC(code int, payload string) {
	r.events = append(r.events, "O:"+itoa([]int{code})+";"+payload)
}
func (r *recorder) ESC(final byte) { r.events = append(r.events, "X:"+string(final)) }

func boolMark(b bool) string {
	if b {
		return "?"
	}
	return ""
}

func itoa(params []int) string {
	out := ""
	for i, p := range params {
		if i > 0 {
			out += ","
		}
		out += string(rune('0' + p%10))
	}
	return out
}

func TestPrintASCII(t *testing.T) {
	p := New()
	r := &recorder{}
	p.FeedBytes([]byte("Hi"), r)
	if len(r.events) != 2 || r.events[0] != "P:H" || r.events[1] != "P:i" {
		t.Fatalf("events = %v", r.events)
	}
}

func TestExecuteC0(t *testing.T) {
	p := New()
	r := &recorder{}
	p.Feed('\n', r)
	if len(r.events) != 1 || r.events[0] != "E:\n" {
		t.Fatalf("events = %v", r.events)
	}
}

func TestCSIDispatch(t *testing.T) {
	p := New()
	r := &recorder{}
	p.FeedBytes([]byte("\x1b[31m"), r)
	if len(r.events) != 1 {
		t.Fatalf("events = %v", r.events)
	}
}

func TestCSIPrivateMode(t *testing.T) {
	p := New()
	r := &recorder{}
	p.FeedBytes([]byte("\x1b[?1049h"), r)
	if len(r.events) != 1 || r.events[0][len(r.events[0])-2] != '?' {
		t.Fatalf("events = %v, want private marker", r.events)
	}
}

func TestOSCTerminatedByBEL(t *testing.T) {
	p := New()
	r := &recorder{}
	p.FeedBytes([]byte("\x1b]0;hello\x07"), r)
	if len(r.events) != 1 || r.events[0] != "O:0;hello" {
		t.Fatalf("events = %v", r.events)
	}
}

func TestOSCTerminatedByST(t *testing.T) {
	p := New()
	r := &recorder{}
	p.FeedBytes([]byte("\x1b]2;title\x1b\\"), r)
	if len(r.events) != 1 || r.events[0] != "O:2;title" {
		t.Fatalf("events = %v", r.events)
	}
}

func TestESCTwoCharSequence(t *testing.T) {
	p := New()
	r := &recorder{}
	p.FeedBytes([]byte("\x1b7"), r)
	if len(r.events) != 1 || r.events[0] != "X:7" {
		t.Fatalf("events = %v", r.events)
	}
}

func TestDaggerCodepointsFiltered(t *testing.T) {
	p := New()
	r := &recorder{}
	p.FeedBytes([]byte("a†b‡c"), r)
	var printed string
	for _, e := range r.events {
		printed += e[2:]
	}
	if printed != "abc" {
		t.Errorf("printed = %q, want %q", printed, "abc")
	}
}

func TestMultiByteUTF8Decoded(t *testing.T) {
	p := New()
	r := &recorder{}
	p.FeedBytes([]byte("あ"), r)
	if len(r.events) != 1 || r.events[0] != "P:あ" {
		t.Fatalf("events = %v", r.events)
	}
}

// TestByteAtATimeMatchesBulk checks the equivalence law of spec.md §8:
// feeding a byte sequence one byte at a time produces the same event
// sequence as feeding it as a single buffer.
func TestByteAtATimeMatchesBulk(t *testing.T) {
	input := []byte("\x1b[1;31mHello, \x1b]0;title\x07世界\x1b[0m\n\x1b[?25l")

	bulk := New()
	bulkRec := &recorder{}
	bulk.FeedBytes(input, bulkRec)

	oneAtATime := New()
	oneRec := &recorder{}
	for _, b := range input {
		oneAtATime.Feed(b, oneRec)
	}

	if len(bulkRec.events) != len(oneRec.events) {
		t.Fatalf("event counts differ: bulk=%d one-at-a-time=%d", len(bulkRec.events), len(oneRec.events))
	}
	for i := range bulkRec.events {
		if bulkRec.events[i] != oneRec.events[i] {
			t.Errorf("event %d: bulk=%q one-at-a-time=%q", i, bulkRec.events[i], oneRec.events[i])
		}
	}
}

func TestSplitMultiByteUTF8AcrossFeeds(t *testing.T) {
	input := []byte("あ")
	p := New()
	r := &recorder{}
	for _, b := range input {
		p.Feed(b, r)
	}
	if len(r.events) != 1 || r.events[0] != "P:あ" {
		t.Fatalf("events = %v", r.events)
	}
}

func TestCSIWithNoParamsDefaultsToZero(t *testing.T) {
	p := New()
	r := &recorder{}
	p.FeedBytes([]byte("\x1b[m"), r)
	if len(r.events) != 1 || r.events[0] != "C:0m" {
		t.Fatalf("events = %v", r.events)
	}
}
