package parser

import "testing"

func collectPrints(t *testing.T, data []byte) string {
	t.Helper()
	p := New()
	var out []rune
	for _, b := range data {
		act := p.Feed(b)
		if act.Kind == ActionPrint {
			out = append(out, act.Rune)
		}
	}
	return string(out)
}

func TestPrintPlainASCII(t *testing.T) {
	if got := collectPrints(t, []byte("hello")); got != "hello" {
		t.Fatalf("got %q", got)
	}
}

func TestUTF8MultiByte(t *testing.T) {
	if got := collectPrints(t, []byte("héllo")); got != "héllo" {
		t.Fatalf("got %q", got)
	}
}

func TestMalformedUTF8YieldsReplacement(t *testing.T) {
	data := []byte{0xC3, 0x28} // invalid continuation
	p := New()
	var out []rune
	for _, b := range data {
		act := p.Feed(b)
		if act.Kind == ActionPrint {
			out = append(out, act.Rune)
		}
	}
	if len(out) == 0 || out[0] != 0xFFFD {
		t.Fatalf("expected replacement char, got %v", out)
	}
}

func TestCSIDispatchParams(t *testing.T) {
	p := New()
	var dispatched bool
	for _, b := range []byte("\x1b[1;31m") {
		act := p.Feed(b)
		if act.Kind == ActionCSIDispatch {
			dispatched = true
			if act.Final != 'm' {
				t.Fatalf("expected final 'm', got %q", act.Final)
			}
			if got := p.Params(); len(got) != 2 || got[0] != 1 || got[1] != 31 {
				t.Fatalf("unexpected params %v", got)
			}
		}
	}
	if !dispatched {
		t.Fatal("CSI not dispatched")
	}
}

func TestOSCAccumulatesUntilTerminator(t *testing.T) {
	p := New()
	var ended bool
	for _, b := range []byte("\x1b]0;title\x07") {
		act := p.Feed(b)
		if act.Kind == ActionOSCEnd {
			ended = true
			if string(p.OSCString()) != "0;title" {
				t.Fatalf("unexpected OSC string %q", p.OSCString())
			}
		}
	}
	if !ended {
		t.Fatal("OSC never terminated")
	}
}

func TestNeverPanicsOnArbitraryBytes(t *testing.T) {
	p := New()
	for i := 0; i < 256; i++ {
		p.Feed(byte(i))
	}
	// Feed a long run of ESC to exercise state churn too.
	for i := 0; i < 1000; i++ {
		p.Feed(0x1b)
		p.Feed(byte(i % 256))
	}
}

func TestFeedSliceMatchesFeed(t *testing.T) {
	data := []byte("plain text \x1b[31mred\x1b[0m done")
	p1 := New()
	var want []rune
	for _, b := range data {
		act := p1.Feed(b)
		if act.Kind == ActionPrint {
			want = append(want, act.Rune)
		}
	}

	p2 := New()
	var got []rune
	for _, act := range p2.FeedSlice(data) {
		if act.Kind == ActionPrint {
			got = append(got, act.Rune)
		}
	}

	if string(want) != string(got) {
		t.Fatalf("FeedSlice diverged: want %q got %q", string(want), string(got))
	}
}
