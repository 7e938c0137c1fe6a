package booid

import "testing"

func TestGeneratorMonotonic(t *testing.T) {
	g := NewGenerator(3)
	prev := g.Next()
	for i := 0; i < 10000; i++ {
		next := g.Next()
		if next <= prev {
			t.Fatalf("booid not monotonic: prev=%d next=%d", prev, next)
		}
		prev = next
	}
}

func TestDecodeRoundTrip(t *testing.T) {
	g := NewGenerator(511)
	id := g.Next()
	_, machine, _ := Decode(id)
	if machine != 511 {
		t.Fatalf("expected machine id 511, got %d", machine)
	}
}
