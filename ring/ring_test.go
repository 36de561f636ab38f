package ring

import (
	"bytes"
	"testing"
)

func TestNew(t *testing.T) {
	b := New(16)
	if b.Capacity() != 16 {
		t.Errorf("Capacity() = %d, want 16", b.Capacity())
	}
	if b.Used() != 0 {
		t.Errorf("Used() = %d, want 0", b.Used())
	}
	if len(b.Bytes()) != 16 {
		t.Errorf("len(Bytes()) = %d, want 16", len(b.Bytes()))
	}
}

func TestNewInvalidCapacity(t *testing.T) {
	for _, capacity := range []int{0, -4} {
		b := New(capacity)
		if b.Capacity() != 0 {
			t.Errorf("New(%d).Capacity() = %d, want 0", capacity, b.Capacity())
		}
		// None of these may panic on an empty ring.
		b.SetWriteIndex(3)
		b.Consume(1)
		if b.Used() != 0 {
			t.Errorf("New(%d).Used() = %d, want 0", capacity, b.Used())
		}
		if b.Peek() != nil {
			t.Errorf("New(%d).Peek() = %v, want nil", capacity, b.Peek())
		}
	}
}

func TestUsedTracksWriteIndex(t *testing.T) {
	b := New(8)
	copy(b.Bytes(), "abcde")
	b.SetWriteIndex(5)
	if b.Used() != 5 {
		t.Errorf("Used() = %d, want 5", b.Used())
	}

	b.Consume(2)
	if b.Used() != 3 {
		t.Errorf("Used() after Consume(2) = %d, want 3", b.Used())
	}
}

func TestPeekContiguous(t *testing.T) {
	b := New(8)
	copy(b.Bytes(), "abcde")
	b.SetWriteIndex(5)

	span := b.Peek()
	if !bytes.Equal(span, []byte("abcde")) {
		t.Errorf("Peek() = %q, want %q", span, "abcde")
	}
}

func TestPeekWrapsInTwoSpans(t *testing.T) {
	b := New(8)

	// Fill and drain the first six slots so the read cursor sits at 6.
	copy(b.Bytes(), "xxxxxx")
	b.SetWriteIndex(6)
	b.Consume(6)

	// A six-byte run starting at slot 6 wraps past the end of the store.
	store := b.Bytes()
	data := []byte("ABCDEF")
	for i, c := range data {
		store[(6+i)%8] = c
	}
	b.SetWriteIndex((6 + len(data)) % 8)

	if b.Used() != 6 {
		t.Fatalf("Used() = %d, want 6", b.Used())
	}

	first := b.Peek()
	if !bytes.Equal(first, []byte("AB")) {
		t.Fatalf("first Peek() = %q, want %q", first, "AB")
	}
	b.Consume(len(first))

	second := b.Peek()
	if !bytes.Equal(second, []byte("CDEF")) {
		t.Fatalf("second Peek() = %q, want %q", second, "CDEF")
	}
	b.Consume(len(second))

	if b.Used() != 0 {
		t.Errorf("Used() = %d, want 0", b.Used())
	}
}

func TestSetWriteIndexAtCapacityWraps(t *testing.T) {
	b := New(8)
	// A circular DMA that just auto-reloaded reports zero progress into the
	// next lap; capacity-minus-remaining then equals the capacity itself.
	b.SetWriteIndex(8)
	if b.Used() != 0 {
		t.Errorf("Used() = %d, want 0", b.Used())
	}
}

func TestReset(t *testing.T) {
	b := New(8)
	b.SetWriteIndex(5)
	b.Consume(1)
	b.Reset()
	if b.Used() != 0 {
		t.Errorf("Used() after Reset = %d, want 0", b.Used())
	}
	if b.Peek() != nil {
		t.Errorf("Peek() after Reset = %v, want nil", b.Peek())
	}
}
