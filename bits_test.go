package brisc_test

import (
	"testing"

	"github.com/benbjohnson/brisc"
	"github.com/google/go-cmp/cmp"
)

func TestParseBit(t *testing.T) {
	for _, tt := range []struct {
		c    byte
		bit  brisc.Bit
		ok   bool
		text string
	}{
		{'0', brisc.Bit0, true, "0"},
		{'1', brisc.Bit1, true, "1"},
		{'x', brisc.BitX, true, "x"},
		{'X', brisc.BitX, true, "x"},
		{'z', brisc.BitX, false, "x"},
	} {
		if bit, ok := brisc.ParseBit(tt.c); bit != tt.bit || ok != tt.ok {
			t.Fatalf("unexpected result for %q: %s, %v", tt.c, bit, ok)
		} else if bit.String() != tt.text {
			t.Fatalf("unexpected string for %q: %s", tt.c, bit)
		}
	}
}

func TestBit_Known(t *testing.T) {
	if !brisc.Bit0.Known() || !brisc.Bit1.Known() {
		t.Fatal("expected 0 and 1 to be known")
	} else if brisc.BitX.Known() {
		t.Fatal("expected x to be unknown")
	}
}

func TestParseBits(t *testing.T) {
	t.Run("OK", func(t *testing.T) {
		bits, err := brisc.ParseBits("1x0_X1")
		if err != nil {
			t.Fatal(err)
		} else if diff := cmp.Diff(bits, brisc.Bits{brisc.Bit1, brisc.BitX, brisc.Bit0, brisc.BitX, brisc.Bit1}); diff != "" {
			t.Fatal(diff)
		} else if got, want := bits.String(), "1x0x1"; got != want {
			t.Fatalf("String()=%s, want %s", got, want)
		}
	})

	t.Run("ErrInvalidChar", func(t *testing.T) {
		if _, err := brisc.ParseBits("10z"); err == nil {
			t.Fatal("expected error")
		}
	})
}

func TestBits(t *testing.T) {
	t.Run("NewBits", func(t *testing.T) {
		if got, want := brisc.NewBits(3, brisc.BitX).String(), "xxx"; got != want {
			t.Fatalf("got %s, want %s", got, want)
		}
	})

	t.Run("Equal", func(t *testing.T) {
		a := brisc.MustParseBits("10x")
		if !a.Equal(brisc.MustParseBits("10x")) {
			t.Fatal("expected equal")
		} else if a.Equal(brisc.MustParseBits("100")) {
			t.Fatal("expected unequal value")
		} else if a.Equal(brisc.MustParseBits("10")) {
			t.Fatal("expected unequal length")
		}
	})

	t.Run("Clone", func(t *testing.T) {
		a := brisc.MustParseBits("10")
		b := a.Clone()
		b[0] = brisc.Bit0
		if got := a.String(); got != "10" {
			t.Fatalf("clone aliases original: %s", got)
		} else if brisc.Bits(nil).Clone() != nil {
			t.Fatal("expected nil clone")
		}
	})

	t.Run("Reverse", func(t *testing.T) {
		if got, want := brisc.MustParseBits("110x").Reverse().String(), "x011"; got != want {
			t.Fatalf("got %s, want %s", got, want)
		}
	})
}
