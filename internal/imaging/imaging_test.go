package imaging

import "testing"

func TestGenerateDimensionsAndNonZeroContent(t *testing.T) {
	g := NewGenerator(2304, 4096)
	raw := g.Generate(3, 99)
	want := 2304 * 4096 * 2
	if len(raw) != want {
		t.Fatalf("Generate() length = %d, want %d", len(raw), want)
	}

	nonZero := false
	for _, b := range raw {
		if b != 0 {
			nonZero = true
			break
		}
	}
	if !nonZero {
		t.Fatal("Generate() produced an all-zero frame; expected the stamped label to light up some pixels")
	}
}

func TestGenerateIsDeterministic(t *testing.T) {
	g := NewGenerator(2304, 4096)
	a := g.Generate(1, 1)
	b := g.Generate(1, 1)
	if len(a) != len(b) {
		t.Fatalf("length mismatch across calls: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("Generate(1, 1) is not deterministic: differs at byte %d", i)
		}
	}
}
