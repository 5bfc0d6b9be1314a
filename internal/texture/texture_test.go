package texture

import "testing"

func TestGenerateGratingRange(t *testing.T) {
	spec := DefaultSpec()
	spec.Size = 64
	spec.Frequency = 4

	tex, err := Generate(spec)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(tex.Data) != 64*64 {
		t.Fatalf("expected %d pixels, got %d", 64*64, len(tex.Data))
	}

	var lo, hi uint8 = 255, 0
	for _, v := range tex.Data {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if lo > 5 || hi < 250 {
		t.Errorf("full contrast grating should span the range, got [%d, %d]", lo, hi)
	}
}

func TestGratingConstantAlongRows(t *testing.T) {
	spec := Spec{Kind: KindGrating, Size: 32, Frequency: 2, Contrast: 1}
	tex, err := Generate(spec)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	for x := 0; x < tex.Size; x++ {
		if tex.At(x, 0) != tex.At(x, tex.Size-1) {
			t.Fatalf("column %d differs between first and last row", x)
		}
	}
}

func TestZeroContrastIsMidGrey(t *testing.T) {
	spec := Spec{Kind: KindRadial, Size: 16, Frequency: 3, Contrast: 0}
	tex, err := Generate(spec)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	for i, v := range tex.Data {
		if v != 128 {
			t.Fatalf("pixel %d: expected 128, got %d", i, v)
		}
	}
}

func TestBlank(t *testing.T) {
	tex, err := Generate(Spec{Kind: KindBlank, Size: 8, Value: 0})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	for _, v := range tex.Data {
		if v != 0 {
			t.Fatalf("expected black, got %d", v)
		}
	}
}

func TestCustomDispatch(t *testing.T) {
	RegisterCustom("half", func(_ Spec, u, _ float32) float32 {
		if u < 0 {
			return -1
		}
		return 1
	})

	tex, err := Generate(Spec{Kind: KindCustom, Name: "half", Size: 4, Contrast: 1})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if tex.At(0, 0) != 0 || tex.At(3, 0) != 255 {
		t.Errorf("unexpected custom output: %v", tex.Data)
	}

	if _, err := Generate(Spec{Kind: KindCustom, Name: "missing", Size: 4}); err == nil {
		t.Fatal("expected error for unregistered custom texture")
	}
}

func TestValidate(t *testing.T) {
	cases := []Spec{
		{Kind: KindGrating, Size: 0},
		{Kind: KindGrating, Size: 8, Contrast: 2},
		{Kind: "plaid", Size: 8},
		{Kind: KindCustom, Size: 8},
	}
	for _, c := range cases {
		if err := c.Validate(); err == nil {
			t.Errorf("expected validation error for %+v", c)
		}
	}
}
