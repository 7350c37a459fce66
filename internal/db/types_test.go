package db

import (
	"math"
	"testing"
)

func TestVectorBytesRoundTrip(t *testing.T) {
	in := []float32{0, 1, -1, 0.5, math.MaxFloat32, math.SmallestNonzeroFloat32}
	out, err := BytesToVector(VectorToBytes(in))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != len(in) {
		t.Fatalf("len = %d, want %d", len(out), len(in))
	}
	for i := range in {
		if out[i] != in[i] {
			t.Errorf("out[%d] = %v, want %v", i, out[i], in[i])
		}
	}
}

func TestVectorToBytes_Empty(t *testing.T) {
	if b := VectorToBytes(nil); len(b) != 0 {
		t.Errorf("expected empty blob, got %d bytes", len(b))
	}
}

func TestBytesToVector_BadLength(t *testing.T) {
	if _, err := BytesToVector([]byte{1, 2, 3}); err == nil {
		t.Error("expected error for blob not a multiple of 4")
	}
}

func TestIndexDefinitionValidate(t *testing.T) {
	valid := func() IndexDefinition {
		return IndexDefinition{
			Name:     "watchlist",
			Prefixes: []string{"entry:"},
			Fields: []IndexField{
				{Name: FieldTokens, Type: IndexFieldText},
				{Name: FieldVector, Type: IndexFieldVector, VectorAlgo: VectorHNSW, VectorDim: 256, VectorDistance: DistanceCosine},
			},
		}
	}

	if def := valid(); def.Validate() != nil {
		t.Fatalf("valid definition rejected: %v", def.Validate())
	}

	cases := []struct {
		name   string
		mutate func(*IndexDefinition)
	}{
		{"empty name", func(d *IndexDefinition) { d.Name = "" }},
		{"bad name characters", func(d *IndexDefinition) { d.Name = "watch list" }},
		{"no fields", func(d *IndexDefinition) { d.Fields = nil }},
		{"empty field name", func(d *IndexDefinition) { d.Fields[0].Name = "" }},
		{"duplicate field", func(d *IndexDefinition) { d.Fields[1].Name = d.Fields[0].Name }},
		{"vector without dim", func(d *IndexDefinition) { d.Fields[1].VectorDim = 0 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			def := valid()
			tc.mutate(&def)
			if def.Validate() == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestIsValidIdentifier(t *testing.T) {
	for _, s := range []string{"watchlist", "ns:entry", "a-b_c1"} {
		if !IsValidIdentifier(s) {
			t.Errorf("IsValidIdentifier(%q) = false, want true", s)
		}
	}
	for _, s := range []string{"", "has space", "semi;colon", "юникод"} {
		if IsValidIdentifier(s) {
			t.Errorf("IsValidIdentifier(%q) = true, want false", s)
		}
	}
}
