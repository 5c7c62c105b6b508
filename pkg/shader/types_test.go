package shader

import "testing"

func TestRank(t *testing.T) {
	tests := []struct {
		typ  Type
		want int
	}{
		{TFloat, 1},
		{TInt, 1},
		{TVec2, 2},
		{TVec3, 3},
		{TVec4, 4},
		{TBool, 0},
		{TMat4, 0},
		{TSampler, 0},
		{ArrayOf(Float, 4), 0},
		{ArrayOf(Vec3, 8), 0},
	}
	for _, tt := range tests {
		if got := tt.typ.Rank(); got != tt.want {
			t.Errorf("Rank(%s) = %d, want %d", tt.typ, got, tt.want)
		}
	}
}

func TestTypeForRank(t *testing.T) {
	for r := 1; r <= 4; r++ {
		typ, ok := TypeForRank(r)
		if !ok {
			t.Fatalf("TypeForRank(%d) returned false", r)
		}
		if typ.Rank() != r {
			t.Errorf("TypeForRank(%d).Rank() = %d", r, typ.Rank())
		}
	}
	if _, ok := TypeForRank(0); ok {
		t.Error("TypeForRank(0) should return false")
	}
	if _, ok := TypeForRank(5); ok {
		t.Error("TypeForRank(5) should return false")
	}
}

func TestTypeStringParseRoundTrip(t *testing.T) {
	types := []Type{TFloat, TInt, TBool, TVec2, TVec3, TVec4, TMat4, TSampler,
		ArrayOf(Float, 4), ArrayOf(Vec3, DefaultArrayCapacity)}
	for _, typ := range types {
		parsed, err := ParseType(typ.String())
		if err != nil {
			t.Errorf("ParseType(%q) error: %v", typ.String(), err)
			continue
		}
		if parsed != typ {
			t.Errorf("ParseType(%q) = %v, want %v", typ.String(), parsed, typ)
		}
	}
}

func TestParseTypeErrors(t *testing.T) {
	for _, s := range []string{"", "double", "vec5", "float[", "float[x]", "float[0]"} {
		if _, err := ParseType(s); err == nil {
			t.Errorf("ParseType(%q) should fail", s)
		}
	}
}

func TestTypeEqualIgnoresCapacity(t *testing.T) {
	if !ArrayOf(Float, 4).Equal(ArrayOf(Float, 16)) {
		t.Error("array types with different capacities should be connection-equal")
	}
	if TFloat.Equal(ArrayOf(Float, 4)) {
		t.Error("scalar and array types are not equal")
	}
	if !TSampler.Equal(TSampler) {
		t.Error("sampler should equal itself")
	}
}
