package orm

import "testing"

func TestBoolCastFalsySet(t *testing.T) {
	falsy := []any{int64(0), "0", "", "false", "False", nil}
	for _, v := range falsy {
		if got := applyCastRead(CastBool, v); v != nil && got != false {
			t.Errorf("applyCastRead(bool, %#v) = %v, want false", v, got)
		}
	}
	truthy := []any{int64(1), "yes", "true", int64(-1)}
	for _, v := range truthy {
		if got := applyCastRead(CastBool, v); got != true {
			t.Errorf("applyCastRead(bool, %#v) = %v, want true", v, got)
		}
	}
}

func TestJSONCastRoundTrip(t *testing.T) {
	written := applyCastWrite(CastJSON, map[string]any{"a": float64(1)})
	s, ok := written.(string)
	if !ok {
		t.Fatalf("applyCastWrite(json) = %#v, want a string", written)
	}
	read := applyCastRead(CastJSON, s)
	m, ok := read.(map[string]any)
	if !ok {
		t.Fatalf("applyCastRead(json) = %#v, want a map", read)
	}
	if m["a"] != float64(1) {
		t.Errorf("round-tripped json a = %v, want 1", m["a"])
	}
}

func TestIntCast(t *testing.T) {
	if got := applyCastRead(CastInt, "42"); got != int64(42) {
		t.Errorf("applyCastRead(int, \"42\") = %v, want 42", got)
	}
	if got := applyCastRead(CastInt, float64(7)); got != int64(7) {
		t.Errorf("applyCastRead(int, 7.0) = %v, want 7", got)
	}
}
