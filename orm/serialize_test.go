package orm

import "testing"

type serializeTestModel struct{ Base }

func init() {
	meta := NewMetadata("serializeTestModel")
	meta.Hidden = []string{"password"}
	Register(&serializeTestModel{}, meta)
}

func TestSerializeHidesHiddenAttributes(t *testing.T) {
	m := &serializeTestModel{}
	m.Base().meta = MetadataOf(m)
	m.Base().ensureMaps()
	m.Base().Set(m, "email", "a@example.com")
	m.Base().Set(m, "password", "secret")

	out, err := Serialize(m)
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	if _, ok := out["password"]; ok {
		t.Error("expected password to be omitted from serialize() output")
	}
	if out["email"] != "a@example.com" {
		t.Errorf("email = %v, want a@example.com", out["email"])
	}
}

type bothHiddenVisibleModel struct{ Base }

func init() {
	meta := NewMetadata("bothHiddenVisibleModel")
	meta.Hidden = []string{"a"}
	meta.Visible = []string{"b"}
	Register(&bothHiddenVisibleModel{}, meta)
}

func TestSerializeRejectsHiddenAndVisibleTogether(t *testing.T) {
	m := &bothHiddenVisibleModel{}
	m.Base().meta = MetadataOf(m)
	m.Base().ensureMaps()

	_, err := Serialize(m)
	if err == nil {
		t.Fatal("expected a ConfigurationError when both hidden and visible are set")
	}
	if _, ok := err.(*ErrConfiguration); !ok {
		t.Errorf("err = %T, want *ErrConfiguration", err)
	}
}
