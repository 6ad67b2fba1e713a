package orm

import "testing"

type dirtyTestModel struct{ Base }

func init() {
	Register(&dirtyTestModel{}, NewMetadata("dirtyTestModel"))
}

func TestPluralizationAndSnakeCase(t *testing.T) {
	cases := []struct{ in, wantPlural string }{
		{"company", "companies"},
		{"user", "users"},
		{"person", "people"},
	}
	for _, c := range cases {
		meta := NewMetadata(c.in)
		if meta.Table != c.wantPlural {
			t.Errorf("NewMetadata(%q).Table = %q, want %q", c.in, meta.Table, c.wantPlural)
		}
	}

	if got := SnakeCase("UserProfile"); got != "user_profile" {
		t.Errorf("SnakeCase(UserProfile) = %q, want user_profile", got)
	}
}

func TestDirtyLaw(t *testing.T) {
	meta := MetadataOf(&dirtyTestModel{})
	row := map[string]any{"id": int64(1), "name": "ada"}
	m := hydrateRow(meta, &dirtyTestModel{}, row)
	b := m.Base()

	if b.IsDirty() {
		t.Fatal("expected IsDirty() == false immediately after hydrate")
	}

	b.Set(m, "name", "grace")
	if !b.IsDirty() {
		t.Fatal("expected IsDirty() == true after changing an attribute")
	}

	b.SyncOriginal()
	if b.IsDirty() {
		t.Fatal("expected IsDirty() == false after save (SyncOriginal)")
	}
	if b.GetOriginal("name") != b.Get(m, "name") {
		t.Fatalf("GetOriginal(name) = %v, want equal to Get(name) = %v", b.GetOriginal("name"), b.Get(m, "name"))
	}
}

func TestSingular(t *testing.T) {
	if got := Singular("houses"); got != "house" {
		t.Errorf("Singular(houses) = %q, want house", got)
	}
	if got := Singular("persons"); got != "person" {
		t.Errorf("Singular(persons) = %q, want person", got)
	}
}
