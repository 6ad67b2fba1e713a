package orm

import "testing"

type fillableModel struct{ Base }

func init() {
	meta := NewMetadata("fillableModel")
	meta.Fillable = []string{"name", "email"}
	meta.Guarded = []string{"email"} // guarded wins on conflict (spec §4.4)
	Register(&fillableModel{}, meta)
}

func TestMassAssignmentFillableGuardedConflict(t *testing.T) {
	m := &fillableModel{}
	m.Base().meta = MetadataOf(m)
	m.Base().ensureMaps()

	fill(m, map[string]any{"name": "ada", "email": "a@example.com", "admin": true})

	if got := m.Base().Get(m, "name"); got != "ada" {
		t.Errorf("name = %v, want ada (fillable)", got)
	}
	if got := m.Base().Get(m, "email"); got != nil {
		t.Errorf("email = %v, want nil (guarded wins over fillable)", got)
	}
	if got := m.Base().Get(m, "admin"); got != nil {
		t.Errorf("admin = %v, want nil (not in fillable)", got)
	}
}

type wideOpenModel struct{ Base }

func init() {
	meta := NewMetadata("wideOpenModel")
	meta.Fillable = []string{"*"}
	Register(&wideOpenModel{}, meta)
}

func TestMassAssignmentWildcardFillable(t *testing.T) {
	m := &wideOpenModel{}
	m.Base().meta = MetadataOf(m)
	m.Base().ensureMaps()

	fill(m, map[string]any{"anything": "goes"})

	if got := m.Base().Get(m, "anything"); got != "goes" {
		t.Errorf("anything = %v, want goes (fillable = [\"*\"] disables filtering)", got)
	}
}
