package compile

import (
	"strings"
	"testing"

	"github.com/ormforge/ormforge/migration"
)

func usersBlueprint() func() *migration.Blueprint {
	return func() *migration.Blueprint {
		bp := &migration.Blueprint{Table: "users", Mode: migration.ModeCreate}
		bp.ID("id")
		bp.String("email", 0).Unique()
		bp.Bool("active").Default(true)
		bp.Timestamps()
		bp.Foreign("team_id", "teams", "id", "CASCADE", "CASCADE")
		return bp
	}
}

func TestCreateTableAcrossDialects(t *testing.T) {
	cases := []struct {
		name    string
		c       Compiler
		wantQuote string
	}{
		{"mysql", MySQL{}, "`"},
		{"postgres", Postgres{}, `"`},
		{"sqlite", SQLite{}, `"`},
		{"mssql", MSSQL{}, "["},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			bp := usersBlueprint()()
			stmts, err := tc.c.Compile(bp)
			if err != nil {
				t.Fatalf("Compile: %v", err)
			}
			if len(stmts) == 0 {
				t.Fatal("expected at least one statement")
			}
			if !strings.Contains(stmts[0], "CREATE TABLE") {
				t.Errorf("stmts[0] = %q, want a CREATE TABLE", stmts[0])
			}
			if !strings.Contains(stmts[0], tc.wantQuote) {
				t.Errorf("stmts[0] = %q, want it to use %s quoting", stmts[0], tc.wantQuote)
			}
		})
	}
}

func TestDropTableIfExists(t *testing.T) {
	bp := &migration.Blueprint{Table: "widgets", Mode: migration.ModeDrop, IfExists: true}

	mysqlStmts, _ := MySQL{}.Compile(bp)
	if mysqlStmts[0] != "DROP TABLE IF EXISTS `widgets`" {
		t.Errorf("mysql drop = %q", mysqlStmts[0])
	}

	mssqlStmts, _ := MSSQL{}.Compile(bp)
	if !strings.Contains(mssqlStmts[0], "OBJECT_ID") {
		t.Errorf("mssql drop = %q, want an OBJECT_ID guard (no native DROP TABLE IF EXISTS)", mssqlStmts[0])
	}
}

func TestAlterAddAndChangeColumn(t *testing.T) {
	bp := &migration.Blueprint{Table: "users", Mode: migration.ModeAlter}
	bp.String("nickname", 0).Nullable()
	changed := bp.String("email", 0)
	changed.Change()

	stmts, err := Postgres{}.Compile(bp)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if !strings.Contains(stmts[0], "ADD COLUMN") {
		t.Errorf("stmts[0] = %q, want ADD COLUMN", stmts[0])
	}
	if !strings.Contains(stmts[1], "ALTER COLUMN") {
		t.Errorf("stmts[1] = %q, want ALTER COLUMN", stmts[1])
	}
}

func TestForFunc(t *testing.T) {
	if _, err := For("mysql"); err != nil {
		t.Errorf("For(mysql): %v", err)
	}
	if _, err := For("nope"); err == nil {
		t.Error("expected an error for an unknown dialect")
	}
}
