package database

import (
	"testing"

	"interview_prep_backend/internal/config"
)

func TestDialectorSelectsDriver(t *testing.T) {
	cases := []struct {
		driver string
		want   string
	}{
		{"", "mysql"},
		{"mysql", "mysql"},
		{"postgres", "postgres"},
		{"sqlite", "sqlite"},
	}
	for _, tc := range cases {
		d, err := Dialector(&config.DatabaseConfig{Driver: tc.driver, Host: "h", Port: 1, Charset: "utf8mb4"})
		if err != nil {
			t.Fatalf("%q: %v", tc.driver, err)
		}
		if d.Name() != tc.want {
			t.Fatalf("%q: got dialector %s", tc.driver, d.Name())
		}
	}
	if _, err := Dialector(&config.DatabaseConfig{Driver: "oracle"}); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestMigrateSQLite(t *testing.T) {
	db, err := InitDB(&config.DatabaseConfig{Driver: "sqlite", Path: "file:migrate_test?mode=memory&cache=shared"}, false)
	if err != nil {
		t.Fatalf("InitDB: %v", err)
	}
	if err := Migrate(db); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	for _, table := range []string{"users", "skill_analyses", "generated_roadmaps", "project_progress"} {
		if !db.Migrator().HasTable(table) {
			t.Fatalf("missing table %s", table)
		}
	}
}
