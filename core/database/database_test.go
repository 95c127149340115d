package database

import (
	"context"
	"strings"
	"testing"
)

func TestConnDSNQuotesSpecialValues(t *testing.T) {
	dsn := connDSN(Config{
		Host:     "db",
		Port:     "5432",
		User:     "bot",
		Password: "it's secret",
		Name:     "damage",
		SSLMode:  "disable",
	})
	want := `user=bot password='it\'s secret' host=db port=5432 dbname=damage sslmode=disable`
	if dsn != want {
		t.Fatalf("dsn = %s\nwant  %s", dsn, want)
	}
}

func TestMigrateURL(t *testing.T) {
	got := migrateURL(Config{Host: "db", Port: "5432", User: "bot", Password: "p@ss", Name: "damage", SSLMode: "require"})
	want := "postgres://bot:p%40ss@db:5432/damage?sslmode=require"
	if got != want {
		t.Fatalf("url = %s, want %s", got, want)
	}
}

func TestEmbeddedMigrations(t *testing.T) {
	files := listMigrationFiles(migrationFS)
	if len(files) == 0 {
		t.Fatal("expected embedded up migrations")
	}
	if !strings.HasPrefix(files[0], "000001_") {
		t.Fatalf("unexpected first migration %q", files[0])
	}
	if n := countApplied(files, 0, parseVersion(files[len(files)-1])); n != len(files) {
		t.Fatalf("countApplied = %d, want %d", n, len(files))
	}
	if n := countApplied(files, 1, 1); n != 0 {
		t.Fatalf("countApplied with no change = %d", n)
	}
}

func TestNopJournal(t *testing.T) {
	var j Journal = NopJournal{}
	if err := j.Record(context.Background(), Event{UserID: 1, Kind: EventChatStarted}); err != nil {
		t.Fatalf("Record: %v", err)
	}
}
