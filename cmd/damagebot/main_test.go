package main

import (
	"strings"
	"testing"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/m3rciful/damagebot/core/bootstrap"
)

func TestNewAppClosesInfraOnFailure(t *testing.T) {
	// sqlx.Open does not dial, so no database is needed.
	db, err := sqlx.Open("postgres", "host=127.0.0.1 port=1 dbname=none sslmode=disable")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := newApp(nil, &bootstrap.Result{DB: db}); err == nil {
		t.Fatal("expected error for nil config")
	}
	if err := db.Ping(); err == nil || !strings.Contains(err.Error(), "database is closed") {
		t.Fatalf("database left open, ping = %v", err)
	}
}
