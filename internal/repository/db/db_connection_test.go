package db

import (
	"path/filepath"
	"testing"
)

func TestInitDB_CreatesSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	db, err := InitDB(path)
	if err != nil {
		t.Fatalf("InitDB: %v", err)
	}
	defer db.Close()

	for _, table := range []string{"readings", "accounts"} {
		var name string
		err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&name)
		if err != nil {
			t.Fatalf("table %s missing: %v", table, err)
		}
	}

	if _, err := db.Exec(`INSERT INTO readings (id, value, type, ts) VALUES ('a', -1, 'kWh', 1)`); err == nil {
		t.Fatalf("negative reading value must be rejected by CHECK constraint")
	}
	if _, err := db.Exec(`INSERT INTO accounts (id, email, password_hash, role, created_at) VALUES ('1', 'a@b.c', 'h', 'root', 1)`); err == nil {
		t.Fatalf("unknown role must be rejected by CHECK constraint")
	}
}

func TestInitDB_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	for i := 0; i < 2; i++ {
		db, err := InitDB(path)
		if err != nil {
			t.Fatalf("InitDB #%d: %v", i+1, err)
		}
		_ = db.Close()
	}
}
