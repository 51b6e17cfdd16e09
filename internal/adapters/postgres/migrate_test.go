package postgres

import (
	"testing"
	"testing/fstest"
)

func TestLoadMigrationsOrdersAndChecksums(t *testing.T) {
	t.Parallel()

	fsys := fstest.MapFS{
		"migrations/0002_site.sql": {Data: []byte("CREATE TABLE b ();")},
		"migrations/0001_init.sql": {Data: []byte("CREATE TABLE a ();")},
		"migrations/README.md":     {Data: []byte("notes")},
	}
	files, err := loadMigrations(fsys)
	if err != nil {
		t.Fatalf("load migrations: %v", err)
	}
	if len(files) != 2 || files[0].version != "0001_init" || files[1].version != "0002_site" {
		t.Fatalf("unexpected migration order %+v", files)
	}
	if files[0].checksum == files[1].checksum || len(files[0].checksum) != 64 {
		t.Fatalf("unexpected checksums %q %q", files[0].checksum, files[1].checksum)
	}
}

func TestEmbeddedMigrationsLoad(t *testing.T) {
	t.Parallel()

	files, err := loadMigrations(migrationFS)
	if err != nil {
		t.Fatalf("load embedded migrations: %v", err)
	}
	if len(files) < 2 || files[0].version != "0001_init" {
		t.Fatalf("unexpected embedded migrations %+v", files)
	}
}
