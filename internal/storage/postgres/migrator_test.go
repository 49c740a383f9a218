package postgres

import (
	"strings"
	"testing"
	"testing/fstest"
)

func migrationFile(body string) *fstest.MapFile {
	return &fstest.MapFile{Data: []byte(body)}
}

func TestLoadMigrationsFromFS(t *testing.T) {
	fsys := fstest.MapFS{
		"sql/migrations/0002_payments.up.sql":   migrationFile("CREATE TABLE payments (id TEXT)"),
		"sql/migrations/0002_payments.down.sql": migrationFile("DROP TABLE payments"),
		"sql/migrations/0001_orders.up.sql":     migrationFile("CREATE TABLE orders (id TEXT)"),
		"sql/migrations/0001_orders.down.sql":   migrationFile("DROP TABLE orders"),
	}

	migrations, err := loadMigrationsFromFS(fsys)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(migrations) != 2 {
		t.Fatalf("expected 2 migrations, got %d", len(migrations))
	}
	// Сортировка по версии вне зависимости от порядка файлов.
	if migrations[0].Version != 1 || migrations[1].Version != 2 {
		t.Fatalf("unexpected order: %d, %d", migrations[0].Version, migrations[1].Version)
	}
	if migrations[0].Name != "orders" || migrations[1].Name != "payments" {
		t.Fatalf("unexpected names: %s, %s", migrations[0].Name, migrations[1].Name)
	}
	if !strings.Contains(migrations[0].UpSQL, "CREATE TABLE orders") {
		t.Fatalf("unexpected up sql: %s", migrations[0].UpSQL)
	}
	if !strings.Contains(migrations[0].DownSQL, "DROP TABLE orders") {
		t.Fatalf("unexpected down sql: %s", migrations[0].DownSQL)
	}
}

func TestLoadMigrationsFromFS_Errors(t *testing.T) {
	cases := []struct {
		name string
		fsys fstest.MapFS
	}{
		{
			name: "no files",
			fsys: fstest.MapFS{},
		},
		{
			name: "bad file name",
			fsys: fstest.MapFS{
				"sql/migrations/orders.sql": migrationFile("CREATE TABLE orders (id TEXT)"),
			},
		},
		{
			name: "missing down",
			fsys: fstest.MapFS{
				"sql/migrations/0001_orders.up.sql": migrationFile("CREATE TABLE orders (id TEXT)"),
			},
		},
		{
			name: "missing up",
			fsys: fstest.MapFS{
				"sql/migrations/0001_orders.down.sql": migrationFile("DROP TABLE orders"),
			},
		},
		{
			name: "empty body",
			fsys: fstest.MapFS{
				"sql/migrations/0001_orders.up.sql":   migrationFile("   "),
				"sql/migrations/0001_orders.down.sql": migrationFile("DROP TABLE orders"),
			},
		},
		{
			name: "name mismatch",
			fsys: fstest.MapFS{
				"sql/migrations/0001_orders.up.sql":    migrationFile("CREATE TABLE orders (id TEXT)"),
				"sql/migrations/0001_clients.down.sql": migrationFile("DROP TABLE orders"),
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := loadMigrationsFromFS(tc.fsys); err == nil {
				t.Fatal("expected load error")
			}
		})
	}
}

func TestEmbeddedMigrations(t *testing.T) {
	migrations, err := loadMigrationsFromFS(migrationsFS)
	if err != nil {
		t.Fatalf("embedded migrations are broken: %v", err)
	}
	if len(migrations) == 0 {
		t.Fatal("expected embedded migrations")
	}
	for i, m := range migrations {
		if int64(i+1) != m.Version {
			t.Fatalf("expected contiguous versions, got %d at position %d", m.Version, i)
		}
	}
}
