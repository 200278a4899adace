package migrate

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var migrationFileRe = regexp.MustCompile(`^(\d{14})_[a-z0-9_]+\.sql$`)

// Lint checks every .sql file in dir for a well-formed timestamped name, a
// unique version, and the goose Up/Down markers. An empty directory passes.
func Lint(dir string) error {
	if dir == "" {
		dir = Dir
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}

	versions := map[string]string{}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".sql") {
			continue
		}

		m := migrationFileRe.FindStringSubmatch(name)
		if m == nil {
			return fmt.Errorf("migration %q: name must be YYYYMMDDHHMMSS_snake_case.sql", name)
		}
		if dup, ok := versions[m[1]]; ok {
			return fmt.Errorf("migrations %q and %q share version %s", dup, name, m[1])
		}
		versions[m[1]] = name

		body, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return fmt.Errorf("read migration %q: %w", name, err)
		}
		for _, marker := range []string{"-- +goose Up", "-- +goose Down"} {
			if !strings.Contains(string(body), marker) {
				return fmt.Errorf("migration %q: missing %q marker", name, marker)
			}
		}
	}
	return nil
}
