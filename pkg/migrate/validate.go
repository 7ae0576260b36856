package migrate

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var migrationFileRe = regexp.MustCompile(`^(\d{14})_[a-z0-9_]+\.sql$`)

// ValidateDir checks that every SQL file in dir follows the goose naming
// convention, carries both Up and Down sections, and has a unique version.
// An empty directory is valid.
func ValidateDir(dir string) error {
	if dir == "" {
		return fmt.Errorf("dir is required")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read dir %q: %w", dir, err)
	}

	versions := map[string]string{}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		name := entry.Name()

		match := migrationFileRe.FindStringSubmatch(name)
		if match == nil {
			return fmt.Errorf("invalid migration filename %q (expected YYYYMMDDHHMMSS_name.sql)", name)
		}
		version := match[1]
		if previous, dup := versions[version]; dup {
			return fmt.Errorf("duplicate migration version %s in %q and %q", version, previous, name)
		}
		versions[version] = name

		if err := validateMigrationBody(filepath.Join(dir, name)); err != nil {
			return err
		}
	}
	return nil
}

func validateMigrationBody(path string) error {
	body, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read file %q: %w", path, err)
	}
	text := string(body)
	for _, directive := range []string{"-- +goose Up", "-- +goose Down"} {
		if !strings.Contains(text, directive) {
			return fmt.Errorf("migration %q missing %q", filepath.Base(path), directive)
		}
	}
	return nil
}
