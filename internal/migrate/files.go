package migrate

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/terminally-online/paramsync/internal/diff"
)

const (
	upSuffix   = ".sql"
	downSuffix = ".down.sql"

	timestampFormat = "20060102150405"
)

type Migration struct {
	Name      string
	Content   string
	Checksum  string
	AppliedAt time.Time
	Modified  bool
}

func ComputeChecksum(content string) string {
	hash := sha256.Sum256([]byte(content))
	return hex.EncodeToString(hash[:])
}

func isUpMigration(name string) bool {
	return strings.HasSuffix(name, upSuffix) && !strings.HasSuffix(name, downSuffix)
}

// DownName returns the rollback file name paired with an up migration.
func DownName(name string) string {
	return strings.TrimSuffix(name, upSuffix) + downSuffix
}

// ReadDir loads every up migration in dir, sorted by name. A missing
// directory has no migrations.
func ReadDir(dir string) ([]Migration, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}

	var migrations []Migration
	for _, entry := range entries {
		if entry.IsDir() || !isUpMigration(entry.Name()) {
			continue
		}

		content, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read migration %s: %w", entry.Name(), err)
		}

		migrations = append(migrations, Migration{
			Name:     entry.Name(),
			Content:  string(content),
			Checksum: ComputeChecksum(string(content)),
		})
	}

	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Name < migrations[j].Name
	})

	return migrations, nil
}

func ReadDown(dir, name string) (string, error) {
	downName := DownName(name)
	content, err := os.ReadFile(filepath.Join(dir, downName))
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("down migration not found: %s", downName)
		}
		return "", fmt.Errorf("failed to read down migration %s: %w", downName, err)
	}
	return string(content), nil
}

// Generated describes a migration pair written by Write.
type Generated struct {
	UpPath       string
	DownPath     string
	Changes      int
	Irreversible []string
}

// Write stores changes as a new timestamped migration pair in dir and
// refreshes the sum file. The down file undoes the changes in reverse.
func Write(dir string, changes []diff.Change, now time.Time) (*Generated, error) {
	if len(changes) == 0 {
		return nil, fmt.Errorf("no changes to write")
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create migrations directory: %w", err)
	}

	name := now.UTC().Format(timestampFormat) + upSuffix
	gen := &Generated{
		UpPath:   filepath.Join(dir, name),
		DownPath: filepath.Join(dir, DownName(name)),
		Changes:  len(changes),
	}

	if _, err := os.Stat(gen.UpPath); err == nil {
		return nil, fmt.Errorf("migration %s already exists", name)
	}

	var up strings.Builder
	for _, change := range changes {
		up.WriteString(change.SQL() + "\n\n")
	}

	var down strings.Builder
	for i := len(changes) - 1; i >= 0; i-- {
		change := changes[i]
		if !change.IsReversible() {
			gen.Irreversible = append(gen.Irreversible, change.ObjectName())
		}
		down.WriteString(change.DownSQL() + "\n\n")
	}

	if err := os.WriteFile(gen.UpPath, []byte(up.String()), 0644); err != nil {
		return nil, fmt.Errorf("failed to write migration: %w", err)
	}
	if err := os.WriteFile(gen.DownPath, []byte(down.String()), 0644); err != nil {
		return nil, fmt.Errorf("failed to write down migration: %w", err)
	}

	if err := UpdateSum(dir); err != nil {
		return nil, fmt.Errorf("failed to update sum file: %w", err)
	}

	return gen, nil
}
