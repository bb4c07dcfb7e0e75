package migrate

import (
	"bufio"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const SumFile = "paramsync.sum"

type SumEntry struct {
	Name string
	Hash string
}

// GenerateSum hashes every .sql file in dir, up and down alike.
func GenerateSum(dir string) ([]SumEntry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), upSuffix) {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	sums := make([]SumEntry, 0, len(names))
	for _, name := range names {
		content, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", name, err)
		}
		sums = append(sums, SumEntry{Name: name, Hash: hashContent(content)})
	}

	return sums, nil
}

func totalHash(entries []SumEntry) string {
	var all []byte
	for _, e := range entries {
		all = append(all, e.Hash...)
	}
	return hashContent(all)
}

func WriteSum(dir string, entries []SumEntry) error {
	if len(entries) == 0 {
		return nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "h1:%s\n", totalHash(entries))
	for _, e := range entries {
		fmt.Fprintf(&b, "%s h1:%s\n", e.Name, e.Hash)
	}

	if err := os.WriteFile(filepath.Join(dir, SumFile), []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("failed to write sum file: %w", err)
	}
	return nil
}

// ReadSum returns the stored total hash and per-file entries. A missing
// sum file yields empty results.
func ReadSum(dir string) (string, []SumEntry, error) {
	f, err := os.Open(filepath.Join(dir, SumFile))
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil, nil
		}
		return "", nil, fmt.Errorf("failed to open sum file: %w", err)
	}
	defer f.Close()

	var total string
	var entries []SumEntry

	scanner := bufio.NewScanner(f)
	lineNum := 0
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		lineNum++

		if lineNum == 1 {
			if !strings.HasPrefix(line, "h1:") {
				return "", nil, fmt.Errorf("invalid sum file: first line must be total hash")
			}
			total = strings.TrimPrefix(line, "h1:")
			continue
		}

		name, hash, ok := strings.Cut(line, " ")
		if !ok || !strings.HasPrefix(hash, "h1:") {
			return "", nil, fmt.Errorf("invalid sum file line %d: %s", lineNum, line)
		}
		entries = append(entries, SumEntry{Name: name, Hash: strings.TrimPrefix(hash, "h1:")})
	}

	if err := scanner.Err(); err != nil {
		return "", nil, fmt.Errorf("failed to read sum file: %w", err)
	}

	return total, entries, nil
}

// ValidateSum fails when a file recorded in the sum file changed on disk
// or the sum file itself was edited. Files not yet recorded are allowed.
func ValidateSum(dir string) error {
	stored, storedEntries, err := ReadSum(dir)
	if err != nil {
		return err
	}
	if stored == "" && len(storedEntries) == 0 {
		return nil
	}

	if stored != totalHash(storedEntries) {
		return fmt.Errorf("sum file has been tampered with (total hash mismatch)")
	}

	current, err := GenerateSum(dir)
	if err != nil {
		return err
	}

	currentMap := make(map[string]string, len(current))
	for _, e := range current {
		currentMap[e.Name] = e.Hash
	}

	for _, e := range storedEntries {
		hash, exists := currentMap[e.Name]
		if !exists {
			return fmt.Errorf("migration %s is recorded in %s but missing", e.Name, SumFile)
		}
		if hash != e.Hash {
			return fmt.Errorf("migration %s has been modified (hash mismatch)", e.Name)
		}
	}

	return nil
}

func UpdateSum(dir string) error {
	entries, err := GenerateSum(dir)
	if err != nil {
		return err
	}
	return WriteSum(dir, entries)
}

func hashContent(content []byte) string {
	h := sha256.Sum256(content)
	return base64.StdEncoding.EncodeToString(h[:])
}
