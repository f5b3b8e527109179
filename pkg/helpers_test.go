package dupfilehash

import (
	"os"
	"path/filepath"
	"testing"
)

// writeTestFile creates root/rel with content, making parent directories as needed
func writeTestFile(t *testing.T, root, rel, content string) string {
	t.Helper()
	path := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("Failed to create directory for %s: %v", rel, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", rel, err)
	}
	return path
}

// createDeterministicFile creates a file with deterministic content of the specified size
func createDeterministicFile(path string, size int64) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	pattern := []byte("0123456789abcdef")
	written := int64(0)

	for written < size {
		chunk := pattern
		if remaining := size - written; remaining < int64(len(chunk)) {
			chunk = chunk[:remaining]
		}

		n, err := file.Write(chunk)
		if err != nil {
			return err
		}
		written += int64(n)
	}

	return nil
}

// testSettings returns small, deterministic engine settings
func testSettings(t *testing.T) Settings {
	t.Helper()
	algorithm, err := GetHashAlgorithm("sha256")
	if err != nil {
		t.Fatalf("Failed to get sha256: %v", err)
	}
	return Settings{
		CeilingBytes: DefaultCeilingBytes,
		Workers:      4,
		BufferSize:   DefaultBufferSize,
		Algorithm:    algorithm,
	}
}

// relMembers strips root from every member path of every set
func relMembers(t *testing.T, root string, result *ScanResult) [][]string {
	t.Helper()
	var out [][]string
	for _, set := range result.Sets {
		var rels []string
		for _, member := range set.Members {
			rel, err := filepath.Rel(root, member)
			if err != nil {
				t.Fatalf("Member %s is not under %s: %v", member, root, err)
			}
			rels = append(rels, filepath.ToSlash(rel))
		}
		out = append(out, rels)
	}
	return out
}
