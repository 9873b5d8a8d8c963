package fs

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWriteFileAtomic(t *testing.T) {
	t.Run("Creates New File", func(t *testing.T) {
		tmpDir := t.TempDir()
		filename := filepath.Join(tmpDir, NotesFile)
		content := []byte("id,datetime,title,text,tags,xp\n")

		if err := writeFileAtomic(filename, content, 0644); err != nil {
			t.Fatalf("writeFileAtomic failed: %v", err)
		}

		got, err := os.ReadFile(filename)
		if err != nil {
			t.Fatalf("Failed to read file: %v", err)
		}
		if string(got) != string(content) {
			t.Errorf("Expected header row, got '%s'", string(got))
		}
	})

	t.Run("Overwrites Existing File Without Leftovers", func(t *testing.T) {
		tmpDir := t.TempDir()
		filename := filepath.Join(tmpDir, StatsFile)

		if err := os.WriteFile(filename, []byte(`{"total_xp":1}`), 0644); err != nil {
			t.Fatalf("Setup failed: %v", err)
		}

		newContent := []byte(`{"total_xp":2}`)
		if err := writeFileAtomic(filename, newContent, 0644); err != nil {
			t.Fatalf("writeFileAtomic failed: %v", err)
		}

		got, err := os.ReadFile(filename)
		if err != nil {
			t.Fatalf("Failed to read file: %v", err)
		}
		if string(got) != string(newContent) {
			t.Errorf("Expected overwritten content, got '%s'", string(got))
		}

		entries, _ := os.ReadDir(tmpDir)
		for _, e := range entries {
			if strings.HasPrefix(e.Name(), TempFilePrefix) {
				t.Errorf("temp file left behind: %s", e.Name())
			}
		}
	})

	t.Run("Fails if Directory Missing", func(t *testing.T) {
		tmpDir := t.TempDir()
		filename := filepath.Join(tmpDir, "missing_folder", "test.txt")

		if err := writeFileAtomic(filename, []byte("fail"), 0644); err == nil {
			t.Error("Expected error when directory is missing, got nil")
		}
	})
}

func TestCopyFileAtomic(t *testing.T) {
	tmpDir := t.TempDir()
	src := filepath.Join(tmpDir, NotesFile)
	dst := src + BackupSuffix

	if err := os.WriteFile(src, []byte("a,b\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := copyFileAtomic(src, dst); err != nil {
		t.Fatalf("copyFileAtomic failed: %v", err)
	}
	got, err := os.ReadFile(dst)
	if err != nil || string(got) != "a,b\n" {
		t.Errorf("unexpected backup content %q (err %v)", got, err)
	}

	if err := copyFileAtomic(filepath.Join(tmpDir, "nope.csv"), dst); err == nil {
		t.Error("expected error for missing source")
	}
}
