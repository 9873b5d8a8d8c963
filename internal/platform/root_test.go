package platform

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFindRoot(t *testing.T) {
	// baseDir/
	//   desk/ (.studydesk)
	//     subdir/
	//       nested/
	//   table/ (notes.csv)
	//   empty/
	baseDir := t.TempDir()
	deskDir := filepath.Join(baseDir, "desk")
	subDir := filepath.Join(deskDir, "subdir")
	nestedDir := filepath.Join(subDir, "nested")
	tableDir := filepath.Join(baseDir, "table")
	emptyDir := filepath.Join(baseDir, "empty")

	for _, dir := range []string{nestedDir, tableDir, emptyDir, filepath.Join(deskDir, MarkerDir)} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(filepath.Join(tableDir, "notes.csv"), []byte("id\n"), 0644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name      string
		startPath string
		wantRoot  string
		wantErr   bool
	}{
		{name: "Start at Root", startPath: deskDir, wantRoot: deskDir},
		{name: "Start in Subdir", startPath: subDir, wantRoot: deskDir},
		{name: "Start Nested Deeply", startPath: nestedDir, wantRoot: deskDir},
		{name: "Notes Table Marker", startPath: tableDir, wantRoot: tableDir},
		{name: "No Root Found", startPath: emptyDir, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FindRoot(tt.startPath)
			if (err != nil) != tt.wantErr {
				t.Errorf("FindRoot() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if got != "" && filepath.Clean(got) != filepath.Clean(tt.wantRoot) {
				t.Errorf("FindRoot() = %v, want %v", got, tt.wantRoot)
			}
		})
	}
}

func TestResolveDataPath(t *testing.T) {
	inTemp := filepath.Join(os.TempDir(), "already-safe")

	tests := []struct {
		name      string
		path      string
		forceTemp bool
		want      string
	}{
		{name: "Real path kept", path: "/srv/notes", want: "/srv/notes"},
		{name: "Empty is cwd", path: "", want: "."},
		{name: "Temp path trusted", path: inTemp, forceTemp: true, want: inTemp},
		{name: "Re-rooted", path: "/home/me/notes", forceTemp: true, want: filepath.Join(os.TempDir(), "studydesk-dev", "notes")},
		{name: "Default sandbox", path: ".", forceTemp: true, want: filepath.Join(os.TempDir(), "studydesk-dev", "default")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResolveDataPath(tt.path, tt.forceTemp); got != tt.want {
				t.Errorf("ResolveDataPath(%q, %v) = %q, want %q", tt.path, tt.forceTemp, got, tt.want)
			}
		})
	}
}

func TestIsDevRun(t *testing.T) {
	if !IsDevRun() {
		t.Error("expected go test binary to be detected as a dev run")
	}
}
