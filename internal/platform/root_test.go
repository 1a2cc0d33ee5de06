package platform

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFindRoot(t *testing.T) {
	// base/
	//   workspace/ (tillage.yaml)
	//     data/
	//       nested/
	//   marked/ (.tillage)
	//   empty/
	baseDir := t.TempDir()
	workspace := filepath.Join(baseDir, "workspace")
	nested := filepath.Join(workspace, "data", "nested")
	marked := filepath.Join(baseDir, "marked")
	empty := filepath.Join(baseDir, "empty")

	for _, dir := range []string{nested, filepath.Join(marked, MarkerDir), empty} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(filepath.Join(workspace, ConfigFileName), []byte("listen: \":3000\"\n"), 0644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name      string
		startPath string
		wantRoot  string
		wantErr   bool
	}{
		{name: "Start at Root", startPath: workspace, wantRoot: workspace},
		{name: "Start Nested Deeply", startPath: nested, wantRoot: workspace},
		{name: "Marker Directory", startPath: marked, wantRoot: marked},
		{name: "No Root Found", startPath: empty, wantErr: true},
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

	if got := FindConfig(nested); got != filepath.Join(workspace, ConfigFileName) {
		t.Errorf("FindConfig() = %q", got)
	}
	if got := FindConfig(marked); got != "" {
		t.Errorf("FindConfig() without a config file = %q, want empty", got)
	}
}
