package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/adrg/xdg"
)

func TestParseRoute(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Route
		wantErr bool
	}{
		{
			name:  "owner and repo",
			input: "octo/demo",
			want:  Route{Owner: "octo", Repo: "demo"},
		},
		{
			name:  "with file path",
			input: "octo/demo/docs/intro.md",
			want:  Route{Owner: "octo", Repo: "demo", InitialPath: "docs/intro.md"},
		},
		{
			name:  "leading and trailing slashes trimmed",
			input: "/octo/demo/docs/",
			want:  Route{Owner: "octo", Repo: "demo", InitialPath: "docs"},
		},
		{
			name:    "empty",
			input:   "",
			wantErr: true,
		},
		{
			name:    "only slashes",
			input:   "///",
			wantErr: true,
		},
		{
			name:    "missing repo",
			input:   "octo",
			wantErr: true,
		},
		{
			name:    "empty owner",
			input:   "/demo",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRoute(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseRoute(%q) expected error, got %+v", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseRoute(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseRoute(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}

func TestRouteString(t *testing.T) {
	r := Route{Owner: "octo", Repo: "demo"}
	if got := r.String(); got != "octo/demo" {
		t.Errorf("String() = %q, want %q", got, "octo/demo")
	}

	r.InitialPath = "docs/intro.md"
	if got := r.String(); got != "octo/demo/docs/intro.md" {
		t.Errorf("String() = %q, want %q", got, "octo/demo/docs/intro.md")
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	cfg := Config{
		DefaultRoute: "octo/demo",
		Branch:       "develop",
		GlamourStyle: "dark",
		Version:      "1.0",
	}
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo failed: %v", err)
	}

	if cfg.InitTime == 0 {
		t.Error("SaveTo should set InitTime on first save")
	}

	loaded, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom failed: %v", err)
	}

	if loaded.DefaultRoute != cfg.DefaultRoute {
		t.Errorf("DefaultRoute = %q, want %q", loaded.DefaultRoute, cfg.DefaultRoute)
	}
	if loaded.Branch != cfg.Branch {
		t.Errorf("Branch = %q, want %q", loaded.Branch, cfg.Branch)
	}
	if loaded.GlamourStyle != cfg.GlamourStyle {
		t.Errorf("GlamourStyle = %q, want %q", loaded.GlamourStyle, cfg.GlamourStyle)
	}
	if loaded.InitTime != cfg.InitTime {
		t.Errorf("InitTime = %d, want %d", loaded.InitTime, cfg.InitTime)
	}
}

func TestSaveToUsesRestrictivePermissions(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "config.yaml")

	cfg := DefaultConfig()
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo failed: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("config file permissions = %o, want 600", perm)
	}
}

func TestLoadFromAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	if err := os.WriteFile(path, []byte("default_route: octo/demo\n"), 0600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	loaded, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom failed: %v", err)
	}
	if loaded.GlamourStyle != "auto" {
		t.Errorf("GlamourStyle = %q, want default %q", loaded.GlamourStyle, "auto")
	}
	if loaded.Version != "1.0" {
		t.Errorf("Version = %q, want default %q", loaded.Version, "1.0")
	}
}

func TestLoadFromRejectsMalformedYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	if err := os.WriteFile(path, []byte("default_route: [unclosed\n"), 0600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	_, err := LoadFrom(path)
	if err == nil {
		t.Fatal("expected parse error for malformed YAML")
	}
	if !strings.Contains(err.Error(), "parse") {
		t.Errorf("error should mention parsing, got: %v", err)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.GlamourStyle != "auto" {
		t.Errorf("GlamourStyle = %q, want %q", cfg.GlamourStyle, "auto")
	}
	if cfg.APIBaseURL != "" {
		t.Errorf("APIBaseURL should default to empty, got %q", cfg.APIBaseURL)
	}
}

func TestSetDefaultRoute(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	xdg.Reload()

	cfg := DefaultConfig()
	if err := cfg.SetDefaultRoute("/octo/demo/"); err != nil {
		t.Fatalf("SetDefaultRoute failed: %v", err)
	}
	if cfg.DefaultRoute != "octo/demo" {
		t.Errorf("DefaultRoute = %q, want normalized octo/demo", cfg.DefaultRoute)
	}

	// The route must be persisted, not just set in memory.
	loaded, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.DefaultRoute != "octo/demo" {
		t.Errorf("persisted DefaultRoute = %q, want octo/demo", loaded.DefaultRoute)
	}
}

func TestSetDefaultRouteRejectsInvalid(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	xdg.Reload()

	cfg := DefaultConfig()
	if err := cfg.SetDefaultRoute("just-an-owner"); err == nil {
		t.Fatal("expected an error for a route without a repo")
	}
	if _, exists := FindConfigFile(); exists {
		t.Error("an invalid route must not be written to disk")
	}
}
