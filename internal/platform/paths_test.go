package platform

import (
	"path/filepath"
	"testing"
)

func envOf(vars map[string]string) func(string) string {
	return func(key string) string { return vars[key] }
}

func TestPathsForLinuxWithXDG(t *testing.T) {
	p, err := PathsFor("linux", envOf(map[string]string{
		"XDG_CONFIG_HOME": "/xdg/config",
		"XDG_DATA_HOME":   "/xdg/data",
	}), "/fallback/config", "/fallback/data", "boardwalk")
	if err != nil {
		t.Fatalf("PathsFor() error = %v", err)
	}
	if want := filepath.Join("/xdg/config", "boardwalk", "config.toml"); p.ConfigPath != want {
		t.Fatalf("unexpected config path %q", p.ConfigPath)
	}
	if want := filepath.Join("/xdg/data", "boardwalk", "log"); p.LogDir != want {
		t.Fatalf("unexpected log dir %q", p.LogDir)
	}
}

func TestPathsForWindowsUsesAppData(t *testing.T) {
	p, err := PathsFor("windows", envOf(map[string]string{
		"APPDATA":      `C:\Users\me\AppData\Roaming`,
		"LOCALAPPDATA": `C:\Users\me\AppData\Local`,
	}), `C:\fallback\config`, `C:\fallback\data`, "boardwalk")
	if err != nil {
		t.Fatalf("PathsFor() error = %v", err)
	}
	if want := filepath.Join(`C:\Users\me\AppData\Roaming`, "boardwalk", "config.toml"); p.ConfigPath != want {
		t.Fatalf("unexpected config path %q", p.ConfigPath)
	}
	if want := filepath.Join(`C:\Users\me\AppData\Local`, "boardwalk"); p.DataDir != want {
		t.Fatalf("unexpected data dir %q", p.DataDir)
	}
}

func TestPathsForRejectsEmptyInputs(t *testing.T) {
	if _, err := PathsFor("darwin", nil, "", "/tmp/data", "boardwalk"); err == nil {
		t.Fatal("expected error for empty dirs")
	}
	if _, err := PathsFor("linux", nil, "/cfg", "/data", "  "); err == nil {
		t.Fatal("expected error for empty app name")
	}
}

func TestPathsForDarwinIgnoresXDG(t *testing.T) {
	base := "/Users/me/Library/Application Support"
	p, err := PathsFor("darwin", envOf(map[string]string{"XDG_CONFIG_HOME": "/ignored"}), base, base, "boardwalk")
	if err != nil {
		t.Fatalf("PathsFor() error = %v", err)
	}
	if want := filepath.Join(base, "boardwalk", "config.toml"); p.ConfigPath != want {
		t.Fatalf("unexpected config path %q", p.ConfigPath)
	}
}

func TestOptionsAppDirName(t *testing.T) {
	cases := []struct {
		opts Options
		want string
	}{
		{Options{}, "boardwalk"},
		{Options{AppName: "  walker "}, "walker"},
		{Options{DevMode: true}, "boardwalk-dev"},
		{Options{AppName: "walker", DevMode: true}, "walker-dev"},
	}
	for _, tc := range cases {
		if got := tc.opts.AppDirName(); got != tc.want {
			t.Fatalf("AppDirName(%#v) = %q, want %q", tc.opts, got, tc.want)
		}
	}
}

func TestDefaultPathsWithOptionsDevMode(t *testing.T) {
	p, err := DefaultPathsWithOptions(Options{AppName: "boardwalk", DevMode: true})
	if err != nil {
		t.Fatalf("DefaultPathsWithOptions() error = %v", err)
	}
	if p.AppDir != "boardwalk-dev" {
		t.Fatalf("unexpected app dir %q", p.AppDir)
	}
	if filepath.Base(filepath.Dir(p.ConfigPath)) != "boardwalk-dev" {
		t.Fatalf("expected dev config dir suffix, got %q", p.ConfigPath)
	}
	if filepath.Base(filepath.Dir(p.LogDir)) != "boardwalk-dev" {
		t.Fatalf("expected dev log dir, got %q", p.LogDir)
	}
}
