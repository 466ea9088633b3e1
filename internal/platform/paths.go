// Package platform resolves where boardwalk keeps its local files. Boards live
// on the backend, so the only local state is the config file and logs.
package platform

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

const defaultAppName = "boardwalk"

// Paths holds the resolved on-disk locations for one app name.
type Paths struct {
	AppDir     string
	ConfigPath string
	DataDir    string
	LogDir     string
}

// Options selects the app directory name.
type Options struct {
	AppName string
	DevMode bool
}

// AppDirName returns the directory name used under the config and data bases.
// Dev mode appends "-dev" so a dev build never touches the real config.
func (o Options) AppDirName() string {
	name := strings.TrimSpace(o.AppName)
	if name == "" {
		name = defaultAppName
	}
	if o.DevMode {
		name += "-dev"
	}
	return name
}

// baseDirEnv names the env vars that override the config and data bases per OS.
var baseDirEnv = map[string]struct{ config, data string }{
	"linux":   {config: "XDG_CONFIG_HOME", data: "XDG_DATA_HOME"},
	"windows": {config: "APPDATA", data: "LOCALAPPDATA"},
}

// DefaultPaths resolves paths for the default app name.
func DefaultPaths() (Paths, error) {
	return DefaultPathsWithOptions(Options{})
}

// DefaultPathsWithOptions resolves paths for the running OS and environment.
func DefaultPathsWithOptions(opts Options) (Paths, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return Paths{}, fmt.Errorf("user config dir: %w", err)
	}
	dataDir := configDir
	if runtime.GOOS == "linux" {
		home, err := os.UserHomeDir()
		if err != nil {
			return Paths{}, fmt.Errorf("user home dir: %w", err)
		}
		dataDir = filepath.Join(home, ".local", "share")
	}
	return PathsFor(runtime.GOOS, os.Getenv, configDir, dataDir, opts.AppDirName())
}

// PathsFor resolves paths from explicit inputs. getenv may be nil.
func PathsFor(goos string, getenv func(string) string, configBase, dataBase, appDir string) (Paths, error) {
	if configBase == "" || dataBase == "" {
		return Paths{}, errors.New("empty base dirs")
	}
	appDir = strings.TrimSpace(appDir)
	if appDir == "" {
		return Paths{}, errors.New("empty app name")
	}
	if keys, ok := baseDirEnv[goos]; ok && getenv != nil {
		if v := strings.TrimSpace(getenv(keys.config)); v != "" {
			configBase = v
		}
		if v := strings.TrimSpace(getenv(keys.data)); v != "" {
			dataBase = v
		}
	}

	data := filepath.Join(dataBase, appDir)
	return Paths{
		AppDir:     appDir,
		ConfigPath: filepath.Join(configBase, appDir, "config.toml"),
		DataDir:    data,
		LogDir:     filepath.Join(data, "log"),
	}, nil
}
