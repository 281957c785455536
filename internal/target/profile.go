package target

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	appName     = "bl1prov"
	profileFile = "config.yaml"

	// ProfileVersion is the only supported profile format version.
	ProfileVersion = 1
)

// fileMutex serialises profile writes within the process.
var fileMutex sync.Mutex

// Profile is the per-user configuration file. Every field is optional;
// empty values fall through to the target catalog.
type Profile struct {
	Version int `yaml:"version"`

	// JLinkPath overrides the J-Link Commander executable
	JLinkPath string `yaml:"jlink_path,omitempty"`

	// DefaultTarget names the catalog entry used without --target
	DefaultTarget string `yaml:"default_target,omitempty"`

	// Timeout limits each J-Link Commander run
	Timeout time.Duration `yaml:"timeout,omitempty"`
}

// NewProfile returns an empty profile.
func NewProfile() *Profile {
	return &Profile{Version: ProfileVersion}
}

// GetConfigDir returns the OS-appropriate configuration directory:
//   - Linux: $XDG_CONFIG_HOME/bl1prov or $HOME/.config/bl1prov
//   - macOS: $HOME/.config/bl1prov
//   - Windows: %LOCALAPPDATA%\bl1prov
func GetConfigDir() (string, error) {
	switch runtime.GOOS {
	case "windows":
		localAppData := os.Getenv("LOCALAPPDATA")
		if localAppData != "" {
			return filepath.Join(localAppData, appName), nil
		}
		userProfile := os.Getenv("USERPROFILE")
		if userProfile == "" {
			return "", fmt.Errorf("cannot determine user profile directory (LOCALAPPDATA and USERPROFILE not set)")
		}
		return filepath.Join(userProfile, "AppData", "Local", appName), nil

	case "darwin":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine home directory: %w", err)
		}
		return filepath.Join(homeDir, ".config", appName), nil

	default:
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, appName), nil
		}
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine home directory: %w", err)
		}
		return filepath.Join(homeDir, ".config", appName), nil
	}
}

// GetProfilePath returns the default profile file path.
func GetProfilePath() (string, error) {
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, profileFile), nil
}

// LoadProfile reads the profile at path, or at GetProfilePath when path is
// empty. A missing file yields an empty profile.
func LoadProfile(path string) (*Profile, error) {
	if path == "" {
		var err error
		if path, err = GetProfilePath(); err != nil {
			return nil, fmt.Errorf("failed to get config path: %w", err)
		}
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return NewProfile(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var profile Profile
	if err := yaml.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if profile.Version != ProfileVersion {
		return nil, fmt.Errorf("unsupported config version: %d (expected %d)", profile.Version, ProfileVersion)
	}
	if profile.Timeout < 0 {
		return nil, fmt.Errorf("invalid timeout %s in %s", profile.Timeout, path)
	}

	return &profile, nil
}

// Save writes the profile to path, or to GetProfilePath when path is
// empty. The file is written to a temporary name and renamed into place.
func (p *Profile) Save(path string) error {
	fileMutex.Lock()
	defer fileMutex.Unlock()

	if path == "" {
		var err error
		if path, err = GetProfilePath(); err != nil {
			return fmt.Errorf("failed to get config path: %w", err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(`# bl1prov configuration file
# Command-line flags take precedence over these values.
#
# Location: ` + path + `

`)
	data = append(header, data...)

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write temporary config file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to save config file: %w", err)
	}

	return nil
}
