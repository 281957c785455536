package target

import (
	"fmt"
	"strings"
	"time"

	"github.com/muurk/bl1prov/internal/jlink"
)

// Overrides carries command-line values. Zero values are unset.
type Overrides struct {
	Target    string
	JLinkPath string
	Device    string
	Speed     int
	Timeout   time.Duration
}

// Resolve picks the target named by the override, then the profile, then
// DefaultTarget.
func Resolve(catalog *Catalog, profile *Profile, o Overrides) (*Target, error) {
	name := DefaultTarget
	if profile != nil && profile.DefaultTarget != "" {
		name = profile.DefaultTarget
	}
	if o.Target != "" {
		name = o.Target
	}

	t, ok := catalog.Get(name)
	if !ok {
		return nil, fmt.Errorf("unknown target %q (known: %s)", name, strings.Join(catalog.Names(), ", "))
	}
	return t, nil
}

// JLinkConfig builds the commander configuration for t. Flags override the
// profile, which overrides the catalog and jlink.DefaultConfig.
func (t *Target) JLinkConfig(profile *Profile, o Overrides) jlink.Config {
	config := jlink.DefaultConfig()

	if t.JLink.Device != "" {
		config.Device = t.JLink.Device
	}
	if t.JLink.Interface != "" {
		config.Interface = t.JLink.Interface
	}
	if t.JLink.Speed > 0 {
		config.Speed = t.JLink.Speed
	}

	if profile != nil {
		if profile.JLinkPath != "" {
			config.Executable = profile.JLinkPath
		}
		if profile.Timeout > 0 {
			config.Timeout = profile.Timeout
		}
	}

	if o.JLinkPath != "" {
		config.Executable = o.JLinkPath
	}
	if o.Device != "" {
		config.Device = o.Device
	}
	if o.Speed > 0 {
		config.Speed = o.Speed
	}
	if o.Timeout > 0 {
		config.Timeout = o.Timeout
	}

	return config
}
