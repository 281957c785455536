package target

import (
	_ "embed"
	"fmt"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed targets.yaml
var targetsYAML []byte

// DefaultTarget is used when neither a flag nor the profile names one.
const DefaultTarget = "max32657"

// Target describes one secure-boot capable device.
type Target struct {
	// Name is the catalog key (e.g., "max32657")
	Name string `yaml:"name"`

	// Description is the human-readable device name
	Description string `yaml:"description"`

	// JLink holds the commander connection settings
	JLink JLinkSettings `yaml:"jlink"`

	// Provisioner describes the BL1 provisioning image
	Provisioner ProvisionerSettings `yaml:"provisioner"`

	// Signing describes the application signature format
	Signing SigningSettings `yaml:"signing"`
}

// JLinkSettings holds J-Link Commander connection settings.
type JLinkSettings struct {
	Device    string `yaml:"device"`
	Interface string `yaml:"interface"`
	Speed     int    `yaml:"speed"`
}

// ProvisionerSettings describes where the public key goes.
type ProvisionerSettings struct {
	// ELF is the default provisioner file name
	ELF string `yaml:"elf"`

	// Section is the ELF section receiving the public key
	Section string `yaml:"section"`

	// KeySize is the required section size in bytes
	KeySize int `yaml:"key_size"`
}

// SigningSettings describes the appended image signature.
type SigningSettings struct {
	Algorithm     string `yaml:"algorithm"`
	SignatureSize int    `yaml:"signature_size"`
}

// Catalog holds all known targets.
type Catalog struct {
	Targets []*Target

	index map[string]*Target
	mu    sync.RWMutex
}

type catalogContainer struct {
	Targets []*Target `yaml:"targets"`
}

var (
	globalCatalog     *Catalog
	globalCatalogOnce sync.Once
	globalCatalogErr  error
)

// LoadCatalog loads the embedded target catalog. The catalog is parsed
// once; later calls return the same instance.
func LoadCatalog() (*Catalog, error) {
	globalCatalogOnce.Do(func() {
		globalCatalog, globalCatalogErr = parseCatalog(targetsYAML)
	})
	return globalCatalog, globalCatalogErr
}

func parseCatalog(data []byte) (*Catalog, error) {
	var container catalogContainer
	if err := yaml.Unmarshal(data, &container); err != nil {
		return nil, fmt.Errorf("failed to parse targets.yaml: %w", err)
	}

	catalog := &Catalog{
		Targets: container.Targets,
		index:   make(map[string]*Target),
	}

	for _, t := range catalog.Targets {
		if t.Name == "" {
			return nil, fmt.Errorf("target without a name in catalog")
		}
		if _, dup := catalog.index[t.Name]; dup {
			return nil, fmt.Errorf("duplicate target %q in catalog", t.Name)
		}
		catalog.index[t.Name] = t
	}

	return catalog, nil
}

// Get retrieves a target by name.
func (c *Catalog) Get(name string) (*Target, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	t, ok := c.index[name]
	return t, ok
}

// Names returns the sorted target names.
func (c *Catalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.index))
	for name := range c.index {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CheckPublicKey reports whether pub fits the target's key section. A zero
// KeySize accepts any length.
func (t *Target) CheckPublicKey(pub []byte) error {
	if t.Provisioner.KeySize != 0 && len(pub) != t.Provisioner.KeySize {
		return fmt.Errorf("target %s expects a %d-byte public key, got %d bytes",
			t.Name, t.Provisioner.KeySize, len(pub))
	}
	return nil
}

// CheckSigning reports whether the target boots images signed with
// algorithm and a signature of size bytes. Unset catalog fields accept
// anything.
func (t *Target) CheckSigning(algorithm string, size int) error {
	if t.Signing.Algorithm != "" && t.Signing.Algorithm != algorithm {
		return fmt.Errorf("target %s expects %s signatures, this tool produces %s",
			t.Name, t.Signing.Algorithm, algorithm)
	}
	if t.Signing.SignatureSize != 0 && t.Signing.SignatureSize != size {
		return fmt.Errorf("target %s expects a %d-byte signature, this tool produces %d bytes",
			t.Name, t.Signing.SignatureSize, size)
	}
	return nil
}
