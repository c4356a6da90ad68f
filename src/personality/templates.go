package personality

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
)

//go:embed data/*.toml
var embeddedTemplates embed.FS

// TemplateConfig is the on-disk shape of a persona template.
type TemplateConfig struct {
	Metadata MetadataConfig `toml:"metadata"`
	Traits   TraitsConfig   `toml:"traits"`
}

type MetadataConfig struct {
	Name        string `toml:"name"`
	Description string `toml:"description"`
}

// TraitsConfig leaves unset traits nil so they fall back to DefaultComponent.
type TraitsConfig struct {
	Friendliness *float64 `toml:"friendliness"`
	Humor        *float64 `toml:"humor"`
	Excitement   *float64 `toml:"excitement"`
	Empathy      *float64 `toml:"empathy"`
	Curiosity    *float64 `toml:"curiosity"`
}

// Vector converts the configured traits into a standard-length vector.
func (tc TemplateConfig) Vector() TraitVector {
	v := Uniform(DefaultComponent)
	for i, p := range []*float64{tc.Traits.Friendliness, tc.Traits.Humor, tc.Traits.Excitement, tc.Traits.Empathy, tc.Traits.Curiosity} {
		if p != nil {
			v[i] = *p
		}
	}
	return v
}

// Catalog resolves persona names to default trait vectors. Templates in
// userDir take precedence over the embedded set.
type Catalog struct {
	userDir string

	mu    sync.RWMutex
	cache map[string]*TemplateConfig
}

// NewCatalog creates a catalog. userDir may be empty.
func NewCatalog(userDir string) *Catalog {
	return &Catalog{
		userDir: userDir,
		cache:   make(map[string]*TemplateConfig),
	}
}

// Reload drops cached templates so edited user files are read again.
func (c *Catalog) Reload() {
	c.mu.Lock()
	c.cache = make(map[string]*TemplateConfig)
	c.mu.Unlock()
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Lookup returns the template for persona name.
func (c *Catalog) Lookup(name string) (*TemplateConfig, error) {
	key := normalizeName(name)
	if key == "" || strings.ContainsAny(key, `/\`) || strings.Contains(key, "..") {
		return nil, fmt.Errorf("invalid persona name %q", name)
	}

	c.mu.RLock()
	if cached, ok := c.cache[key]; ok {
		c.mu.RUnlock()
		return cached, nil
	}
	c.mu.RUnlock()

	tc, err := c.loadFromUserDir(key)
	if err != nil {
		tc, err = loadFromEmbedded(key)
		if err != nil {
			return nil, fmt.Errorf("persona '%s' not found", name)
		}
	}

	c.mu.Lock()
	c.cache[key] = tc
	c.mu.Unlock()
	return tc, nil
}

// DefaultVector returns the template vector for name, or an all-0.5 vector
// of standard length for unknown names.
func (c *Catalog) DefaultVector(name string) TraitVector {
	tc, err := c.Lookup(name)
	if err != nil {
		return Uniform(DefaultComponent)
	}
	return tc.Vector()
}

// Names lists the available persona names, user templates included.
func (c *Catalog) Names() []string {
	seen := make(map[string]struct{})

	if entries, err := embeddedTemplates.ReadDir("data"); err == nil {
		for _, entry := range entries {
			if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".toml") {
				seen[strings.TrimSuffix(entry.Name(), ".toml")] = struct{}{}
			}
		}
	}

	if c.userDir != "" {
		if entries, err := os.ReadDir(c.userDir); err == nil {
			for _, entry := range entries {
				if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".toml") {
					seen[normalizeName(strings.TrimSuffix(entry.Name(), ".toml"))] = struct{}{}
				}
			}
		}
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (c *Catalog) loadFromUserDir(name string) (*TemplateConfig, error) {
	if c.userDir == "" {
		return nil, os.ErrNotExist
	}

	data, err := os.ReadFile(filepath.Join(c.userDir, name+".toml"))
	if err != nil {
		return nil, err
	}
	return parseTemplate(data)
}

func loadFromEmbedded(name string) (*TemplateConfig, error) {
	data, err := embeddedTemplates.ReadFile("data/" + name + ".toml")
	if err != nil {
		return nil, err
	}
	return parseTemplate(data)
}

func parseTemplate(data []byte) (*TemplateConfig, error) {
	var tc TemplateConfig
	if _, err := toml.Decode(string(data), &tc); err != nil {
		return nil, fmt.Errorf("failed to parse persona template: %w", err)
	}
	return &tc, nil
}
