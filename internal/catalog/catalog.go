package catalog

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/aisohq/aiso-market/internal/domain"
	"github.com/aisohq/aiso-market/internal/pkg/logger"
)

// Permission describes one catalog entry an application version may
// declare. MandatoryIfDeclared permissions cannot be partially declined
// at install time.
type Permission struct {
	ID                  string `yaml:"id"`
	Description         string `yaml:"description"`
	MandatoryIfDeclared bool   `yaml:"mandatory_if_declared"`
}

// Catalog is the registered set of permission identifiers. It is built
// once at startup and read-only afterwards.
type Catalog struct {
	log     *logger.Logger
	entries map[string]Permission
}

func builtins() []Permission {
	return []Permission{
		{ID: "filesystem", Description: "Full access to the user filesystem"},
		{ID: "filesystem.read", Description: "Read files from the user filesystem"},
		{ID: "filesystem.write", Description: "Write files to the user filesystem"},
		{ID: "network", Description: "Outbound network access"},
		{ID: "camera", Description: "Capture from the camera"},
		{ID: "microphone", Description: "Capture from the microphone"},
		{ID: "notifications", Description: "Show desktop notifications"},
		{ID: "clipboard", Description: "Read and write the clipboard"},
		{ID: "location", Description: "Read the device location"},
		{ID: "storage", Description: "App-scoped persistent storage", MandatoryIfDeclared: true},
		{ID: "identity.read", Description: "Read the signed-in user profile", MandatoryIfDeclared: true},
	}
}

// New builds the catalog from the built-in registry plus an optional YAML
// overlay file. Overlay entries override built-ins with the same id.
func New(baseLog *logger.Logger, overlayPath string) (*Catalog, error) {
	log := baseLog.With("component", "PermissionCatalog")
	entries := make(map[string]Permission)
	for _, p := range builtins() {
		entries[p.ID] = p
	}

	if strings.TrimSpace(overlayPath) != "" {
		raw, err := os.ReadFile(overlayPath)
		if err != nil {
			return nil, fmt.Errorf("read permission catalog overlay: %w", err)
		}
		var overlay struct {
			Permissions []Permission `yaml:"permissions"`
		}
		if err := yaml.Unmarshal(raw, &overlay); err != nil {
			return nil, fmt.Errorf("parse permission catalog overlay: %w", err)
		}
		for _, p := range overlay.Permissions {
			id := strings.TrimSpace(p.ID)
			if id == "" {
				return nil, fmt.Errorf("permission catalog overlay entry with empty id")
			}
			p.ID = id
			entries[id] = p
		}
		log.Info("Loaded permission catalog overlay", "path", overlayPath, "entries", len(overlay.Permissions))
	}

	return &Catalog{log: log, entries: entries}, nil
}

// Has reports whether the identifier is registered.
func (c *Catalog) Has(id string) bool {
	_, ok := c.entries[id]
	return ok
}

// Validate checks that every entry of perms is registered and that perms
// holds no duplicates. Unknown identifiers yield invalid_permission.
func (c *Catalog) Validate(perms []string) error {
	seen := make(map[string]struct{}, len(perms))
	var unknown []string
	for _, p := range perms {
		if _, dup := seen[p]; dup {
			return domain.NewError(domain.CodeValidation, "catalog.validate",
				fmt.Sprintf("duplicate permission %q", p), nil)
		}
		seen[p] = struct{}{}
		if !c.Has(p) {
			unknown = append(unknown, p)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return domain.NewError(domain.CodeInvalidPermission, "catalog.validate",
			fmt.Sprintf("unknown permissions: %s", strings.Join(unknown, ", ")), nil)
	}
	return nil
}

// MandatorySubset returns the declared permissions that cannot be
// declined at install time.
func (c *Catalog) MandatorySubset(declared domain.PermissionSet) domain.PermissionSet {
	out := make(domain.PermissionSet, 0)
	for _, p := range declared {
		if entry, ok := c.entries[p]; ok && entry.MandatoryIfDeclared {
			out = append(out, p)
		}
	}
	return out
}

// Permissions returns all registered entries sorted by id.
func (c *Catalog) Permissions() []Permission {
	out := make([]Permission, 0, len(c.entries))
	for _, p := range c.entries {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
