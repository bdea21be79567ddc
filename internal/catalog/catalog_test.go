package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aisohq/aiso-market/internal/domain"
	"github.com/aisohq/aiso-market/internal/pkg/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	return log
}

func TestCatalogValidate(t *testing.T) {
	c, err := New(testLogger(t), "")
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := c.Validate([]string{"network", "camera"}); err != nil {
		t.Fatalf("Validate known: %v", err)
	}
	err = c.Validate([]string{"network", "teleport"})
	if !domain.IsCode(err, domain.CodeInvalidPermission) {
		t.Fatalf("Validate unknown: want invalid_permission, got %v", err)
	}
	err = c.Validate([]string{"network", "network"})
	if !domain.IsCode(err, domain.CodeValidation) {
		t.Fatalf("Validate duplicate: want validation, got %v", err)
	}
}

func TestCatalogMandatorySubset(t *testing.T) {
	c, err := New(testLogger(t), "")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	declared := domain.NormalizePermissions([]string{"network", "storage", "identity.read"})
	mandatory := c.MandatorySubset(declared)
	if len(mandatory) != 2 || !mandatory.Contains("storage") || !mandatory.Contains("identity.read") {
		t.Fatalf("MandatorySubset: got %v", mandatory)
	}
}

func TestCatalogOverlay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.yaml")
	overlay := []byte(`permissions:
  - id: bluetooth
    description: Pair with bluetooth devices
  - id: network
    description: Outbound network access
    mandatory_if_declared: true
`)
	if err := os.WriteFile(path, overlay, 0o600); err != nil {
		t.Fatalf("write overlay: %v", err)
	}

	c, err := New(testLogger(t), path)
	if err != nil {
		t.Fatalf("New with overlay: %v", err)
	}
	if !c.Has("bluetooth") {
		t.Fatalf("overlay entry not registered")
	}
	mandatory := c.MandatorySubset(domain.NormalizePermissions([]string{"network"}))
	if !mandatory.Contains("network") {
		t.Fatalf("overlay should override builtin mandatory flag")
	}
}
