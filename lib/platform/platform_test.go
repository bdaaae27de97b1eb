package platform

import (
	"os"
	"path/filepath"
	"testing"
)

// TestStaticProvider tests that the static provider returns its fixed values
func TestStaticProvider(t *testing.T) {
	paths := [3]string{"/tmp/a", "/tmp/b", "/tmp/c"}
	p := NewStaticProvider(paths, "alice", "machine-1")

	got, err := p.BasePaths()
	if err != nil {
		t.Fatalf("BasePaths failed: %v", err)
	}
	if got != paths {
		t.Errorf("BasePaths = %v, want %v", got, paths)
	}

	name, err := p.UserName()
	if err != nil || name != "alice" {
		t.Errorf("UserName = (%q, %v), want (alice, nil)", name, err)
	}

	id, err := p.MachineID()
	if err != nil || id != "machine-1" {
		t.Errorf("MachineID = (%q, %v), want (machine-1, nil)", id, err)
	}
}

// TestStaticProviderEmptyValues tests that missing capabilities surface as
// errors
func TestStaticProviderEmptyValues(t *testing.T) {
	p := NewStaticProvider([3]string{"/tmp/a", "", "/tmp/c"}, "", "")

	if _, err := p.BasePaths(); err == nil {
		t.Error("BasePaths with an empty entry should fail")
	}
	if _, err := p.UserName(); err == nil {
		t.Error("UserName with empty name should fail")
	}
	if _, err := p.MachineID(); err == nil {
		t.Error("MachineID with empty id should fail")
	}
}

// TestOSProviderBasePaths tests that the OS provider yields three distinct,
// existing directories
func TestOSProviderBasePaths(t *testing.T) {
	p := NewOSProvider()

	paths, err := p.BasePaths()
	if err != nil {
		t.Skipf("base paths unavailable in this environment: %v", err)
	}

	seen := map[string]bool{}
	for _, path := range paths {
		if path == "" {
			t.Fatal("provider returned an empty base path")
		}
		if !filepath.IsAbs(path) {
			t.Errorf("base path %q is not absolute", path)
		}
		if seen[path] {
			t.Errorf("base path %q returned twice", path)
		}
		seen[path] = true

		info, err := os.Stat(path)
		if err != nil {
			t.Errorf("base path %q was not created: %v", path, err)
			continue
		}
		if !info.IsDir() {
			t.Errorf("base path %q is not a directory", path)
		}
	}
}

// TestOSProviderIdentity tests that user name and machine id are non-empty
// and stable across calls
func TestOSProviderIdentity(t *testing.T) {
	p := NewOSProvider()

	name, err := p.UserName()
	if err != nil {
		t.Skipf("user name unavailable in this environment: %v", err)
	}
	if name == "" {
		t.Fatal("UserName returned an empty name without error")
	}

	id, err := p.MachineID()
	if err != nil {
		t.Skipf("machine id unavailable in this environment: %v", err)
	}
	if id == "" {
		t.Fatal("MachineID returned an empty id without error")
	}

	again, err := p.MachineID()
	if err != nil || again != id {
		t.Errorf("MachineID not stable: first %q, second (%q, %v)", id, again, err)
	}
}
