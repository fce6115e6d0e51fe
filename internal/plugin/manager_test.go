package plugin

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeManifest(t *testing.T, root string, m Manifest) string {
	t.Helper()

	dir := filepath.Join(root, m.Name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("failed to create plugin dir: %v", err)
	}

	data, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("failed to marshal manifest: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "plugin.json"), data, 0644); err != nil {
		t.Fatalf("failed to write manifest: %v", err)
	}
	return dir
}

func TestManager_Discover(t *testing.T) {
	tmpDir := t.TempDir()
	pluginDir := writeManifest(t, tmpDir, Manifest{
		Name:        "announce",
		Version:     "1.0.0",
		Description: "Speaks the rep count",
		Executable:  "announce",
		Events:      []Event{EventRep, EventSessionEnd},
	})

	manager := NewManager(tmpDir)
	if err := manager.Discover(); err != nil {
		t.Fatalf("Discover() failed: %v", err)
	}

	plugins := manager.List()
	if len(plugins) != 1 {
		t.Fatalf("expected 1 plugin, got %d", len(plugins))
	}

	plugin := plugins[0]
	if plugin.Manifest.Name != "announce" {
		t.Errorf("expected plugin name 'announce', got %q", plugin.Manifest.Name)
	}
	if plugin.Manifest.Version != "1.0.0" {
		t.Errorf("expected version '1.0.0', got %q", plugin.Manifest.Version)
	}
	if len(plugin.Manifest.Events) != 2 {
		t.Errorf("expected 2 events, got %d", len(plugin.Manifest.Events))
	}
	if plugin.Path != pluginDir {
		t.Errorf("expected path %q, got %q", pluginDir, plugin.Path)
	}
	if want := filepath.Join(pluginDir, "announce"); plugin.Executable != want {
		t.Errorf("expected executable %q, got %q", want, plugin.Executable)
	}
}

func TestManager_Discover_Rescan(t *testing.T) {
	tmpDir := t.TempDir()
	dir := writeManifest(t, tmpDir, Manifest{Name: "first", Executable: "run"})

	manager := NewManager(tmpDir)
	if err := manager.Discover(); err != nil {
		t.Fatalf("Discover() failed: %v", err)
	}

	os.RemoveAll(dir)
	writeManifest(t, tmpDir, Manifest{Name: "second", Executable: "run"})

	if err := manager.Discover(); err != nil {
		t.Fatalf("Discover() failed: %v", err)
	}
	if _, err := manager.Get("first"); !errors.Is(err, ErrPluginNotFound) {
		t.Errorf("removed plugin should be forgotten, got %v", err)
	}
	if _, err := manager.Get("second"); err != nil {
		t.Errorf("Get(second) error = %v", err)
	}
}

func TestManager_Subscribers(t *testing.T) {
	tmpDir := t.TempDir()
	writeManifest(t, tmpDir, Manifest{Name: "zeta", Executable: "run", Events: []Event{EventRep}})
	writeManifest(t, tmpDir, Manifest{Name: "alpha", Executable: "run", Events: []Event{EventRep, EventSessionEnd}})
	writeManifest(t, tmpDir, Manifest{Name: "mid", Executable: "run", Events: []Event{EventSessionStart}})

	manager := NewManager(tmpDir)
	if err := manager.Discover(); err != nil {
		t.Fatalf("Discover() failed: %v", err)
	}

	tests := []struct {
		event Event
		want  []string
	}{
		{event: EventRep, want: []string{"alpha", "zeta"}},
		{event: EventSessionEnd, want: []string{"alpha"}},
		{event: EventSessionStart, want: []string{"mid"}},
		{event: "unknown", want: nil},
	}

	for _, tt := range tests {
		t.Run(string(tt.event), func(t *testing.T) {
			subs := manager.Subscribers(tt.event)
			if len(subs) != len(tt.want) {
				t.Fatalf("Subscribers(%s) returned %d plugins, want %d", tt.event, len(subs), len(tt.want))
			}
			for i, p := range subs {
				if p.Manifest.Name != tt.want[i] {
					t.Errorf("subscriber %d = %q, want %q", i, p.Manifest.Name, tt.want[i])
				}
			}
		})
	}

	all := manager.List()
	if len(all) != 3 || all[0].Manifest.Name != "alpha" || all[2].Manifest.Name != "zeta" {
		t.Errorf("List() should be sorted by name")
	}
}

func TestManager_Discover_EmptyDir(t *testing.T) {
	manager := NewManager(t.TempDir())
	if err := manager.Discover(); err != nil {
		t.Fatalf("Discover() failed: %v", err)
	}

	if plugins := manager.List(); len(plugins) != 0 {
		t.Errorf("expected 0 plugins, got %d", len(plugins))
	}
}

func TestManager_Get_NotFound(t *testing.T) {
	manager := NewManager(t.TempDir())
	if err := manager.Discover(); err != nil {
		t.Fatalf("Discover() failed: %v", err)
	}

	if _, err := manager.Get("nonexistent"); !errors.Is(err, ErrPluginNotFound) {
		t.Errorf("expected ErrPluginNotFound, got %v", err)
	}
}

func TestManager_PluginDir(t *testing.T) {
	manager := NewManager("/some/plugin/dir")
	if manager.PluginDir() != "/some/plugin/dir" {
		t.Errorf("expected plugin dir '/some/plugin/dir', got %q", manager.PluginDir())
	}
}

func TestManager_Discover_InvalidManifests(t *testing.T) {
	tmpDir := t.TempDir()

	badJSON := filepath.Join(tmpDir, "bad-json")
	if err := os.MkdirAll(badJSON, 0755); err != nil {
		t.Fatalf("failed to create plugin dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(badJSON, "plugin.json"), []byte("{not json"), 0644); err != nil {
		t.Fatalf("failed to write manifest: %v", err)
	}

	writeManifest(t, tmpDir, Manifest{Name: "no-exec"})

	if err := os.MkdirAll(filepath.Join(tmpDir, "no-manifest"), 0755); err != nil {
		t.Fatalf("failed to create dir: %v", err)
	}

	writeManifest(t, tmpDir, Manifest{Name: "good", Executable: "run", Events: []Event{EventRep}})

	manager := NewManager(tmpDir)
	if err := manager.Discover(); err != nil {
		t.Fatalf("Discover() should not fail on bad manifests: %v", err)
	}

	plugins := manager.List()
	if len(plugins) != 1 || plugins[0].Manifest.Name != "good" {
		t.Errorf("expected only the valid plugin, got %d plugins", len(plugins))
	}
}

func TestManager_Discover_NonExistentDir(t *testing.T) {
	manager := NewManager(filepath.Join(t.TempDir(), "missing"))
	if err := manager.Discover(); err != nil {
		t.Errorf("Discover() on a missing directory should not fail: %v", err)
	}
}

func TestManifest_Subscribes(t *testing.T) {
	m := Manifest{Events: []Event{EventRep}}
	if !m.Subscribes(EventRep) {
		t.Error("expected subscription to rep")
	}
	if m.Subscribes(EventSessionEnd) {
		t.Error("unexpected subscription to session_end")
	}
}
