package models

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestJSONMapRoundTrip(t *testing.T) {
	m := JSONMap{"skipped_tasks": []string{"pvt"}, "count": 2}

	value, err := m.Value()
	if err != nil {
		t.Fatalf("Value() error: %v", err)
	}

	var got JSONMap
	if err := got.Scan(value); err != nil {
		t.Fatalf("Scan() error: %v", err)
	}
	if want := []string{"pvt"}; !reflect.DeepEqual(got.StringList("skipped_tasks"), want) {
		t.Errorf("StringList = %v, want %v", got.StringList("skipped_tasks"), want)
	}
}

func TestJSONMapScanNil(t *testing.T) {
	var m JSONMap
	if err := m.Scan(nil); err != nil {
		t.Fatalf("Scan(nil) error: %v", err)
	}
	if m == nil {
		t.Error("Scan(nil) should leave an empty map, not nil")
	}
}

func TestJSONMapMapList(t *testing.T) {
	m := JSONMap{MetaInterruptionLogs: []any{
		map[string]any{"type": "visibility_hidden"},
		"not a map",
	}}
	logs := m.MapList(MetaInterruptionLogs)
	if len(logs) != 1 || logs[0]["type"] != "visibility_hidden" {
		t.Errorf("MapList = %v", logs)
	}
}

func TestLoadTaskRegistry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.yaml")
	data := `tasks:
  - type: pvt
    label: Reaction Time
    minimum_viable_ms: 30000
    duration_ms: 60000
  - type: mood
    label: Mood Check
    minimum_viable_ms: 0
    duration_ms: 0
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	registry, err := LoadTaskRegistry(path)
	if err != nil {
		t.Fatalf("LoadTaskRegistry error: %v", err)
	}

	if got := registry.Types(); !reflect.DeepEqual(got, []string{"pvt", "mood"}) {
		t.Errorf("Types = %v", got)
	}
	if !registry.Contains("pvt") || registry.Contains("tetris") {
		t.Error("Contains misreports membership")
	}

	info, ok := registry.Get("pvt")
	if !ok || info.MinimumViableMs != 30000 {
		t.Errorf("Get(pvt) = %+v, %v", info, ok)
	}
}

func TestSessionSkippedTasksAfterScan(t *testing.T) {
	// After a jsonb round trip the skipped list arrives as []any.
	session := CognitiveSession{DeviceMeta: JSONMap{MetaSkippedTasks: []any{"sart"}}}
	if got := session.SkippedTasks(); !reflect.DeepEqual(got, []string{"sart"}) {
		t.Errorf("SkippedTasks = %v", got)
	}
}
