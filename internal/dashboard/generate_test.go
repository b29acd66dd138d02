package dashboard

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"fieldops-sim/internal/config"
)

func TestRenderMissingEnv(t *testing.T) {
	t.Setenv("GREPTIMEDB_DATASOURCE_UID", "")
	if err := Render(t.TempDir(), config.GreptimeConfig{}); err == nil {
		t.Fatalf("expected error for missing env vars")
	}
}

func TestRenderSuccess(t *testing.T) {
	t.Setenv("GREPTIMEDB_DATASOURCE_UID", "uid1")

	dir := t.TempDir()
	if err := Render(dir, config.GreptimeConfig{ReadingTable: "farm_readings"}); err != nil {
		t.Fatalf("render failed: %v", err)
	}

	b, err := os.ReadFile(filepath.Join(dir, "fieldops-dashboard.json"))
	if err != nil {
		t.Fatalf("read dashboard: %v", err)
	}
	var dash struct {
		Panels []struct {
			ID         int `json:"id"`
			Datasource struct {
				UID string `json:"uid"`
			} `json:"datasource"`
			Targets []struct {
				RawSQL string `json:"rawSql"`
			} `json:"targets"`
		} `json:"panels"`
	}
	if err := json.Unmarshal(b, &dash); err != nil {
		t.Fatalf("rendered dashboard is not valid JSON: %v", err)
	}
	if len(dash.Panels) != 6 {
		t.Fatalf("expected 6 panels, got %d", len(dash.Panels))
	}
	if dash.Panels[0].Datasource.UID != "uid1" || dash.Panels[5].ID != 6 {
		t.Errorf("unexpected panel header %+v", dash.Panels[0])
	}
	if !strings.Contains(dash.Panels[0].Targets[0].RawSQL, "FROM farm_readings WHERE kind = 'AIR_TEMP'") {
		t.Errorf("reading table override not applied: %s", dash.Panels[0].Targets[0].RawSQL)
	}
	if !strings.Contains(dash.Panels[5].Targets[0].RawSQL, "FROM plot_economics") {
		t.Errorf("default plot table not used: %s", dash.Panels[5].Targets[0].RawSQL)
	}
}
