package farm

import (
	"errors"
	"testing"
)

func TestPlotAccessorsTreatNilAsZero(t *testing.T) {
	p := Plot{RevenueEUR: Float(35), CostEUR: nil}
	if p.Production() != 0 {
		t.Errorf("expected zero production, got %f", p.Production())
	}
	if p.Balance() != 35 {
		t.Errorf("expected balance 35, got %f", p.Balance())
	}
}

func TestParseEnums(t *testing.T) {
	if _, err := ParsePlotKind("GREENHOUSE"); err != nil {
		t.Errorf("GREENHOUSE rejected: %v", err)
	}
	if _, err := ParsePlotState("FALLOW"); err == nil {
		t.Errorf("expected error for unknown state")
	}
	k, err := ParseSensorKind("SOIL_MOISTURE")
	if err != nil || !k.IsSoil() {
		t.Errorf("SOIL_MOISTURE should parse as soil kind, got %q, %v", k, err)
	}
	if SensorAirTemp.IsSoil() {
		t.Errorf("AIR_TEMP is not a soil kind")
	}
}

func TestNotFoundErrorMatching(t *testing.T) {
	plain := PlotNotFound(7)
	if !errors.Is(plain, ErrNotFound) {
		t.Fatalf("expected ErrNotFound match")
	}
	if errors.Is(plain, ErrNoActiveSensors) {
		t.Fatalf("unknown plot must not match ErrNoActiveSensors")
	}
	if plain.Error() != "plot not found with id 7" {
		t.Errorf("unexpected message %q", plain.Error())
	}

	idle := PlotNotFound(3)
	idle.Reason = ErrNoActiveSensors
	if !errors.Is(idle, ErrNotFound) || !errors.Is(idle, ErrNoActiveSensors) {
		t.Fatalf("expected both sentinels to match")
	}
	var nf *NotFoundError
	if !errors.As(error(idle), &nf) || nf.Key != "3" {
		t.Fatalf("expected NotFoundError carrying key 3, got %+v", nf)
	}
}
