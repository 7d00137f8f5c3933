package fare

import (
	"errors"
	"testing"
)

func TestDefaultTariffs(t *testing.T) {
	tariffs := DefaultTariffs()
	if err := tariffs.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	want := map[VehicleClass]Tariff{
		ClassCar:  {Base: 40, PerKm: 12, PerMin: 2.0, Capacity: 4},
		ClassMoto: {Base: 25, PerKm: 8, PerMin: 1.5, Capacity: 1},
		ClassAuto: {Base: 30, PerKm: 10, PerMin: 1.8, Capacity: 3},
	}
	for c, w := range want {
		got := tariffs.Classes[c]
		if got.Base != w.Base || got.PerKm != w.PerKm || got.PerMin != w.PerMin || got.Capacity != w.Capacity {
			t.Errorf("%s tariff = %+v, want %+v", c, got, w)
		}
	}
}

func TestTariffs_Validate(t *testing.T) {
	missing := DefaultTariffs()
	delete(missing.Classes, ClassAuto)
	if err := missing.Validate(); err == nil {
		t.Error("Validate() with missing class: want error")
	}

	negative := DefaultTariffs()
	moto := negative.Classes[ClassMoto]
	moto.PerKm = -1
	negative.Classes[ClassMoto] = moto
	if err := negative.Validate(); err == nil {
		t.Error("Validate() with negative rate: want error")
	}

	if _, err := NewEngine(missing); err == nil {
		t.Error("NewEngine() with missing class: want error")
	}
}

func TestParseVehicleClass(t *testing.T) {
	for _, s := range []string{"car", "moto", "auto"} {
		c, err := ParseVehicleClass(s)
		if err != nil || string(c) != s {
			t.Errorf("ParseVehicleClass(%q) = %q, %v", s, c, err)
		}
	}

	_, err := ParseVehicleClass("bus")
	if !errors.Is(err, ErrValidation) {
		t.Errorf("ParseVehicleClass(bus) error = %v, want ErrValidation", err)
	}
}

func TestTariffs_Vehicles(t *testing.T) {
	v := DefaultTariffs().Vehicles()
	if len(v) != 3 {
		t.Fatalf("Vehicles() len = %d, want 3", len(v))
	}
	if v[0].Class != ClassCar || v[1].Class != ClassMoto || v[2].Class != ClassAuto {
		t.Errorf("Vehicles() order = %s, %s, %s", v[0].Class, v[1].Class, v[2].Class)
	}
	if v[0].Name != "UberGo" || v[1].Capacity != 1 {
		t.Errorf("unexpected descriptors: %+v", v)
	}
}
