// Package fare quotes ride fares from pickup/destination coordinates.
//
// Everything here is pure: the engine holds only an immutable tariff table,
// never reads the clock and performs no I/O, so one Engine can be shared by
// HTTP handlers, the ride coordinator and the client-side fallback.
package fare

import "fmt"

// VehicleClass tags the tariff a quote is computed against.
type VehicleClass string

const (
	ClassCar  VehicleClass = "car"
	ClassMoto VehicleClass = "moto"
	ClassAuto VehicleClass = "auto"
)

// Classes returns every quotable vehicle class in display order.
func Classes() []VehicleClass {
	return []VehicleClass{ClassCar, ClassMoto, ClassAuto}
}

// ParseVehicleClass validates a wire value.
func ParseVehicleClass(s string) (VehicleClass, error) {
	c := VehicleClass(s)
	switch c {
	case ClassCar, ClassMoto, ClassAuto:
		return c, nil
	}
	return "", &ValidationError{Field: "vehicleType", Reason: fmt.Sprintf("unknown vehicle class %q", s)}
}

// Tariff holds the per-class rates and display descriptor.
type Tariff struct {
	Base        int64   `json:"baseFare"`
	PerKm       float64 `json:"perKm"`
	PerMin      float64 `json:"perMinute"`
	Capacity    int     `json:"capacity"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	ETA         string  `json:"eta"`
}

// Tariffs is the process-wide rate table. Build it once at startup and hand
// it to NewEngine; the engine keeps its own copy.
type Tariffs struct {
	CurrencySymbol string
	Classes        map[VehicleClass]Tariff
}

// DefaultTariffs returns the production rate table.
func DefaultTariffs() Tariffs {
	return Tariffs{
		CurrencySymbol: "₹",
		Classes: map[VehicleClass]Tariff{
			ClassCar: {
				Base: 40, PerKm: 12, PerMin: 2.0, Capacity: 4,
				Name: "UberGo", Description: "Affordable, compact rides", ETA: "2-5 mins",
			},
			ClassMoto: {
				Base: 25, PerKm: 8, PerMin: 1.5, Capacity: 1,
				Name: "Moto", Description: "Affordable motorcycle rides", ETA: "1-3 mins",
			},
			ClassAuto: {
				Base: 30, PerKm: 10, PerMin: 1.8, Capacity: 3,
				Name: "UberAuto", Description: "Affordable Auto rides", ETA: "2-4 mins",
			},
		},
	}
}

// Validate checks that every class has a tariff with non-negative rates.
func (t Tariffs) Validate() error {
	for _, c := range Classes() {
		tr, ok := t.Classes[c]
		if !ok {
			return fmt.Errorf("fare: no tariff for vehicle class %q", c)
		}
		if tr.Base < 0 || tr.PerKm < 0 || tr.PerMin < 0 {
			return fmt.Errorf("fare: negative rate in %q tariff", c)
		}
	}
	return nil
}

func (t Tariffs) clone() Tariffs {
	out := Tariffs{CurrencySymbol: t.CurrencySymbol, Classes: make(map[VehicleClass]Tariff, len(t.Classes))}
	for k, v := range t.Classes {
		out.Classes[k] = v
	}
	return out
}

// VehicleInfo is the display descriptor served to clients.
type VehicleInfo struct {
	Class VehicleClass `json:"vehicleType"`
	Tariff
}

// Vehicles lists the descriptors of every known class, in display order.
func (t Tariffs) Vehicles() []VehicleInfo {
	out := make([]VehicleInfo, 0, len(t.Classes))
	for _, c := range Classes() {
		if tr, ok := t.Classes[c]; ok {
			out = append(out, VehicleInfo{Class: c, Tariff: tr})
		}
	}
	return out
}
