package fare

import (
	"fmt"
	"math"
	"strconv"

	"github.com/shiva/ridefare/internal/model"
	"github.com/shiva/ridefare/pkg/geo"
)

// ─── Quote ──────────────────────────────────────────────────

// Breakdown carries the human-readable line items of a quote. Surge is nil
// when no surge applies.
type Breakdown struct {
	Base     string  `json:"base"`
	Distance string  `json:"distance"`
	Time     string  `json:"time"`
	Surge    *string `json:"surge"`
}

// Quote is one vehicle class's fare for one trip. Currency amounts are whole
// units; Distance keeps one decimal.
type Quote struct {
	VehicleClass    VehicleClass `json:"vehicleType"`
	BaseFare        int64        `json:"baseFare"`
	DistanceFare    int64        `json:"distanceFare"`
	TimeFare        int64        `json:"timeFare"`
	SurgeTier       SurgeTier    `json:"surgeTier"`
	SurgeMultiplier float64      `json:"surgeMultiplier"`
	SurgeAmount     int64        `json:"surgeAmount"`
	Subtotal        int64        `json:"subtotal"`
	Total           int64        `json:"total"`
	Distance        float64      `json:"distance"`
	EstimatedTime   int          `json:"estimatedTime"`
	Breakdown       Breakdown    `json:"breakdown"`
}

// FareDetails holds the full quote per class.
type FareDetails struct {
	Car  *Quote `json:"car"`
	Moto *Quote `json:"moto"`
	Auto *Quote `json:"auto"`
}

// FareSet is the GetFare response: totals per class plus the breakdowns.
// The same shape is served over HTTP and computed locally.
type FareSet struct {
	Car     int64       `json:"car"`
	Moto    int64       `json:"moto"`
	Auto    int64       `json:"auto"`
	Details FareDetails `json:"details"`
}

// Detail returns the quote for class c, or nil if c is unknown.
func (fs *FareSet) Detail(c VehicleClass) *Quote {
	switch c {
	case ClassCar:
		return fs.Details.Car
	case ClassMoto:
		return fs.Details.Moto
	case ClassAuto:
		return fs.Details.Auto
	}
	return nil
}

// Complete reports whether every class has a total and a breakdown.
func (fs *FareSet) Complete() bool {
	for _, c := range Classes() {
		q := fs.Detail(c)
		if q == nil || q.Total <= 0 {
			return false
		}
	}
	return fs.Car == fs.Details.Car.Total &&
		fs.Moto == fs.Details.Moto.Total &&
		fs.Auto == fs.Details.Auto.Total
}

// ─── Engine ─────────────────────────────────────────────────

// Engine computes quotes against an immutable tariff table. It is safe for
// concurrent use.
type Engine struct {
	tariffs Tariffs
}

// NewEngine validates and copies the tariff table.
func NewEngine(t Tariffs) (*Engine, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &Engine{tariffs: t.clone()}, nil
}

// NewDefaultEngine returns an engine over DefaultTariffs.
func NewDefaultEngine() *Engine {
	e, err := NewEngine(DefaultTariffs())
	if err != nil {
		panic(err)
	}
	return e
}

// Vehicles returns the display descriptors of the engine's tariffs.
func (e *Engine) Vehicles() []VehicleInfo {
	return e.tariffs.Vehicles()
}

// ValidateTrip checks both endpoints of a trip, naming the offending one.
func ValidateTrip(pickup, destination model.Location) error {
	if err := geo.ValidateLocation(pickup); err != nil {
		return &ValidationError{Field: "pickup", Reason: err.Error(), Err: err}
	}
	if err := geo.ValidateLocation(destination); err != nil {
		return &ValidationError{Field: "destination", Reason: err.Error(), Err: err}
	}
	return nil
}

// trip is the class-independent part of a quote.
type trip struct {
	distanceKm float64
	minutes    int
	tier       SurgeTier
}

func (e *Engine) estimateTrip(pickup, destination model.Location, hour int) (trip, error) {
	if err := validateHour(hour); err != nil {
		return trip{}, err
	}
	if err := ValidateTrip(pickup, destination); err != nil {
		return trip{}, err
	}

	km, err := geo.EstimateDistanceKm(pickup, destination)
	if err != nil {
		return trip{}, &ValidationError{Field: "coordinates", Reason: err.Error(), Err: err}
	}
	return trip{
		distanceKm: km,
		minutes:    geo.EstimateDurationMinutes(km),
		tier:       SurgeTierAt(hour),
	}, nil
}

// Quote prices a trip for one vehicle class at the given wall-clock hour (0..23).
func (e *Engine) Quote(pickup, destination model.Location, class VehicleClass, hour int) (*Quote, error) {
	t, ok := e.tariffs.Classes[class]
	if !ok {
		return nil, &ValidationError{Field: "vehicleType", Reason: fmt.Sprintf("unknown vehicle class %q", class)}
	}
	tr, err := e.estimateTrip(pickup, destination, hour)
	if err != nil {
		return nil, err
	}
	return e.price(class, t, tr), nil
}

// QuoteAll prices the trip for every vehicle class from a single
// distance/duration/surge pass. It returns all three quotes or an error.
func (e *Engine) QuoteAll(pickup, destination model.Location, hour int) (*FareSet, error) {
	tr, err := e.estimateTrip(pickup, destination, hour)
	if err != nil {
		return nil, err
	}

	car := e.price(ClassCar, e.tariffs.Classes[ClassCar], tr)
	moto := e.price(ClassMoto, e.tariffs.Classes[ClassMoto], tr)
	auto := e.price(ClassAuto, e.tariffs.Classes[ClassAuto], tr)

	return &FareSet{
		Car:     car.Total,
		Moto:    moto.Total,
		Auto:    auto.Total,
		Details: FareDetails{Car: car, Moto: moto, Auto: auto},
	}, nil
}

// price applies the fare formula:
//
//	subtotal = base + round(km × perKm) + round(min × perMin)
//	total    = round(subtotal × surge)
//
// Components are rounded before they are summed.
func (e *Engine) price(class VehicleClass, t Tariff, tr trip) *Quote {
	surge := tr.tier.Multiplier()

	distanceFare := roundUnits(tr.distanceKm * t.PerKm)
	timeFare := roundUnits(float64(tr.minutes) * t.PerMin)
	subtotal := t.Base + distanceFare + timeFare
	surgeAmount := roundUnits(float64(subtotal) * (surge - 1))
	total := roundUnits(float64(subtotal) * surge)
	distance := math.Round(tr.distanceKm*10) / 10

	cur := e.tariffs.CurrencySymbol
	b := Breakdown{
		Base:     fmt.Sprintf("%s%d", cur, t.Base),
		Distance: fmt.Sprintf("%s%d (%s km)", cur, distanceFare, formatFloat(distance)),
		Time:     fmt.Sprintf("%s%d (%d min)", cur, timeFare, tr.minutes),
	}
	if surge > 1 {
		s := fmt.Sprintf("%s%d (%sx surge)", cur, surgeAmount, formatFloat(surge))
		b.Surge = &s
	}

	return &Quote{
		VehicleClass:    class,
		BaseFare:        t.Base,
		DistanceFare:    distanceFare,
		TimeFare:        timeFare,
		SurgeTier:       tr.tier,
		SurgeMultiplier: surge,
		SurgeAmount:     surgeAmount,
		Subtotal:        subtotal,
		Total:           total,
		Distance:        distance,
		EstimatedTime:   tr.minutes,
		Breakdown:       b,
	}
}

func roundUnits(v float64) int64 {
	return int64(math.Round(v))
}

// formatFloat prints the shortest representation ("1.8", "2", "101.2").
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
