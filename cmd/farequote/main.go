// farequote prints fare quotes for a trip as JSON.
//
//	farequote -pickup 25.4184,86.1274 -destination 25.5941,85.1376
//	farequote -pickup ... -destination ... -hour 9 -vehicle car
//
// Without -hour the quote comes from FARE_REMOTE_URL (or -remote) when set,
// falling back to the local engine; with -hour it is always local.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/shiva/ridefare/config"
	"github.com/shiva/ridefare/internal/model"
	"github.com/shiva/ridefare/pkg/fare"
	"github.com/shiva/ridefare/pkg/fareclient"
	"github.com/shiva/ridefare/pkg/logger"
)

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "farequote:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	flags := flag.NewFlagSet("farequote", flag.ContinueOnError)
	flags.SetOutput(stderr)
	pickupArg := flags.String("pickup", "", "pickup as lat,lng (required)")
	destArg := flags.String("destination", "", "destination as lat,lng (required)")
	remote := flags.String("remote", cfg.Fare.RemoteURL, "fare API base URL; empty quotes locally")
	hour := flags.Int("hour", 0, "surge hour 0..23; omit to use the current hour in FARE_TIMEZONE")
	vehicle := flags.String("vehicle", "", "print a single class (car, moto, auto)")
	if err := flags.Parse(args); err != nil {
		return err
	}
	hourSet := false
	flags.Visit(func(f *flag.Flag) {
		if f.Name == "hour" {
			hourSet = true
		}
	})

	pickup, err := parseLocation("pickup", *pickupArg)
	if err != nil {
		return err
	}
	destination, err := parseLocation("destination", *destArg)
	if err != nil {
		return err
	}

	tariffs := fare.DefaultTariffs()
	tariffs.CurrencySymbol = cfg.Fare.CurrencySymbol
	engine, err := fare.NewEngine(tariffs)
	if err != nil {
		return err
	}

	var fs *fare.FareSet
	if hourSet {
		fs, err = engine.QuoteAll(pickup, destination, *hour)
	} else {
		log := logger.New(cfg.Log)
		log.SetOutput(stderr)
		client := fareclient.New(strings.TrimRight(*remote, "/"), engine, log,
			fareclient.WithLocation(cfg.Fare.Location),
			fareclient.WithTimeout(cfg.Fare.RemoteTimeout),
		)
		fs, err = client.GetFare(ctx, pickup, destination)
	}
	if err != nil {
		return err
	}

	var out interface{} = fs
	if *vehicle != "" {
		class, err := fare.ParseVehicleClass(*vehicle)
		if err != nil {
			return err
		}
		out = fs.Detail(class)
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// parseLocation reads "lat,lng".
func parseLocation(field, s string) (model.Location, error) {
	latStr, lngStr, ok := strings.Cut(s, ",")
	if !ok {
		return model.Location{}, &fare.ValidationError{Field: field, Reason: fmt.Sprintf("want lat,lng, got %q", s)}
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(latStr), 64)
	if err != nil {
		return model.Location{}, &fare.ValidationError{Field: field, Reason: "bad latitude", Err: err}
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(lngStr), 64)
	if err != nil {
		return model.Location{}, &fare.ValidationError{Field: field, Reason: "bad longitude", Err: err}
	}
	return model.Location{Lat: lat, Lng: lng}, nil
}
