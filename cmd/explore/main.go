// Command explore walks the air-quality filters from the terminal against
// a running API and prints what the map would show.
//
//	go run ./cmd/explore -municipio 5 -anio 2019 -exposicion 4
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/AirSense/AirSense-Backend/internal/cascade"
	"github.com/AirSense/AirSense-Backend/internal/client"
	"github.com/AirSense/AirSense-Backend/internal/logging"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load(".env.local")

	var (
		apiURL       = flag.String("api", envOr("AIRSENSE_API", client.DefaultBaseURL), "API base URL")
		municipality = flag.Int64("municipio", 0, "municipality id")
		year         = flag.Int("anio", 0, "year (2011-2023)")
		station      = flag.Int64("estacion", 0, "station id; defaults to the auto-selected one")
		exposure     = flag.Int64("exposicion", 0, "exposure id")
		dictionary   = flag.Bool("diccionario", false, "print the pollutant dictionary and exit")
		rps          = flag.Float64("rps", 0, "max requests per second (0 = unlimited)")
		verbose      = flag.Bool("v", false, "log every request and transition")
	)
	flag.Parse()

	level := "warn"
	if *verbose {
		level = "debug"
	}
	logging.Init(logging.Config{Level: level, Format: "console", Output: os.Stderr})

	var opts []client.Option
	if *rps > 0 {
		opts = append(opts, client.WithRateLimit(*rps, 1))
	}
	api := client.New(*apiURL, opts...)

	if *dictionary {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		entries, err := api.Dictionary(ctx)
		if err != nil {
			logging.Fatal().Err(err).Msg("load dictionary")
		}
		printDictionary(os.Stdout, entries)
		return
	}

	var toasts toastPrinter
	ctrl := cascade.New(api, cascade.RendererFunc(func(s cascade.Snapshot) {
		toasts.print(os.Stderr, s)
	}))

	ctrl.Start()
	ctrl.Wait()

	if *municipality != 0 {
		ctrl.SelectMunicipality(municipality)
		ctrl.Wait()
	}
	if *year != 0 {
		ctrl.SelectYear(year)
		ctrl.Wait()
	}
	if *station != 0 {
		ctrl.OnStationSelected(station)
		ctrl.Wait()
	}
	if *exposure != 0 {
		ctrl.SelectExposure(exposure)
		ctrl.Wait()
	}

	s := ctrl.Snapshot()
	ctrl.Close()
	printSnapshot(os.Stdout, s)
	if s.Panel.Mode == cascade.PanelError || s.Municipality.Status == cascade.StatusError {
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func init() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags]\n\n", os.Args[0])
		flag.PrintDefaults()
	}
}
