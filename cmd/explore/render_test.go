package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/AirSense/AirSense-Backend/internal/airquality"
	"github.com/AirSense/AirSense-Backend/internal/cascade"
)

func TestPrintSnapshot_Report(t *testing.T) {
	mean := 20.5
	year := int64(2019)
	station := int64(101)
	s := cascade.Snapshot{
		Year:    cascade.Selector{Status: cascade.StatusReady, Options: []cascade.Option{{Value: 2019, Label: "2019"}}, Selected: &year},
		Station: cascade.Selector{Status: cascade.StatusReady, Options: []cascade.Option{{Value: 101, Label: "Univalle"}}, Selected: &station},
		Markers: []cascade.Marker{{StationID: 101, Name: "Univalle", Color: airquality.ColorModerate, Highlighted: true}},
		InfoBox: cascade.InfoBox{Visible: true, StationCount: 1, AutoSelected: true},
		Panel: cascade.Panel{
			Mode:        cascade.PanelData,
			QualityText: "Calidad del aire: Moderada",
			Report: &airquality.HistoricalReport{
				Station:        airquality.StationRef{ID: 101, Name: "Univalle"},
				Year:           2019,
				Pollutant:      airquality.PollutantRef{Symbol: "PM2.5", Units: "µg/m³"},
				Statistics:     airquality.Statistics{Mean: &mean},
				Classification: airquality.Classification{Level: airquality.LevelModerate, Color: airquality.ColorModerate},
			},
		},
	}

	var buf bytes.Buffer
	printSnapshot(&buf, s)
	out := buf.String()

	for _, want := range []string{
		"Univalle (101)",
		"# Estaciones: 1",
		"Estación seleccionada automáticamente",
		"20,50 µg/m³",
		"Calidad del aire: Moderada",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestToastPrinter_SkipsRepeats(t *testing.T) {
	var tp toastPrinter
	var buf bytes.Buffer
	s := cascade.Snapshot{Toast: &cascade.Toast{Text: "Cargando años disponibles..."}}
	tp.print(&buf, s)
	tp.print(&buf, s)
	if got := strings.Count(buf.String(), "Cargando"); got != 1 {
		t.Errorf("expected one line, got %d", got)
	}
}
