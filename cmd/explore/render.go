package main

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/AirSense/AirSense-Backend/internal/airquality"
	"github.com/AirSense/AirSense-Backend/internal/cascade"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.Spanish)

// toastPrinter writes each new status message once.
type toastPrinter struct {
	mu   sync.Mutex
	last string
}

func (t *toastPrinter) print(w io.Writer, s cascade.Snapshot) {
	if s.Toast == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if s.Toast.Text == t.last {
		return
	}
	t.last = s.Toast.Text
	fmt.Fprintln(w, s.Toast.Text)
}

func printSnapshot(w io.Writer, s cascade.Snapshot) {
	printSelector(w, "Municipio", s.Municipality)
	printSelector(w, "Año", s.Year)
	printSelector(w, "Estación", s.Station)
	printSelector(w, "Contaminante", s.Exposure)

	printer.Fprintf(w, "\nMapa: %.4f, %.4f (zoom %.1f)\n", s.Viewport.Center.Lat, s.Viewport.Center.Lng, s.Viewport.Zoom)
	if s.InfoBox.Visible {
		fmt.Fprintf(w, "# Estaciones: %d\n", s.InfoBox.StationCount)
		if s.InfoBox.AutoSelected {
			fmt.Fprintln(w, "✅ Estación seleccionada automáticamente")
		}
	}
	for _, m := range s.Markers {
		mark := " "
		if m.Highlighted {
			mark = "*"
		}
		kind := ""
		if m.Type != nil {
			kind = " · " + *m.Type
		}
		printer.Fprintf(w, " %s %-30s %s  %.4f°, %.4f°%s\n", mark, m.Name, m.Color, m.Position.Lat, m.Position.Lng, kind)
	}

	fmt.Fprintln(w)
	switch s.Panel.Mode {
	case cascade.PanelData:
		printReport(w, s.Panel.QualityText, s.Panel.Report)
	case cascade.PanelError:
		fmt.Fprintf(w, "⚠️ Error al cargar datos: %s\n", s.Panel.Error)
	case cascade.PanelLoading:
		fmt.Fprintln(w, "Cargando...")
	default:
		if s.Municipality.Status == cascade.StatusReady && s.Municipality.Selected == nil {
			for _, o := range s.Municipality.Options {
				fmt.Fprintf(w, "%6d  %s\n", o.Value, o.Label)
			}
		}
	}
}

func printSelector(w io.Writer, label string, sel cascade.Selector) {
	value := sel.Placeholder
	if sel.Selected != nil {
		value = fmt.Sprint(*sel.Selected)
		for _, o := range sel.Options {
			if o.Value == *sel.Selected {
				value = fmt.Sprintf("%s (%d)", o.Label, o.Value)
				break
			}
		}
	}
	fmt.Fprintf(w, "%-13s %s", label+":", value)
	if sel.Selected == nil && len(sel.Options) > 0 && len(sel.Options) <= 20 {
		labels := make([]string, 0, len(sel.Options))
		for _, o := range sel.Options {
			if o.Label == fmt.Sprint(o.Value) {
				labels = append(labels, o.Label)
			} else {
				labels = append(labels, fmt.Sprintf("%d=%s", o.Value, o.Label))
			}
		}
		fmt.Fprintf(w, "  [%s]", strings.Join(labels, ", "))
	}
	fmt.Fprintln(w)
}

func printReport(w io.Writer, quality string, r *airquality.HistoricalReport) {
	if r == nil {
		return
	}
	p := r.Pollutant
	fmt.Fprintf(w, "%s · %s (%s) · %s\n", p.Symbol, p.Name, p.Exposure.Text, quality)
	fmt.Fprintf(w, "%s, %d\n\n", r.Station.Name, r.Year)

	stat := func(label string, v *float64) {
		if v == nil {
			fmt.Fprintf(w, "  %-22s -\n", label)
			return
		}
		printer.Fprintf(w, "  %-22s %.2f %s\n", label, *v, p.Units)
	}
	stat("Promedio", r.Statistics.Mean)
	stat("Máximo", r.Statistics.Max)
	stat("Mínimo", r.Statistics.Min)
	stat("Mediana", r.Statistics.Median)
	stat("Percentil 98", r.Statistics.Percentile98)
	if r.Statistics.MaxAt != nil {
		fmt.Fprintf(w, "  %-22s %s\n", "Fecha del máximo", r.Statistics.MaxAt.Format("2006-01-02 15:04"))
	}
	if r.Exceedances.Count != nil {
		printer.Fprintf(w, "  %-22s %d\n", "Excedencias", *r.Exceedances.Count)
	}
	if r.Exceedances.Percentage != nil {
		printer.Fprintf(w, "  %-22s %.2f %%\n", "% excedencias", *r.Exceedances.Percentage)
	}
	if r.DataQuality.TemporalCoverage != nil {
		printer.Fprintf(w, "  %-22s %.2f %%\n", "Representatividad", *r.DataQuality.TemporalCoverage)
	}

	c := r.Classification
	fmt.Fprintf(w, "\n%s [%s]\n%s\n", c.Level, c.Color, c.Description)
	if c.Limits != nil {
		printer.Fprintf(w, "Límites (%d h): buena ≤ %.0f, regular ≤ %.0f · %s\n", c.Limits.Hours, c.Limits.Good, c.Limits.Moderate, c.Limits.Source)
	}
}

func printDictionary(w io.Writer, entries []airquality.DictionaryEntry) {
	for i, e := range entries {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "%s · %s\n", e.Symbol, e.Name)
		for _, part := range []struct {
			label string
			text  *string
		}{
			{"Qué es", e.WhatIs},
			{"Causas", e.Causes},
			{"Consecuencias", e.Consequences},
		} {
			if part.text != nil && *part.text != "" {
				fmt.Fprintf(w, "  %s: %s\n", part.label, *part.text)
			}
		}
	}
}
