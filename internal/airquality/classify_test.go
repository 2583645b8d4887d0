package airquality

import (
	"strings"
	"testing"
)

func ptr(v float64) *float64 { return &v }

func TestDefaultLimitsLoad(t *testing.T) {
	l, err := DefaultLimits()
	if err != nil {
		t.Fatalf("DefaultLimits() error = %v", err)
	}
	lim, ok := l.Lookup("PM2.5", 24)
	if !ok || lim.Good != 15 || lim.Moderate != 37 {
		t.Errorf("unexpected PM2.5 24h limit: %+v (found=%v)", lim, ok)
	}
}

func TestClassify(t *testing.T) {
	l, err := DefaultLimits()
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		symbol string
		hours  int
		value  *float64
		level  string
		color  string
	}{
		{"below guideline", "PM2.5", 24, ptr(10), LevelGood, ColorGood},
		{"at guideline", "PM2.5", 24, ptr(15), LevelGood, ColorGood},
		{"between limits", "PM2.5", 24, ptr(22.4), LevelModerate, ColorModerate},
		{"at national limit", "PM2.5", 24, ptr(37), LevelModerate, ColorModerate},
		{"above national limit", "PM2.5", 24, ptr(37.01), LevelBad, ColorBad},
		{"annual PM10", "PM10", 8760, ptr(55), LevelBad, ColorBad},
		{"symbol spelled differently", "pm 2,5", 8760, ptr(4), LevelGood, ColorGood},
		{"unknown exposure", "PM2.5", 1, ptr(10), LevelUndefined, ColorUndefined},
		{"unknown pollutant", "H2S", 24, ptr(10), LevelUndefined, ColorUndefined},
		{"missing mean", "O3", 8, nil, LevelUndefined, ColorUndefined},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := l.Classify(tt.symbol, "µg/m³", tt.hours, tt.value)
			if c.Level != tt.level || c.Color != tt.color {
				t.Errorf("expected %s/%s, got %s/%s", tt.level, tt.color, c.Level, c.Color)
			}
			if c.Description == "" {
				t.Error("expected a description")
			}
		})
	}
}

func TestClassify_DescriptionMentionsValue(t *testing.T) {
	l, err := DefaultLimits()
	if err != nil {
		t.Fatal(err)
	}
	c := l.Classify("PM10", "µg/m³", 24, ptr(80.456))
	if !strings.Contains(c.Description, "PM10") || !strings.Contains(c.Description, "80.46 µg/m³") {
		t.Errorf("description should mention symbol, value and unit: %q", c.Description)
	}
	if c.Limits == nil || c.Limits.Hours != 24 || c.Limits.Source == "" {
		t.Errorf("expected limit info, got %+v", c.Limits)
	}

	undefined := l.Classify("H2S", "µg/m³", 24, ptr(1))
	if undefined.Limits != nil {
		t.Errorf("undefined classification must not carry limits, got %+v", undefined.Limits)
	}
}

func TestClassify_NilLimits(t *testing.T) {
	var l *Limits
	if c := l.Classify("PM2.5", "µg/m³", 24, ptr(3)); c.Level != LevelUndefined {
		t.Errorf("expected undefined with no table, got %s", c.Level)
	}
}

func TestLoadLimits_Rejects(t *testing.T) {
	tests := map[string]string{
		"inverted":  "limites:\n  - {simbolo: PM10, tiempo_horas: 24, buena: 80, regular: 45}\n",
		"duplicate": "limites:\n  - {simbolo: PM10, tiempo_horas: 24, buena: 45, regular: 75}\n  - {simbolo: pm10, tiempo_horas: 24, buena: 45, regular: 75}\n",
		"no hours":  "limites:\n  - {simbolo: PM10, buena: 45, regular: 75}\n",
		"not yaml":  "limites: [",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := LoadLimits([]byte(doc)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestBuildReport(t *testing.T) {
	l, err := DefaultLimits()
	if err != nil {
		t.Fatal(err)
	}
	rec := &HistoricalRecord{
		StationID: 101, StationName: "Univalle", Year: 2019,
		Symbol: "O3", PollutantName: "Ozono", Units: "µg/m³",
		ExposureID: 6, ExposureText: "8 horas", ExposureHours: 8,
		Mean: ptr(40), TemporalCoverage: ptr(91),
	}
	r := BuildReport(rec, l)
	if r.Station.ID != 101 || r.Pollutant.Exposure.ID != 6 || r.Pollutant.Exposure.Text != "8 horas" {
		t.Errorf("unexpected identity: %+v", r)
	}
	if r.Statistics.Mean == nil || *r.Statistics.Mean != 40 || *r.DataQuality.TemporalCoverage != 91 {
		t.Errorf("unexpected statistics: %+v", r.Statistics)
	}
	if r.Classification.Level != LevelGood {
		t.Errorf("expected Buena for O3 40 µg/m³, got %s", r.Classification.Level)
	}
}

func TestParseIDStrict(t *testing.T) {
	tests := map[string]int64{"42": 42, "12abc": 0, " 7": 0, "": 0, "3.0": 0}
	for in, want := range tests {
		if got := parseID(in); got != want {
			t.Errorf("parseID(%q) = %d, want %d", in, got, want)
		}
	}
}
