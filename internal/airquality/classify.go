package airquality

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/goccy/go-yaml"
)

const (
	LevelGood      = "Buena"
	LevelModerate  = "Regular"
	LevelBad       = "Mala"
	LevelUndefined = "Sin definir"

	ColorGood      = "#4CAF50"
	ColorModerate  = "#FF9800"
	ColorBad       = "#F44336"
	ColorUndefined = "#9E9E9E"
)

//go:embed limits.yaml
var defaultLimitsYAML []byte

type Limit struct {
	Symbol   string  `yaml:"simbolo"`
	Hours    int     `yaml:"tiempo_horas"`
	Good     float64 `yaml:"buena"`
	Moderate float64 `yaml:"regular"`
	Source   string  `yaml:"fuente"`
}

type limitKey struct {
	symbol string
	hours  int
}

// Limits is an immutable threshold table.
type Limits struct {
	byKey map[limitKey]Limit
}

// DefaultLimits parses the embedded threshold table.
func DefaultLimits() (*Limits, error) {
	return LoadLimits(defaultLimitsYAML)
}

// LoadLimits parses a YAML threshold table. Thresholds must be positive,
// buena must not exceed regular and each (simbolo, tiempo_horas) pair may
// appear once.
func LoadLimits(data []byte) (*Limits, error) {
	var doc struct {
		Limits []Limit `yaml:"limites"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse limits: %w", err)
	}

	l := &Limits{byKey: make(map[limitKey]Limit, len(doc.Limits))}
	for _, lim := range doc.Limits {
		if lim.Symbol == "" || lim.Hours <= 0 {
			return nil, errors.New("limit entries need simbolo and a positive tiempo_horas")
		}
		if lim.Good <= 0 || lim.Moderate < lim.Good {
			return nil, fmt.Errorf("limit %s/%dh: need 0 < buena <= regular", lim.Symbol, lim.Hours)
		}
		k := limitKey{normalizeSymbol(lim.Symbol), lim.Hours}
		if _, dup := l.byKey[k]; dup {
			return nil, fmt.Errorf("duplicate limit %s/%dh", lim.Symbol, lim.Hours)
		}
		l.byKey[k] = lim
	}
	return l, nil
}

func (l *Limits) Lookup(symbol string, hours int) (Limit, bool) {
	if l == nil {
		return Limit{}, false
	}
	lim, ok := l.byKey[limitKey{normalizeSymbol(symbol), hours}]
	return lim, ok
}

// normalizeSymbol folds "PM2.5", "pm 2,5" and "PM25" together.
func normalizeSymbol(s string) string {
	r := strings.NewReplacer(".", "", ",", "", " ", "", "_", "", "-", "")
	return strings.ToUpper(r.Replace(s))
}

// Classify rates value against the limits for (symbol, hours). A nil
// value or a missing limit yields LevelUndefined.
func (l *Limits) Classify(symbol, units string, hours int, value *float64) Classification {
	lim, ok := l.Lookup(symbol, hours)
	if !ok {
		return Classification{
			Level:       LevelUndefined,
			Color:       ColorUndefined,
			Description: fmt.Sprintf("No hay límites de referencia definidos para %s en este tiempo de exposición.", symbol),
		}
	}

	info := &LimitInfo{Hours: lim.Hours, Good: lim.Good, Moderate: lim.Moderate, Source: lim.Source}
	if value == nil {
		return Classification{
			Level:       LevelUndefined,
			Color:       ColorUndefined,
			Description: fmt.Sprintf("No hay un promedio registrado para %s en este periodo.", symbol),
			Limits:      info,
		}
	}

	v := *value
	c := Classification{Limits: info}
	switch {
	case v <= lim.Good:
		c.Level, c.Color = LevelGood, ColorGood
		c.Description = fmt.Sprintf(
			"La concentración promedio de %s (%.2f %s) está dentro de la guía de la OMS (%g %s). "+
				"La calidad del aire es satisfactoria y representa poco o ningún riesgo para la salud.",
			symbol, v, units, lim.Good, units)
	case v <= lim.Moderate:
		c.Level, c.Color = LevelModerate, ColorModerate
		c.Description = fmt.Sprintf(
			"La concentración promedio de %s (%.2f %s) supera la guía de la OMS (%g %s) sin exceder %g %s. "+
				"Las personas sensibles podrían presentar molestias respiratorias.",
			symbol, v, units, lim.Good, units, lim.Moderate, units)
	default:
		c.Level, c.Color = LevelBad, ColorBad
		c.Description = fmt.Sprintf(
			"La concentración promedio de %s (%.2f %s) supera el límite de %g %s. "+
				"Toda la población puede verse afectada y los grupos sensibles deben reducir la exposición.",
			symbol, v, units, lim.Moderate, units)
	}
	return c
}

// BuildReport shapes a stored record into the /api/datos response.
func BuildReport(rec *HistoricalRecord, limits *Limits) HistoricalReport {
	return HistoricalReport{
		Station: StationRef{ID: rec.StationID, Name: rec.StationName},
		Year:    rec.Year,
		Pollutant: PollutantRef{
			Symbol: rec.Symbol,
			Name:   rec.PollutantName,
			Units:  rec.Units,
			Exposure: ExposureRef{
				ID:    rec.ExposureID,
				Text:  rec.ExposureText,
				Hours: rec.ExposureHours,
			},
		},
		Statistics: Statistics{
			Mean:         rec.Mean,
			Max:          rec.Max,
			Min:          rec.Min,
			Median:       rec.Median,
			Percentile98: rec.Percentile98,
			MaxAt:        rec.MaxAt,
		},
		Exceedances: Exceedances{
			Count:      rec.Exceedances,
			Percentage: rec.ExceedancePercentage,
		},
		DataQuality:    DataQuality{TemporalCoverage: rec.TemporalCoverage},
		Classification: limits.Classify(rec.Symbol, rec.Units, rec.ExposureHours, rec.Mean),
	}
}
