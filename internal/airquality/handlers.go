package airquality

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/AirSense/AirSense-Backend/internal/logging"
	"github.com/go-chi/chi/v5"
)

type Handler struct {
	store        Store
	limits       *Limits
	healthSecret string
}

func NewHandler(store Store, limits *Limits, healthSecret string) *Handler {
	return &Handler{store: store, limits: limits, healthSecret: healthSecret}
}

type errorBody struct {
	Error          string          `json:"error"`
	RequiredParams *requiredParams `json:"parametros_requeridos,omitempty"`
	Example        string          `json:"ejemplo,omitempty"`
}

type requiredParams struct {
	Station  string `json:"estacion"`
	Year     string `json:"anio"`
	Exposure string `json:"exposicion"`
}

type notFoundBody struct {
	Message    string         `json:"mensaje"`
	Params     *QueriedParams `json:"parametros_consultados,omitempty"`
	Suggestion string         `json:"sugerencia,omitempty"`
}

var missingParamsBody = errorBody{
	Error: "Faltan parámetros requeridos",
	RequiredParams: &requiredParams{
		Station:  "ID de la estación (número)",
		Year:     fmt.Sprintf("Año a consultar (%d-%d)", MinYear, MaxYear),
		Exposure: "ID de exposición (número)",
	},
	Example: "/api/datos?estacion=8986&anio=2015&exposicion=4",
}

// serve adapts an error-returning handler; endpoint names the route in
// logs and in the generic 500 body.
func (h *Handler) serve(endpoint string, fn func(w http.ResponseWriter, r *http.Request) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := fn(w, r); err != nil {
			writeError(w, r, endpoint, err)
		}
	}
}

func writeError(w http.ResponseWriter, r *http.Request, endpoint string, err error) {
	var (
		verr *ValidationError
		nerr *NotFoundError
	)
	switch {
	case errors.As(err, &verr):
		if verr.Body != nil {
			writeJSONStatus(w, http.StatusBadRequest, verr.Body)
			return
		}
		writeJSONStatus(w, http.StatusBadRequest, errorBody{Error: verr.Message})
	case errors.As(err, &nerr):
		writeJSONStatus(w, http.StatusNotFound, notFoundBody{
			Message:    nerr.Message,
			Params:     nerr.Params,
			Suggestion: nerr.Suggestion,
		})
	default:
		logging.Ctx(r.Context()).Error().Err(err).Str("endpoint", endpoint).Msg("request failed")
		writeJSONStatus(w, http.StatusInternalServerError, errorBody{
			Error: "Error interno del servidor al procesar " + endpoint,
		})
	}
}

func (h *Handler) listMunicipalities(w http.ResponseWriter, r *http.Request) error {
	start := time.Now()
	out, err := h.store.ListMunicipalities(r.Context())
	if err != nil {
		return err
	}
	if out == nil {
		out = []Municipality{}
	}
	addServerTiming(w, "db", start)
	writeJSON(w, out)
	return nil
}

func (h *Handler) listStations(w http.ResponseWriter, r *http.Request) error {
	p := municipalityParams{MunicipalityID: parseID(chi.URLParam(r, "id_municipio"))}
	if err := validateParams(p); err != nil {
		return err
	}
	start := time.Now()
	out, err := h.store.ListStationsByMunicipality(r.Context(), p.MunicipalityID)
	if err != nil {
		return err
	}
	if out == nil {
		out = []StationLocation{}
	}
	addServerTiming(w, "db", start)
	writeJSON(w, out)
	return nil
}

func (h *Handler) listYears(w http.ResponseWriter, r *http.Request) error {
	p := municipalityParams{MunicipalityID: parseID(chi.URLParam(r, "id_municipio"))}
	if err := validateParams(p); err != nil {
		return err
	}
	start := time.Now()
	out, err := h.store.ListAvailableYears(r.Context(), p.MunicipalityID)
	if errors.Is(err, ErrNotFound) || (err == nil && (out == nil || len(out.Years) == 0)) {
		return &NotFoundError{Message: "No existen registros de calidad del aire para este municipio."}
	}
	if err != nil {
		return err
	}
	addServerTiming(w, "db", start)
	writeJSON(w, out)
	return nil
}

func (h *Handler) listStationsByYear(w http.ResponseWriter, r *http.Request) error {
	p := municipalityYearParams{
		MunicipalityID: parseID(chi.URLParam(r, "id_municipio")),
		Year:           parseYear(chi.URLParam(r, "anio")),
	}
	if err := validateParams(p); err != nil {
		return err
	}
	start := time.Now()
	stations, err := h.store.ListStationsByYear(r.Context(), p.MunicipalityID, p.Year)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	if len(stations) == 0 {
		return &NotFoundError{
			Message:    fmt.Sprintf("No hay estaciones con datos de calidad del aire para este municipio en el año %d.", p.Year),
			Suggestion: "Intente con otro año disponible",
		}
	}
	addServerTiming(w, "db", start)
	writeJSON(w, StationsByYear{
		MunicipalityID: p.MunicipalityID,
		Year:           p.Year,
		Total:          len(stations),
		Stations:       stations,
	})
	return nil
}

func (h *Handler) listPollutants(w http.ResponseWriter, r *http.Request) error {
	p := stationYearParams{
		StationID: parseID(chi.URLParam(r, "id_estacion")),
		Year:      parseYear(chi.URLParam(r, "anio")),
	}
	if err := validateParams(p); err != nil {
		return err
	}
	start := time.Now()
	pollutants, err := h.store.ListPollutants(r.Context(), p.StationID, p.Year)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	if len(pollutants) == 0 {
		return &NotFoundError{
			Message:    fmt.Sprintf("No hay datos de contaminantes para esta estación en el año %d.", p.Year),
			Suggestion: "Verifique que la estación estuviera operativa en ese año",
		}
	}
	addServerTiming(w, "db", start)
	writeJSON(w, PollutantsByYear{
		StationID:  p.StationID,
		Year:       p.Year,
		Total:      len(pollutants),
		Pollutants: pollutants,
	})
	return nil
}

func (h *Handler) getHistoricalData(w http.ResponseWriter, r *http.Request) error {
	q := r.URL.Query()
	station, year, exposure := q.Get("estacion"), q.Get("anio"), q.Get("exposicion")
	if station == "" || year == "" || exposure == "" {
		return &ValidationError{Message: missingParamsBody.Error, Body: missingParamsBody}
	}

	p := historicalParams{
		StationID:  parseID(station),
		Year:       parseYear(year),
		ExposureID: parseID(exposure),
	}
	if err := validateParams(p); err != nil {
		return err
	}

	start := time.Now()
	rec, err := h.store.GetHistoricalRecord(r.Context(), p.StationID, p.Year, p.ExposureID)
	if errors.Is(err, ErrNotFound) || (err == nil && rec == nil) {
		return &NotFoundError{
			Message:    "No se encontraron datos para la combinación especificada",
			Params:     &QueriedParams{Station: p.StationID, Year: p.Year, Exposure: p.ExposureID},
			Suggestion: "Verifique que existan mediciones para este contaminante en la estación y año seleccionados",
		}
	}
	if err != nil {
		return err
	}
	addServerTiming(w, "db", start)
	writeJSON(w, BuildReport(rec, h.limits))
	return nil
}

func (h *Handler) getDictionary(w http.ResponseWriter, r *http.Request) error {
	out, err := h.store.ListDictionary(r.Context())
	if err != nil {
		return err
	}
	if out == nil {
		out = []DictionaryEntry{}
	}
	writeJSON(w, out)
	return nil
}
