package airquality

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func SetupRoutes(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Get("/municipios", h.serve("/api/municipios", h.listMunicipalities))
	r.Get("/estaciones/{id_municipio}", h.serve("/api/estaciones/:id_municipio", h.listStations))
	r.Get("/estaciones/{id_municipio}/{anio}", h.serve("/api/estaciones/:id_municipio/:anio", h.listStationsByYear))
	r.Get("/anios/{id_municipio}", h.serve("/api/anios/:id_municipio", h.listYears))
	r.Get("/contaminantes/{id_estacion}/{anio}", h.serve("/api/contaminantes/:id_estacion/:anio", h.listPollutants))
	r.Get("/datos", h.serve("/api/datos", h.getHistoricalData))
	r.Get("/diccionario", h.serve("/api/diccionario", h.getDictionary))
	r.Get("/health", h.serve("/api/health", h.health))

	return r
}
