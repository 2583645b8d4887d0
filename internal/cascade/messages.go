package cascade

import (
	"errors"
	"fmt"

	"github.com/AirSense/AirSense-Backend/internal/airquality"
	"github.com/AirSense/AirSense-Backend/internal/client"
)

// Selector placeholders.
const (
	placeholderMunicipality       = "-- Selecciona --"
	placeholderYear               = "-- Selecciona año --"
	placeholderStation            = "-- Selecciona estación --"
	placeholderExposure           = "-- Selecciona contaminante --"
	placeholderYearLocked         = "-- Primero selecciona municipio --"
	placeholderStationLocked      = "-- Primero selecciona año --"
	placeholderExposureLocked     = "-- Primero selecciona estación --"
	placeholderLoading            = "Cargando..."
	placeholderMunicipalityFailed = "Error al conectar con el servidor"
)

// Status toasts.
const (
	msgLoadingMunicipalities = "Cargando municipios..."
	msgLoadingYears          = "Cargando años disponibles..."
	msgLoadingStations       = "Cargando estaciones..."
	msgLoadingPollutants     = "Cargando contaminantes disponibles..."
	msgLoadingData           = "📊 Cargando datos del contaminante..."
	msgDataLoaded            = "✅ Datos cargados correctamente"
	msgOverview              = "Vista general del Valle del Cauca"
	msgFiltersCleared        = "✨ Filtros limpiados - Vista general"
	msgNoStations            = "⚠️ No hay estaciones para mostrar"
	msgStationsFailed        = "❌ No se pudieron cargar las estaciones."
	msgCentered              = "📍 Mapa centrado en la estación"
	msgConnection            = "Problema de conexión con el servidor"
	msgServerDown            = "❌ Error al conectar con el servidor."
)

func msgLoadingStationsYear(year int) string {
	return fmt.Sprintf("Cargando estaciones operativas en %d...", year)
}

func msgYearsFound(n int, municipality string) string {
	return fmt.Sprintf("%d años disponibles para %s.", n, municipality)
}

func msgStationsFound(n int) string {
	return fmt.Sprintf("%d estaciones encontradas.", n)
}

func msgStationsInYear(n, year int) string {
	return fmt.Sprintf("%d estaciones operativas en %d.", n, year)
}

func msgPollutantsFound(n int) string {
	return fmt.Sprintf("%d contaminantes disponibles.", n)
}

func failure(text string) string { return "❌ " + text }

// describe turns a fetch error into the text shown to the user. Not-found
// responses get a stage-specific message, rejected parameters the server's
// own message and an unreachable server the connection message.
func describe(err error, notFound, generic string) string {
	var apiErr *client.APIError
	switch {
	case errors.Is(err, client.ErrValidation) && errors.As(err, &apiErr) && apiErr.Message != "":
		return apiErr.Message
	case errors.Is(err, client.ErrNotFound):
		return notFound
	case errors.Is(err, client.ErrUnavailable):
		return msgConnection
	default:
		return generic
	}
}

func yearsError(err error) string {
	return describe(err, "No hay datos para este municipio", "Error al obtener años")
}

func stationsByYearError(err error, year int) string {
	return describe(err, fmt.Sprintf("No hay estaciones con datos para el año %d", year), "Error al obtener estaciones")
}

func pollutantsError(err error) string {
	return describe(err, "No hay contaminantes medidos en este período", "Error al obtener contaminantes")
}

func dataError(err error) string {
	return describe(err, "No hay datos disponibles para esta combinación", "Error al obtener datos históricos")
}

// QualityText is the panel headline for a classification level.
func QualityText(level string) string {
	switch level {
	case airquality.LevelGood:
		return "Calidad del aire: Buena"
	case airquality.LevelModerate:
		return "Calidad del aire: Moderada"
	case airquality.LevelBad:
		return "Calidad del aire: Mala"
	case "":
		return "Sin datos"
	default:
		return airquality.LevelUndefined
	}
}

func exposureLabel(symbol, text string) string {
	return symbol + " - " + text
}
