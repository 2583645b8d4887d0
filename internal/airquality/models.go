package airquality

import "time"

// Table models mirror the existing read-only schema. They are used for
// GORM queries and for building fixtures in tests; the API never migrates.

type Municipality struct {
	ID        int64   `gorm:"column:id_municipio;primaryKey" json:"id_municipio"`
	Name      string  `gorm:"column:nombre_municipio;not null" json:"nombre_municipio"`
	Latitude  float64 `gorm:"column:latitud" json:"latitud"`
	Longitude float64 `gorm:"column:longitud" json:"longitud"`
}

func (Municipality) TableName() string { return "municipios" }

type Station struct {
	ID             int64   `gorm:"column:id_estacion;primaryKey"`
	Name           string  `gorm:"column:nombre_estacion;not null"`
	MunicipalityID int64   `gorm:"column:id_municipio;index"`
	Type           *string `gorm:"column:tipo_estacion"`
}

func (Station) TableName() string { return "estaciones" }

// Location is a station's coordinates as recorded for a given year.
type Location struct {
	ID        int64   `gorm:"column:id_ubicacion;primaryKey"`
	StationID int64   `gorm:"column:id_estacion;index"`
	Year      int     `gorm:"column:anio"`
	Latitude  float64 `gorm:"column:latitud"`
	Longitude float64 `gorm:"column:longitud"`
}

func (Location) TableName() string { return "ubicaciones_estaciones" }

type Pollutant struct {
	ID           int64   `gorm:"column:id_contaminante;primaryKey"`
	Symbol       string  `gorm:"column:simbolo;not null"`
	Name         string  `gorm:"column:nombre"`
	Units        string  `gorm:"column:unidades"`
	Color        *string `gorm:"column:color_hex"`
	WhatIs       *string `gorm:"column:que_es"`
	Causes       *string `gorm:"column:causas"`
	Consequences *string `gorm:"column:consecuencias"`
}

func (Pollutant) TableName() string { return "contaminantes" }

type Exposure struct {
	ID          int64  `gorm:"column:id_exposicion;primaryKey"`
	PollutantID int64  `gorm:"column:id_contaminante;index"`
	Hours       int    `gorm:"column:tiempo_horas"`
	Text        string `gorm:"column:tiempo_texto"`
}

func (Exposure) TableName() string { return "exposiciones" }

// Measurement is one row of yearly statistics for (station, year, exposure).
type Measurement struct {
	ID                   int64      `gorm:"column:id_dato;primaryKey"`
	StationID            int64      `gorm:"column:id_estacion;index"`
	Year                 int        `gorm:"column:anio;index"`
	ExposureID           int64      `gorm:"column:id_exposicion"`
	Mean                 *float64   `gorm:"column:promedio"`
	Max                  *float64   `gorm:"column:maximo"`
	Min                  *float64   `gorm:"column:minimo"`
	Median               *float64   `gorm:"column:mediana"`
	Percentile98         *float64   `gorm:"column:percentil_98"`
	MaxAt                *time.Time `gorm:"column:fecha_hora_maximo"`
	Exceedances          *int64     `gorm:"column:excedencias_limite_actual"`
	ExceedancePercentage *float64   `gorm:"column:porcentaje_excedencias"`
	TemporalCoverage     *float64   `gorm:"column:representatividad_temporal"`
}

func (Measurement) TableName() string { return "datos_historicos" }

// Response shapes.

// StationLocation is a station joined with the location row chosen for a
// listing: the latest overall, or the latest at or before a queried year.
type StationLocation struct {
	ID         int64   `gorm:"column:id_estacion" json:"id_estacion"`
	Name       string  `gorm:"column:nombre_estacion" json:"nombre_estacion"`
	Type       *string `gorm:"column:tipo_estacion" json:"tipo_estacion"`
	LocationID int64   `gorm:"column:id_ubicacion" json:"id_ubicacion"`
	Latitude   float64 `gorm:"column:latitud" json:"latitud"`
	Longitude  float64 `gorm:"column:longitud" json:"longitud"`
	Year       int     `gorm:"column:anio" json:"anio"`
}

type AvailableYears struct {
	Municipality string `json:"municipio"`
	Years        []int  `json:"anios_disponibles"`
}

type StationsByYear struct {
	MunicipalityID int64             `json:"municipio_id"`
	Year           int               `json:"anio_consultado"`
	Total          int               `json:"total_estaciones"`
	Stations       []StationLocation `json:"estaciones"`
}

type ExposureTime struct {
	ID    int64  `json:"id_exposicion"`
	Text  string `json:"tiempo_texto"`
	Hours int    `json:"tiempo_horas"`
}

type PollutantExposures struct {
	Symbol    string         `json:"simbolo"`
	Name      string         `json:"nombre"`
	Units     string         `json:"unidades"`
	Exposures []ExposureTime `json:"tiempos_exposicion"`
}

type PollutantsByYear struct {
	StationID  int64                `json:"estacion_id"`
	Year       int                  `json:"anio_consultado"`
	Total      int                  `json:"total_contaminantes"`
	Pollutants []PollutantExposures `json:"contaminantes"`
}

// HistoricalRecord is the flat join behind /api/datos.
type HistoricalRecord struct {
	StationID            int64      `gorm:"column:id_estacion"`
	StationName          string     `gorm:"column:nombre_estacion"`
	Year                 int        `gorm:"column:anio"`
	Symbol               string     `gorm:"column:simbolo"`
	PollutantName        string     `gorm:"column:nombre"`
	Units                string     `gorm:"column:unidades"`
	ExposureID           int64      `gorm:"column:id_exposicion"`
	ExposureText         string     `gorm:"column:tiempo_texto"`
	ExposureHours        int        `gorm:"column:tiempo_horas"`
	Mean                 *float64   `gorm:"column:promedio"`
	Max                  *float64   `gorm:"column:maximo"`
	Min                  *float64   `gorm:"column:minimo"`
	Median               *float64   `gorm:"column:mediana"`
	Percentile98         *float64   `gorm:"column:percentil_98"`
	MaxAt                *time.Time `gorm:"column:fecha_hora_maximo"`
	Exceedances          *int64     `gorm:"column:excedencias_limite_actual"`
	ExceedancePercentage *float64   `gorm:"column:porcentaje_excedencias"`
	TemporalCoverage     *float64   `gorm:"column:representatividad_temporal"`
}

type HistoricalReport struct {
	Station        StationRef     `json:"estacion"`
	Year           int            `json:"anio"`
	Pollutant      PollutantRef   `json:"contaminante"`
	Statistics     Statistics     `json:"estadisticas"`
	Exceedances    Exceedances    `json:"excedencias"`
	DataQuality    DataQuality    `json:"calidad_datos"`
	Classification Classification `json:"clasificacion"`
}

type StationRef struct {
	ID   int64  `json:"id_estacion"`
	Name string `json:"nombre_estacion"`
}

type PollutantRef struct {
	Symbol   string      `json:"simbolo"`
	Name     string      `json:"nombre"`
	Units    string      `json:"unidades"`
	Exposure ExposureRef `json:"tiempo_exposicion"`
}

type ExposureRef struct {
	ID    int64  `json:"id_exposicion"`
	Text  string `json:"texto"`
	Hours int    `json:"horas"`
}

type Statistics struct {
	Mean         *float64   `json:"promedio"`
	Max          *float64   `json:"maximo"`
	Min          *float64   `json:"minimo"`
	Median       *float64   `json:"mediana"`
	Percentile98 *float64   `json:"percentil_98"`
	MaxAt        *time.Time `json:"fecha_hora_maximo"`
}

type Exceedances struct {
	Count      *int64   `json:"excedencias_limite_actual"`
	Percentage *float64 `json:"porcentaje_excedencias"`
}

type DataQuality struct {
	TemporalCoverage *float64 `json:"representatividad_temporal"`
}

type Classification struct {
	Level       string     `json:"nivel"`
	Color       string     `json:"color"`
	Description string     `json:"descripcion"`
	Limits      *LimitInfo `json:"limites_oms,omitempty"`
}

type LimitInfo struct {
	Hours    int     `json:"tiempo_horas"`
	Good     float64 `json:"buena"`
	Moderate float64 `json:"regular"`
	Source   string  `json:"fuente"`
}

// DictionaryEntry is one pollutant's reference text for /api/diccionario.
type DictionaryEntry struct {
	Symbol       string  `gorm:"column:simbolo" json:"simbolo"`
	Name         string  `gorm:"column:nombre" json:"nombre"`
	Color        *string `gorm:"column:color_hex" json:"color_hex"`
	WhatIs       *string `gorm:"column:que_es" json:"que_es"`
	Causes       *string `gorm:"column:causas" json:"causas"`
	Consequences *string `gorm:"column:consecuencias" json:"consecuencias"`
}
