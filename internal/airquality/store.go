package airquality

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/AirSense/AirSense-Backend/internal/db"
	"github.com/AirSense/AirSense-Backend/internal/logging"
	"github.com/AirSense/AirSense-Backend/internal/metrics"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// Store is the read-only query surface behind the HTTP handlers.
type Store interface {
	ListMunicipalities(ctx context.Context) ([]Municipality, error)
	ListStationsByMunicipality(ctx context.Context, municipalityID int64) ([]StationLocation, error)
	ListAvailableYears(ctx context.Context, municipalityID int64) (*AvailableYears, error)
	ListStationsByYear(ctx context.Context, municipalityID int64, year int) ([]StationLocation, error)
	ListPollutants(ctx context.Context, stationID int64, year int) ([]PollutantExposures, error)
	GetHistoricalRecord(ctx context.Context, stationID int64, year int, exposureID int64) (*HistoricalRecord, error)
	ListDictionary(ctx context.Context) ([]DictionaryEntry, error)
	Ping(ctx context.Context) error
}

// GormStore runs portable SQL through GORM so the same queries work on
// PostgreSQL and on the SQLite fixtures used in tests.
type GormStore struct {
	db     *gorm.DB
	schema string
}

func NewStore(gdb *gorm.DB, schema string) *GormStore {
	return &GormStore{db: gdb, schema: schema}
}

func (s *GormStore) t(name string) string {
	return db.Table(s.schema, name)
}

func (s *GormStore) done(ctx context.Context, op string, start time.Time, err error) error {
	if errors.Is(err, ErrNotFound) {
		metrics.ObserveDBQuery(op, start, nil)
		return err
	}
	metrics.ObserveDBQuery(op, start, err)
	if err == nil {
		return nil
	}
	ev := logging.Ctx(ctx).Error().Err(err).Str("operation", op)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		ev = ev.Str("sqlstate", pgErr.Code)
	}
	ev.Msg("store query failed")
	return fmt.Errorf("%w: %s: %w", ErrInternal, op, err)
}

func (s *GormStore) ListMunicipalities(ctx context.Context) (out []Municipality, err error) {
	defer func(start time.Time) { err = s.done(ctx, "list_municipalities", start, err) }(time.Now())

	out = []Municipality{}
	err = s.db.WithContext(ctx).
		Table(s.t("municipios")).
		Order("nombre_municipio").
		Find(&out).Error
	return out, err
}

func (s *GormStore) ListStationsByMunicipality(ctx context.Context, municipalityID int64) (out []StationLocation, err error) {
	defer func(start time.Time) { err = s.done(ctx, "list_stations", start, err) }(time.Now())

	q := fmt.Sprintf(`
		SELECT e.id_estacion, e.nombre_estacion, e.tipo_estacion,
		       u.id_ubicacion, u.latitud, u.longitud, u.anio
		FROM %[1]s e
		JOIN %[2]s u ON u.id_estacion = e.id_estacion
		WHERE e.id_municipio = ?
		  AND u.anio = (
		    SELECT MAX(u2.anio) FROM %[2]s u2 WHERE u2.id_estacion = e.id_estacion
		  )
		ORDER BY e.nombre_estacion, e.id_estacion`,
		s.t("estaciones"), s.t("ubicaciones_estaciones"))

	out = []StationLocation{}
	err = s.db.WithContext(ctx).Raw(q, municipalityID).Scan(&out).Error
	return out, err
}

func (s *GormStore) ListAvailableYears(ctx context.Context, municipalityID int64) (out *AvailableYears, err error) {
	defer func(start time.Time) { err = s.done(ctx, "list_years", start, err) }(time.Now())

	q := fmt.Sprintf(`
		SELECT DISTINCT m.nombre_municipio, d.anio
		FROM %[1]s m
		JOIN %[2]s e ON e.id_municipio = m.id_municipio
		JOIN %[3]s d ON d.id_estacion = e.id_estacion
		WHERE m.id_municipio = ?
		ORDER BY d.anio`,
		s.t("municipios"), s.t("estaciones"), s.t("datos_historicos"))

	rows, err := s.db.WithContext(ctx).Raw(q, municipalityID).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	res := &AvailableYears{Years: []int{}}
	for rows.Next() {
		var (
			name string
			year int
		)
		if err := rows.Scan(&name, &year); err != nil {
			return nil, fmt.Errorf("scan year: %w", err)
		}
		res.Municipality = name
		res.Years = append(res.Years, year)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(res.Years) == 0 {
		return nil, ErrNotFound
	}
	return res, nil
}

// ListStationsByYear returns stations with at least one datum in year,
// each placed at its latest location recorded at or before that year.
func (s *GormStore) ListStationsByYear(ctx context.Context, municipalityID int64, year int) (out []StationLocation, err error) {
	defer func(start time.Time) { err = s.done(ctx, "list_stations_by_year", start, err) }(time.Now())

	q := fmt.Sprintf(`
		SELECT e.id_estacion, e.nombre_estacion, e.tipo_estacion,
		       u.id_ubicacion, u.latitud, u.longitud, u.anio
		FROM %[1]s e
		JOIN %[2]s u ON u.id_estacion = e.id_estacion
		WHERE e.id_municipio = ?
		  AND u.anio = (
		    SELECT MAX(u2.anio) FROM %[2]s u2
		    WHERE u2.id_estacion = e.id_estacion AND u2.anio <= ?
		  )
		  AND EXISTS (
		    SELECT 1 FROM %[3]s d WHERE d.id_estacion = e.id_estacion AND d.anio = ?
		  )
		ORDER BY e.nombre_estacion, e.id_estacion`,
		s.t("estaciones"), s.t("ubicaciones_estaciones"), s.t("datos_historicos"))

	out = []StationLocation{}
	err = s.db.WithContext(ctx).Raw(q, municipalityID, year, year).Scan(&out).Error
	return out, err
}

func (s *GormStore) ListPollutants(ctx context.Context, stationID int64, year int) (out []PollutantExposures, err error) {
	defer func(start time.Time) { err = s.done(ctx, "list_pollutants", start, err) }(time.Now())

	q := fmt.Sprintf(`
		SELECT DISTINCT c.simbolo, c.nombre, c.unidades,
		       x.id_exposicion, x.tiempo_texto, x.tiempo_horas
		FROM %[1]s d
		JOIN %[2]s x ON x.id_exposicion = d.id_exposicion
		JOIN %[3]s c ON c.id_contaminante = x.id_contaminante
		WHERE d.id_estacion = ? AND d.anio = ?
		ORDER BY c.simbolo, x.tiempo_horas, x.id_exposicion`,
		s.t("datos_historicos"), s.t("exposiciones"), s.t("contaminantes"))

	rows, err := s.db.WithContext(ctx).Raw(q, stationID, year).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out = []PollutantExposures{}
	index := map[string]int{}
	for rows.Next() {
		var (
			p  PollutantExposures
			ex ExposureTime
		)
		if err := rows.Scan(&p.Symbol, &p.Name, &p.Units, &ex.ID, &ex.Text, &ex.Hours); err != nil {
			return nil, fmt.Errorf("scan pollutant: %w", err)
		}
		i, ok := index[p.Symbol]
		if !ok {
			i = len(out)
			index[p.Symbol] = i
			out = append(out, p)
		}
		out[i].Exposures = append(out[i].Exposures, ex)
	}
	return out, rows.Err()
}

func (s *GormStore) GetHistoricalRecord(ctx context.Context, stationID int64, year int, exposureID int64) (out *HistoricalRecord, err error) {
	defer func(start time.Time) { err = s.done(ctx, "get_historical_record", start, err) }(time.Now())

	q := fmt.Sprintf(`
		SELECT e.id_estacion, e.nombre_estacion, d.anio,
		       c.simbolo, c.nombre, c.unidades,
		       x.id_exposicion, x.tiempo_texto, x.tiempo_horas,
		       d.promedio, d.maximo, d.minimo, d.mediana, d.percentil_98, d.fecha_hora_maximo,
		       d.excedencias_limite_actual, d.porcentaje_excedencias, d.representatividad_temporal
		FROM %[1]s d
		JOIN %[2]s e ON e.id_estacion = d.id_estacion
		JOIN %[3]s x ON x.id_exposicion = d.id_exposicion
		JOIN %[4]s c ON c.id_contaminante = x.id_contaminante
		WHERE d.id_estacion = ? AND d.anio = ? AND d.id_exposicion = ?
		ORDER BY d.id_dato
		LIMIT 1`,
		s.t("datos_historicos"), s.t("estaciones"), s.t("exposiciones"), s.t("contaminantes"))

	var rec HistoricalRecord
	res := s.db.WithContext(ctx).Raw(q, stationID, year, exposureID).Scan(&rec)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return &rec, nil
}

func (s *GormStore) ListDictionary(ctx context.Context) (out []DictionaryEntry, err error) {
	defer func(start time.Time) { err = s.done(ctx, "list_dictionary", start, err) }(time.Now())

	out = []DictionaryEntry{}
	err = s.db.WithContext(ctx).
		Table(s.t("contaminantes")).
		Select("simbolo, nombre, color_hex, que_es, causas, consecuencias").
		Order("simbolo").
		Scan(&out).Error
	return out, err
}

// Ping runs SELECT 1 on a pooled connection.
func (s *GormStore) Ping(ctx context.Context) (err error) {
	defer func(start time.Time) { err = s.done(ctx, "ping", start, err) }(time.Now())

	var one int
	return s.db.WithContext(ctx).Raw("SELECT 1").Scan(&one).Error
}
