package airquality_test

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/AirSense/AirSense-Backend/internal/airquality"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func strp(s string) *string { return &s }

// newTestStore builds an in-memory SQLite copy of the dataset schema.
// Cali (5) has three stations; Base Aérea only gets a location in 2020
// although it reports data for 2019.
func newTestStore(t *testing.T) *airquality.GormStore {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatal(err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := gdb.AutoMigrate(
		&airquality.Municipality{},
		&airquality.Station{},
		&airquality.Location{},
		&airquality.Pollutant{},
		&airquality.Exposure{},
		&airquality.Measurement{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	maxAt := time.Date(2019, 3, 14, 9, 0, 0, 0, time.UTC)
	exceed := int64(12)
	seed := []any{
		&[]airquality.Municipality{
			{ID: 5, Name: "Cali", Latitude: 3.45, Longitude: -76.53},
			{ID: 7, Name: "Buga", Latitude: 3.9, Longitude: -76.3},
			{ID: 9, Name: "Palmira", Latitude: 3.53, Longitude: -76.3},
		},
		&[]airquality.Station{
			{ID: 101, Name: "Univalle", MunicipalityID: 5, Type: strp("Urbana")},
			{ID: 102, Name: "Compartir", MunicipalityID: 5},
			{ID: 103, Name: "Base Aérea", MunicipalityID: 5, Type: strp("Suburbana")},
			{ID: 201, Name: "Palmira Centro", MunicipalityID: 9},
		},
		&[]airquality.Location{
			{ID: 1, StationID: 101, Year: 2012, Latitude: 3.37, Longitude: -76.53},
			{ID: 2, StationID: 101, Year: 2018, Latitude: 3.38, Longitude: -76.54},
			{ID: 3, StationID: 102, Year: 2015, Latitude: 3.42, Longitude: -76.50},
			{ID: 4, StationID: 103, Year: 2020, Latitude: 3.46, Longitude: -76.38},
			{ID: 5, StationID: 201, Year: 2014, Latitude: 3.53, Longitude: -76.30},
		},
		&[]airquality.Pollutant{
			{ID: 1, Symbol: "PM2.5", Name: "Material particulado fino", Units: "µg/m³", Color: strp("#7E57C2"), WhatIs: strp("Partículas de menos de 2,5 µm")},
			{ID: 2, Symbol: "O3", Name: "Ozono", Units: "µg/m³"},
		},
		&[]airquality.Exposure{
			{ID: 4, PollutantID: 1, Hours: 24, Text: "24 horas"},
			{ID: 5, PollutantID: 1, Hours: 8760, Text: "Anual"},
			{ID: 6, PollutantID: 2, Hours: 8, Text: "8 horas"},
		},
		&[]airquality.Measurement{
			{ID: 1, StationID: 101, Year: 2015, ExposureID: 4, Mean: f64(18.1)},
			{ID: 2, StationID: 101, Year: 2019, ExposureID: 4, Mean: f64(22.4), Max: f64(61), Min: f64(4.2),
				Median: f64(20.9), Percentile98: f64(48.3), MaxAt: &maxAt, Exceedances: &exceed,
				ExceedancePercentage: f64(3.4), TemporalCoverage: f64(87.5)},
			{ID: 3, StationID: 101, Year: 2019, ExposureID: 5, Mean: f64(19)},
			{ID: 4, StationID: 101, Year: 2019, ExposureID: 6, Mean: f64(40)},
			{ID: 5, StationID: 102, Year: 2016, ExposureID: 4, Mean: f64(12)},
			{ID: 6, StationID: 103, Year: 2019, ExposureID: 4, Mean: f64(30)},
			{ID: 7, StationID: 201, Year: 2019, ExposureID: 4, Mean: f64(14)},
			{ID: 8, StationID: 101, Year: 2020, ExposureID: 4, Mean: f64(16)},
		},
	}
	for _, rows := range seed {
		if err := gdb.Create(rows).Error; err != nil {
			t.Fatalf("seed %T: %v", rows, err)
		}
	}
	return airquality.NewStore(gdb, "")
}

func stationNames(ss []airquality.StationLocation) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = s.Name
	}
	return out
}

func TestStore_ListMunicipalities(t *testing.T) {
	store := newTestStore(t)

	got, err := store.ListMunicipalities(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, m := range got {
		names = append(names, m.Name)
	}
	if want := []string{"Buga", "Cali", "Palmira"}; !reflect.DeepEqual(names, want) {
		t.Errorf("expected %v, got %v", want, names)
	}
}

func TestStore_StationsByMunicipalityUseLatestLocation(t *testing.T) {
	store := newTestStore(t)

	got, err := store.ListStationsByMunicipality(context.Background(), 5)
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"Base Aérea", "Compartir", "Univalle"}; !reflect.DeepEqual(stationNames(got), want) {
		t.Fatalf("expected %v, got %v", want, stationNames(got))
	}
	univalle := got[2]
	if univalle.Year != 2018 || univalle.LocationID != 2 {
		t.Errorf("expected latest location (2018, id 2), got (%d, id %d)", univalle.Year, univalle.LocationID)
	}
	if univalle.Type == nil || *univalle.Type != "Urbana" {
		t.Errorf("expected tipo_estacion Urbana, got %v", univalle.Type)
	}
	if got[1].Type != nil {
		t.Errorf("expected nil tipo_estacion for Compartir, got %v", *got[1].Type)
	}

	none, err := store.ListStationsByMunicipality(context.Background(), 7)
	if err != nil {
		t.Fatal(err)
	}
	if len(none) != 0 {
		t.Errorf("expected no stations for Buga, got %v", stationNames(none))
	}
}

func TestStore_ListAvailableYears(t *testing.T) {
	store := newTestStore(t)

	got, err := store.ListAvailableYears(context.Background(), 5)
	if err != nil {
		t.Fatal(err)
	}
	if got.Municipality != "Cali" {
		t.Errorf("expected Cali, got %q", got.Municipality)
	}
	if want := []int{2015, 2016, 2019, 2020}; !reflect.DeepEqual(got.Years, want) {
		t.Errorf("expected %v, got %v", want, got.Years)
	}

	if _, err := store.ListAvailableYears(context.Background(), 7); !errors.Is(err, airquality.ErrNotFound) {
		t.Errorf("expected ErrNotFound for a municipality without data, got %v", err)
	}
}

func TestStore_StationsByYear(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	tests := []struct {
		year      int
		wantNames []string
		wantLocs  []int64
	}{
		{2015, []string{"Univalle"}, []int64{1}},
		{2016, []string{"Compartir"}, []int64{3}},
		// Base Aérea has 2019 data but no location at or before 2019.
		{2019, []string{"Univalle"}, []int64{2}},
		{2020, []string{"Univalle"}, []int64{2}},
		{2012, []string{}, []int64{}},
	}
	for _, tt := range tests {
		got, err := store.ListStationsByYear(ctx, 5, tt.year)
		if err != nil {
			t.Fatalf("%d: %v", tt.year, err)
		}
		locs := []int64{}
		for _, s := range got {
			locs = append(locs, s.LocationID)
		}
		if !reflect.DeepEqual(stationNames(got), tt.wantNames) || !reflect.DeepEqual(locs, tt.wantLocs) {
			t.Errorf("%d: expected %v %v, got %v %v", tt.year, tt.wantNames, tt.wantLocs, stationNames(got), locs)
		}
	}
}

func TestStore_ListPollutantsGroupsExposures(t *testing.T) {
	store := newTestStore(t)

	got, err := store.ListPollutants(context.Background(), 101, 2019)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].Symbol != "O3" || got[1].Symbol != "PM2.5" {
		t.Fatalf("expected O3 and PM2.5, got %+v", got)
	}
	pm := got[1].Exposures
	if len(pm) != 2 || pm[0].Hours != 24 || pm[1].Hours != 8760 || pm[0].ID != 4 {
		t.Errorf("expected PM2.5 exposures ordered by hours, got %+v", pm)
	}

	empty, err := store.ListPollutants(context.Background(), 101, 2011)
	if err != nil {
		t.Fatal(err)
	}
	if len(empty) != 0 {
		t.Errorf("expected no pollutants, got %+v", empty)
	}
}

func TestStore_GetHistoricalRecordIsIdempotent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first, err := store.GetHistoricalRecord(ctx, 101, 2019, 4)
	if err != nil {
		t.Fatal(err)
	}
	second, err := store.GetHistoricalRecord(ctx, 101, 2019, 4)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("repeated reads differ:\n%+v\n%+v", first, second)
	}

	if first.StationName != "Univalle" || first.Symbol != "PM2.5" || first.ExposureHours != 24 {
		t.Errorf("unexpected identity fields: %+v", first)
	}
	if first.Mean == nil || *first.Mean != 22.4 || first.Exceedances == nil || *first.Exceedances != 12 {
		t.Errorf("unexpected statistics: %+v", first)
	}
	if first.MaxAt == nil || first.MaxAt.Year() != 2019 || first.MaxAt.Month() != time.March {
		t.Errorf("unexpected fecha_hora_maximo: %v", first.MaxAt)
	}
}

func TestStore_GetHistoricalRecordNotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.GetHistoricalRecord(context.Background(), 8986, 2015, 4)
	if !errors.Is(err, airquality.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_DictionaryAndPing(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	dict, err := store.ListDictionary(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(dict) != 2 || dict[0].Symbol != "O3" || dict[1].Symbol != "PM2.5" {
		t.Fatalf("unexpected dictionary: %+v", dict)
	}
	if dict[1].Color == nil || *dict[1].Color != "#7E57C2" || dict[0].Color != nil {
		t.Errorf("unexpected colors: %+v", dict)
	}

	if err := store.Ping(ctx); err != nil {
		t.Errorf("Ping() error = %v", err)
	}
}

func TestStore_QueryErrorIsInternal(t *testing.T) {
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatal(err)
	}
	store := airquality.NewStore(gdb, "")

	_, err = store.ListMunicipalities(context.Background())
	if !errors.Is(err, airquality.ErrInternal) {
		t.Errorf("expected ErrInternal for a missing table, got %v", err)
	}
}
