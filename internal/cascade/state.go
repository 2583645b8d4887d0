package cascade

import "github.com/AirSense/AirSense-Backend/internal/airquality"

// Level is a position in the filter cascade. Resetting a level resets
// every level after it.
type Level int

const (
	LevelMunicipality Level = iota
	LevelYear
	LevelStation
	LevelExposure
	levelCount
)

type SelectorStatus string

const (
	StatusLocked  SelectorStatus = "locked"
	StatusLoading SelectorStatus = "loading"
	StatusReady   SelectorStatus = "ready"
	StatusEmpty   SelectorStatus = "empty"
	StatusError   SelectorStatus = "error"
)

type Option struct {
	Value int64
	Label string
}

// Selector is the state of one drop-down.
type Selector struct {
	Status      SelectorStatus
	Enabled     bool
	Placeholder string
	Options     []Option
	Selected    *int64
}

func (s Selector) has(v int64) bool {
	for _, o := range s.Options {
		if o.Value == v {
			return true
		}
	}
	return false
}

func lockedSelector(placeholder string) Selector {
	return Selector{Status: StatusLocked, Placeholder: placeholder}
}

type LatLng struct {
	Lat float64
	Lng float64
}

type Viewport struct {
	Center LatLng
	Zoom   float64
}

// DefaultViewport frames the whole Valle del Cauca.
var DefaultViewport = Viewport{Center: LatLng{Lat: 4, Lng: -76.55}, Zoom: 8.5}

const (
	DefaultMarkerColor = airquality.ColorUndefined

	zoomMunicipality = 13
	zoomStation      = 14
	zoomCentered     = 15
	zIndexHighlight  = 1000
)

// Marker is a station pin on the map.
type Marker struct {
	StationID    int64
	Name         string
	Type         *string
	Position     LatLng
	Year         int
	Color        string
	Highlighted  bool
	ZIndexOffset int
	PopupOpen    bool
	// Interactive markers drive the station selector when clicked. They
	// are only rendered once a year is chosen.
	Interactive bool
}

type MunicipalityMarker struct {
	MunicipalityID int64
	Name           string
	Position       LatLng
}

type PanelMode string

const (
	PanelOnboarding PanelMode = "onboarding"
	PanelLoading    PanelMode = "loading"
	PanelData       PanelMode = "data"
	PanelError      PanelMode = "error"
)

type Panel struct {
	Mode        PanelMode
	Report      *airquality.HistoricalReport
	QualityText string
	Error       string
	// Reloadable is set on errors; Reload retries the datum fetch.
	Reloadable bool
}

type InfoBox struct {
	Visible      bool
	StationCount int
	AutoSelected bool
}

type Toast struct {
	Text  string
	Error bool
}

// Selection is the current value of each cascade level.
type Selection struct {
	Municipality *int64
	Year         *int
	Station      *int64
	Exposure     *int64
}

// Snapshot is a copy of the controller state. Version increases with
// every change.
type Snapshot struct {
	Version        uint64
	Municipality   Selector
	Year           Selector
	Station        Selector
	Exposure       Selector
	Municipalities []MunicipalityMarker
	Markers        []Marker
	Viewport       Viewport
	InfoBox        InfoBox
	Panel          Panel
	Toast          *Toast
	ClearEnabled   bool
}

func (s Snapshot) Selection() Selection {
	sel := Selection{
		Municipality: copyID(s.Municipality.Selected),
		Station:      copyID(s.Station.Selected),
		Exposure:     copyID(s.Exposure.Selected),
	}
	if s.Year.Selected != nil {
		y := int(*s.Year.Selected)
		sel.Year = &y
	}
	return sel
}

// Marker returns the station marker with the given id.
func (s Snapshot) Marker(stationID int64) (Marker, bool) {
	for _, m := range s.Markers {
		if m.StationID == stationID {
			return m, true
		}
	}
	return Marker{}, false
}

type state struct {
	version        uint64
	selectors      [levelCount]Selector
	municipalities []MunicipalityMarker
	markers        []Marker
	viewport       Viewport
	infoBox        InfoBox
	panel          Panel
	toast          *Toast
}

func newState() *state {
	st := &state{}
	st.selectors[LevelMunicipality] = lockedSelector(placeholderMunicipality)
	st.resetFrom(LevelYear)
	st.viewport = DefaultViewport
	return st
}

// resetFrom locks every selector from level onward and returns the panel
// to onboarding. Markers are left in place but lose their highlight and
// color.
func (st *state) resetFrom(level Level) {
	if level <= LevelYear {
		st.selectors[LevelYear] = lockedSelector(placeholderYearLocked)
	}
	if level <= LevelStation {
		st.selectors[LevelStation] = lockedSelector(placeholderStationLocked)
	}
	if level <= LevelExposure {
		st.selectors[LevelExposure] = lockedSelector(placeholderExposureLocked)
		st.panel = Panel{Mode: PanelOnboarding}
		st.grayMarkers()
	}
}

func (st *state) grayMarkers() {
	for i := range st.markers {
		st.markers[i].Color = DefaultMarkerColor
		st.markers[i].Highlighted = false
		st.markers[i].ZIndexOffset = 0
		st.markers[i].PopupOpen = false
	}
}

func (st *state) clearMarkers() {
	st.markers = nil
	st.infoBox = InfoBox{}
}

func (st *state) marker(stationID int64) *Marker {
	for i := range st.markers {
		if st.markers[i].StationID == stationID {
			return &st.markers[i]
		}
	}
	return nil
}

// showStations replaces the station markers and frames the first one.
func (st *state) showStations(stations []airquality.StationLocation, year int, interactive bool) {
	st.clearMarkers()
	if len(stations) == 0 {
		st.viewport = DefaultViewport
		st.notify(msgNoStations, false)
		return
	}
	selected := st.selectors[LevelStation].Selected
	st.markers = make([]Marker, 0, len(stations))
	for _, s := range stations {
		m := Marker{
			StationID:   s.ID,
			Name:        s.Name,
			Type:        s.Type,
			Position:    LatLng{Lat: s.Latitude, Lng: s.Longitude},
			Year:        year,
			Color:       DefaultMarkerColor,
			Interactive: interactive,
		}
		if selected != nil && *selected == s.ID {
			m.Highlighted = true
		}
		st.markers = append(st.markers, m)
	}
	first := st.markers[0].Position
	st.viewport = Viewport{Center: first, Zoom: zoomMunicipality}
	st.infoBox = InfoBox{
		Visible:      true,
		StationCount: len(stations),
		AutoSelected: year != 0 && len(stations) == 1,
	}
}

func (st *state) notify(text string, isErr bool) {
	st.toast = &Toast{Text: text, Error: isErr}
}

func (st *state) filtersActive() bool {
	for _, s := range st.selectors {
		if s.Selected != nil {
			return true
		}
	}
	return false
}

func (st *state) snapshot() Snapshot {
	s := Snapshot{
		Version:        st.version,
		Municipality:   copySelector(st.selectors[LevelMunicipality]),
		Year:           copySelector(st.selectors[LevelYear]),
		Station:        copySelector(st.selectors[LevelStation]),
		Exposure:       copySelector(st.selectors[LevelExposure]),
		Municipalities: append([]MunicipalityMarker(nil), st.municipalities...),
		Markers:        make([]Marker, len(st.markers)),
		Viewport:       st.viewport,
		InfoBox:        st.infoBox,
		Panel:          st.panel,
		ClearEnabled:   st.filtersActive(),
	}
	for i, m := range st.markers {
		m.Type = copyString(m.Type)
		s.Markers[i] = m
	}
	if st.toast != nil {
		t := *st.toast
		s.Toast = &t
	}
	return s
}

func copySelector(s Selector) Selector {
	s.Options = append([]Option(nil), s.Options...)
	s.Selected = copyID(s.Selected)
	return s
}

func copyID(p *int64) *int64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func copyString(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
