// Package cascade drives the municipality, year, station and exposure
// filters of the air-quality map. It owns the selection state, issues the
// API requests each selection needs and reports every change to a
// Renderer as a Snapshot.
package cascade

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/AirSense/AirSense-Backend/internal/airquality"
	"github.com/AirSense/AirSense-Backend/internal/logging"
)

// Fetcher is the part of the query API the controller needs.
// *client.Client satisfies it.
type Fetcher interface {
	Municipalities(ctx context.Context) ([]airquality.Municipality, error)
	Stations(ctx context.Context, municipalityID int64) ([]airquality.StationLocation, error)
	Years(ctx context.Context, municipalityID int64) (*airquality.AvailableYears, error)
	StationsByYear(ctx context.Context, municipalityID int64, year int) (*airquality.StationsByYear, error)
	Pollutants(ctx context.Context, stationID int64, year int) (*airquality.PollutantsByYear, error)
	HistoricalData(ctx context.Context, stationID int64, year int, exposureID int64) (*airquality.HistoricalReport, error)
}

// Renderer receives every published Snapshot. Render may call back into
// the controller; snapshots published meanwhile are delivered after it
// returns.
type Renderer interface {
	Render(Snapshot)
}

type RendererFunc func(Snapshot)

func (f RendererFunc) Render(s Snapshot) { f(s) }

const DefaultAutoSelectDelay = 500 * time.Millisecond

type ControllerOption func(*Controller)

// WithAutoSelectDelay sets how long the controller waits before selecting
// the only station operative in a year.
func WithAutoSelectDelay(d time.Duration) ControllerOption {
	return func(c *Controller) { c.autoSelectDelay = d }
}

// Controller is safe for concurrent use. Fetches run in their own
// goroutines and a completion is applied only if no selection at or above
// its level happened since it was issued.
type Controller struct {
	fetcher         Fetcher
	renderer        Renderer
	autoSelectDelay time.Duration

	mu      sync.Mutex
	st      *state
	gen     [levelCount]uint64
	ctx     [levelCount]context.Context
	cancel  [levelCount]context.CancelFunc
	listGen uint64
	closed  bool

	root       context.Context
	rootCancel context.CancelFunc
	wg         sync.WaitGroup

	renderMu  sync.Mutex
	rendering bool
	pending   *Snapshot
	rendered  uint64
}

type token struct {
	level Level
	gen   uint64
	ctx   context.Context
}

func New(fetcher Fetcher, renderer Renderer, opts ...ControllerOption) *Controller {
	c := &Controller{
		fetcher:         fetcher,
		renderer:        renderer,
		autoSelectDelay: DefaultAutoSelectDelay,
		st:              newState(),
	}
	c.root, c.rootCancel = context.WithCancel(context.Background())
	for l := range c.ctx {
		c.ctx[l], c.cancel[l] = context.WithCancel(c.root)
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start loads the municipality list.
func (c *Controller) Start() {
	c.update(func(st *state) bool {
		c.listGen++
		gen := c.listGen
		st.selectors[LevelMunicipality].Status = StatusLoading
		st.notify(msgLoadingMunicipalities, false)
		c.spawn(func() {
			list, err := c.fetcher.Municipalities(c.root)
			c.update(func(st *state) bool {
				if c.closed || gen != c.listGen {
					return false
				}
				sel := &st.selectors[LevelMunicipality]
				if err != nil {
					logging.Warn().Err(err).Msg("load municipalities")
					sel.Status = StatusError
					sel.Enabled = false
					sel.Placeholder = placeholderMunicipalityFailed
					st.notify(msgServerDown, true)
					return true
				}
				sel.Options = make([]Option, 0, len(list))
				st.municipalities = make([]MunicipalityMarker, 0, len(list))
				for _, m := range list {
					sel.Options = append(sel.Options, Option{Value: m.ID, Label: m.Name})
					if m.Latitude != 0 && m.Longitude != 0 {
						st.municipalities = append(st.municipalities, MunicipalityMarker{
							MunicipalityID: m.ID,
							Name:           m.Name,
							Position:       LatLng{Lat: m.Latitude, Lng: m.Longitude},
						})
					}
				}
				sel.Status = readyOrEmpty(len(sel.Options))
				sel.Enabled = true
				sel.Placeholder = placeholderMunicipality
				st.toast = nil
				return true
			})
		})
		return true
	})
}

// SelectMunicipality resets the cascade and loads the years and stations
// of the municipality. A nil id returns to the regional overview.
func (c *Controller) SelectMunicipality(id *int64) {
	c.update(func(st *state) bool {
		sel := &st.selectors[LevelMunicipality]
		if id != nil && len(sel.Options) > 0 && !sel.has(*id) {
			return false
		}
		c.bump(LevelMunicipality)
		st.resetFrom(LevelYear)
		st.clearMarkers()
		sel.Selected = copyID(id)

		if id == nil {
			st.viewport = DefaultViewport
			st.notify(msgOverview, false)
			return true
		}
		logging.Debug().Int64("municipio", *id).Msg("municipality selected")

		st.selectors[LevelYear].Status = StatusLoading
		st.selectors[LevelYear].Placeholder = placeholderLoading
		st.notify(msgLoadingYears, false)
		c.fetchYears(*id)
		c.fetchStations(*id)
		return true
	})
}

// MunicipalityMarkerClicked selects the municipality behind a map marker.
func (c *Controller) MunicipalityMarkerClicked(id int64) {
	c.SelectMunicipality(&id)
}

// SelectYear resets station and exposure. With a year the markers are
// replaced by the stations operative that year; without one the
// municipality's stations are shown again.
func (c *Controller) SelectYear(year *int) {
	c.update(func(st *state) bool {
		muni := st.selectors[LevelMunicipality].Selected
		if muni == nil {
			return false
		}
		sel := &st.selectors[LevelYear]
		if year != nil && !sel.has(int64(*year)) {
			return false
		}
		c.bump(LevelYear)
		st.resetFrom(LevelStation)

		if year == nil {
			sel.Selected = nil
			st.notify(msgLoadingStations, false)
			c.fetchStations(*muni)
			return true
		}
		y := int64(*year)
		sel.Selected = &y
		logging.Debug().Int64("municipio", *muni).Int("anio", *year).Msg("year selected")

		st.selectors[LevelStation].Status = StatusLoading
		st.selectors[LevelStation].Placeholder = placeholderLoading
		st.notify(msgLoadingStationsYear(*year), false)
		c.fetchStationsByYear(*muni, *year)
		return true
	})
}

// OnStationSelected is the single entry point for station changes, from
// the selector or from a marker.
func (c *Controller) OnStationSelected(id *int64) {
	c.update(func(st *state) bool {
		return c.applyStation(st, id)
	})
}

// MarkerClicked selects the station behind an interactive marker. Clicks
// on markers rendered before a year was chosen are ignored.
func (c *Controller) MarkerClicked(stationID int64) {
	c.update(func(st *state) bool {
		m := st.marker(stationID)
		if m == nil || !m.Interactive {
			return false
		}
		return c.applyStation(st, &stationID)
	})
}

// SelectExposure loads the yearly statistics for the chosen exposure. A
// nil id returns the panel to onboarding.
func (c *Controller) SelectExposure(id *int64) {
	c.update(func(st *state) bool {
		station := st.selectors[LevelStation].Selected
		if station == nil {
			return false
		}
		sel := &st.selectors[LevelExposure]
		if id != nil && !sel.has(*id) {
			return false
		}
		c.bump(LevelExposure)
		sel.Selected = copyID(id)
		if id == nil {
			st.panel = Panel{Mode: PanelOnboarding}
			if m := st.marker(*station); m != nil {
				m.Color = DefaultMarkerColor
			}
			return true
		}
		c.fetchData(st)
		return true
	})
}

// Reload repeats the datum fetch for the current selection.
func (c *Controller) Reload() {
	c.update(func(st *state) bool {
		if st.selectors[LevelExposure].Selected == nil {
			return false
		}
		c.bump(LevelExposure)
		c.fetchData(st)
		return true
	})
}

// ClearFilters clears every selection and returns the map to the regional
// overview. It does nothing when no filter is set.
func (c *Controller) ClearFilters() {
	c.update(func(st *state) bool {
		if !st.filtersActive() {
			return false
		}
		c.bump(LevelMunicipality)
		st.selectors[LevelMunicipality].Selected = nil
		st.resetFrom(LevelYear)
		st.clearMarkers()
		st.viewport = DefaultViewport
		st.notify(msgFiltersCleared, false)
		return true
	})
}

// CenterOnStation zooms onto a station marker of the year view.
func (c *Controller) CenterOnStation(stationID int64) {
	c.update(func(st *state) bool {
		m := st.marker(stationID)
		if m == nil || m.Year == 0 {
			return false
		}
		st.viewport = Viewport{Center: m.Position, Zoom: zoomCentered}
		m.PopupOpen = false
		st.notify(msgCentered, false)
		return true
	})
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.st.snapshot()
}

// Wait blocks until every fetch and pending auto-selection has finished.
func (c *Controller) Wait() {
	c.wg.Wait()
}

// Close cancels in-flight fetches and waits for them. Later completions
// and selections are ignored.
func (c *Controller) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	c.rootCancel()
	c.wg.Wait()
}

// applyStation must be called with c.mu held.
func (c *Controller) applyStation(st *state, id *int64) bool {
	year := st.selectors[LevelYear].Selected
	if year == nil {
		return false
	}
	sel := &st.selectors[LevelStation]
	if id != nil && !sel.has(*id) {
		return false
	}
	c.bump(LevelStation)
	st.resetFrom(LevelExposure)
	sel.Selected = copyID(id)
	if id == nil {
		return true
	}

	if m := st.marker(*id); m != nil {
		m.Highlighted = true
		m.ZIndexOffset = zIndexHighlight
		m.PopupOpen = true
		st.viewport = Viewport{Center: m.Position, Zoom: zoomStation}
	}
	logging.Debug().Int64("estacion", *id).Int64("anio", *year).Msg("station selected")

	st.selectors[LevelExposure].Status = StatusLoading
	st.selectors[LevelExposure].Placeholder = placeholderLoading
	st.notify(msgLoadingPollutants, false)
	c.fetchPollutants(*id, int(*year))
	return true
}

func (c *Controller) fetchYears(municipalityID int64) {
	tok := c.token(LevelMunicipality)
	c.spawn(func() {
		res, err := c.fetcher.Years(tok.ctx, municipalityID)
		c.apply(tok, func(st *state) {
			sel := &st.selectors[LevelYear]
			if err != nil {
				logging.Warn().Err(err).Int64("municipio", municipalityID).Msg("load years")
				msg := yearsError(err)
				*sel = Selector{Status: StatusError, Placeholder: msg}
				st.notify(failure(msg), true)
				return
			}
			sel.Options = make([]Option, 0, len(res.Years))
			for _, y := range res.Years {
				sel.Options = append(sel.Options, Option{Value: int64(y), Label: strconv.Itoa(y)})
			}
			sel.Status = readyOrEmpty(len(sel.Options))
			sel.Enabled = true
			sel.Placeholder = placeholderYear
			st.notify(msgYearsFound(len(res.Years), res.Municipality), false)
		})
	})
}

// fetchStations loads the municipality's stations at their latest
// location. It is scoped to the year level so picking a year supersedes it.
func (c *Controller) fetchStations(municipalityID int64) {
	tok := c.token(LevelYear)
	c.spawn(func() {
		stations, err := c.fetcher.Stations(tok.ctx, municipalityID)
		c.apply(tok, func(st *state) {
			if err != nil {
				logging.Warn().Err(err).Int64("municipio", municipalityID).Msg("load stations")
				st.notify(msgStationsFailed, true)
				return
			}
			st.showStations(stations, 0, false)
			if len(stations) > 0 {
				st.notify(msgStationsFound(len(stations)), false)
			}
		})
	})
}

func (c *Controller) fetchStationsByYear(municipalityID int64, year int) {
	tok := c.token(LevelYear)
	c.spawn(func() {
		res, err := c.fetcher.StationsByYear(tok.ctx, municipalityID, year)
		c.apply(tok, func(st *state) {
			sel := &st.selectors[LevelStation]
			if err != nil {
				logging.Warn().Err(err).Int64("municipio", municipalityID).Int("anio", year).Msg("load stations by year")
				msg := stationsByYearError(err, year)
				*sel = Selector{Status: StatusError, Placeholder: msg}
				st.notify(failure(msg), true)
				return
			}
			sel.Options = make([]Option, 0, len(res.Stations))
			for _, s := range res.Stations {
				sel.Options = append(sel.Options, Option{Value: s.ID, Label: s.Name})
			}
			sel.Status = readyOrEmpty(len(sel.Options))
			sel.Enabled = true
			sel.Placeholder = placeholderStation
			st.showStations(res.Stations, year, true)
			if len(res.Stations) == 0 {
				return
			}
			st.notify(msgStationsInYear(res.Total, year), false)
			if len(res.Stations) == 1 {
				c.scheduleAutoSelect(tok, res.Stations[0].ID)
			}
		})
	})
}

// scheduleAutoSelect selects the only operative station after the
// configured delay, unless the year or the station changed meanwhile.
// Must be called with c.mu held.
func (c *Controller) scheduleAutoSelect(yearTok token, stationID int64) {
	stationTok := c.token(LevelStation)
	c.spawn(func() {
		if c.autoSelectDelay > 0 {
			t := time.NewTimer(c.autoSelectDelay)
			defer t.Stop()
			select {
			case <-t.C:
			case <-yearTok.ctx.Done():
				return
			case <-stationTok.ctx.Done():
				return
			}
		}
		c.update(func(st *state) bool {
			if !c.current(yearTok) || !c.current(stationTok) {
				return false
			}
			logging.Debug().Int64("estacion", stationID).Msg("auto-selecting single station")
			return c.applyStation(st, &stationID)
		})
	})
}

func (c *Controller) fetchPollutants(stationID int64, year int) {
	tok := c.token(LevelStation)
	c.spawn(func() {
		res, err := c.fetcher.Pollutants(tok.ctx, stationID, year)
		c.apply(tok, func(st *state) {
			sel := &st.selectors[LevelExposure]
			if err != nil {
				logging.Warn().Err(err).Int64("estacion", stationID).Int("anio", year).Msg("load pollutants")
				msg := pollutantsError(err)
				*sel = Selector{Status: StatusError, Placeholder: msg}
				st.notify(failure(msg), true)
				return
			}
			sel.Options = nil
			for _, p := range res.Pollutants {
				for _, e := range p.Exposures {
					sel.Options = append(sel.Options, Option{Value: e.ID, Label: exposureLabel(p.Symbol, e.Text)})
				}
			}
			sel.Status = readyOrEmpty(len(sel.Options))
			sel.Enabled = true
			sel.Placeholder = placeholderExposure
			st.notify(msgPollutantsFound(res.Total), false)
		})
	})
}

// fetchData must be called with c.mu held and a station, year and
// exposure selected.
func (c *Controller) fetchData(st *state) {
	station := *st.selectors[LevelStation].Selected
	year := int(*st.selectors[LevelYear].Selected)
	exposure := *st.selectors[LevelExposure].Selected

	st.panel = Panel{Mode: PanelLoading}
	st.notify(msgLoadingData, false)

	tok := c.token(LevelExposure)
	c.spawn(func() {
		report, err := c.fetcher.HistoricalData(tok.ctx, station, year, exposure)
		c.apply(tok, func(st *state) {
			if err != nil {
				logging.Warn().Err(err).
					Int64("estacion", station).Int("anio", year).Int64("exposicion", exposure).
					Msg("load historical data")
				msg := dataError(err)
				st.panel = Panel{Mode: PanelError, Error: msg, Reloadable: true}
				st.notify(failure(msg), true)
				return
			}
			for i := range st.markers {
				st.markers[i].Color = DefaultMarkerColor
			}
			if m := st.marker(station); m != nil {
				m.Color = report.Classification.Color
				if m.Color == "" {
					m.Color = DefaultMarkerColor
				}
			}
			st.panel = Panel{
				Mode:        PanelData,
				Report:      report,
				QualityText: QualityText(report.Classification.Level),
			}
			st.notify(msgDataLoaded, false)
		})
	})
}

// bump invalidates every outstanding fetch at level or below it in the
// cascade. Must be called with c.mu held.
func (c *Controller) bump(level Level) {
	for l := level; l < levelCount; l++ {
		c.gen[l]++
		c.cancel[l]()
		c.ctx[l], c.cancel[l] = context.WithCancel(c.root)
	}
}

func (c *Controller) token(level Level) token {
	return token{level: level, gen: c.gen[level], ctx: c.ctx[level]}
}

func (c *Controller) current(tok token) bool {
	return !c.closed && c.gen[tok.level] == tok.gen
}

// apply runs fn under the lock if tok is still current and publishes the
// result.
func (c *Controller) apply(tok token, fn func(st *state)) {
	c.update(func(st *state) bool {
		if !c.current(tok) {
			return false
		}
		fn(st)
		return true
	})
}

// update runs fn under the lock. When fn reports a change the new state is
// rendered after the lock is released.
func (c *Controller) update(fn func(st *state) bool) {
	c.mu.Lock()
	if c.closed || !fn(c.st) {
		c.mu.Unlock()
		return
	}
	c.st.version++
	snap := c.st.snapshot()
	c.mu.Unlock()
	c.publish(snap)
}

// publish hands snapshots to the renderer in version order, dropping any
// that a newer one already overtook. A snapshot published while another
// is being rendered is queued and rendered by the goroutine already
// rendering, so a Renderer that calls back into the controller does not
// block.
func (c *Controller) publish(s Snapshot) {
	if c.renderer == nil {
		return
	}
	c.renderMu.Lock()
	if s.Version <= c.rendered || (c.pending != nil && s.Version <= c.pending.Version) {
		c.renderMu.Unlock()
		return
	}
	if c.rendering {
		c.pending = &s
		c.renderMu.Unlock()
		return
	}
	c.rendering = true
	for {
		c.rendered = s.Version
		c.renderMu.Unlock()
		c.renderer.Render(s)

		c.renderMu.Lock()
		if c.pending == nil {
			c.rendering = false
			c.renderMu.Unlock()
			return
		}
		s = *c.pending
		c.pending = nil
	}
}

func (c *Controller) spawn(fn func()) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		fn()
	}()
}

func readyOrEmpty(n int) SelectorStatus {
	if n == 0 {
		return StatusEmpty
	}
	return StatusReady
}
