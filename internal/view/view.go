package view

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/yourorg/doctor-finder/airtable"
	"github.com/yourorg/doctor-finder/internal/camera"
	"github.com/yourorg/doctor-finder/internal/collation"
	"github.com/yourorg/doctor-finder/internal/doctor"
	"github.com/yourorg/doctor-finder/internal/facet"
	"github.com/yourorg/doctor-finder/internal/filter"
	"github.com/yourorg/doctor-finder/internal/geocode"
)

type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLoading
	PhaseReady
)

// Text holds the user-facing strings the engine hands to address fields.
type Text struct {
	LoadingAddress  string
	AddressNotFound string
}

func TextFor(uiLang string) Text {
	if strings.HasPrefix(strings.ToLower(uiLang), "ar") {
		return Text{LoadingAddress: "جاري تحميل العنوان…", AddressNotFound: "لم يتم العثور على العنوان"}
	}
	return Text{LoadingAddress: "Loading address…", AddressNotFound: "Address not found"}
}

// MapSurface is the map widget port: markers, camera, bubble content. A nil
// surface disables the map projection; the list keeps working.
type MapSurface interface {
	SetMarkerVisible(doctorID string, visible bool)
	MoveCamera(cam camera.Camera)
	SetBubbleAddress(doctorID, address string)
}

// ListRow is one rendered list entry. Ordinal is the position within the
// current sorted subset and is not stable across re-filtering.
type ListRow struct {
	Doctor  doctor.Doctor
	Ordinal int
	Address string
}

// Snapshot is the state both projections are rendered from.
type Snapshot struct {
	Phase       Phase
	Filter      filter.State
	Countries   []string
	Cities      []string
	Rows        []ListRow
	ListVisible bool
	Camera      camera.Camera
}

type Config struct {
	UILang      string
	QuietPeriod time.Duration // readiness: no new batch for this long means stable
	MaxWait     time.Duration // readiness fail-safe
	LateWindow  time.Duration // how long after readiness late records are merged
}

func (c *Config) defaults() {
	if c.QuietPeriod <= 0 {
		c.QuietPeriod = 900 * time.Millisecond
	}
	if c.MaxWait <= 0 {
		c.MaxWait = 15 * time.Second
	}
	if c.LateWindow <= 0 {
		c.LateWindow = 8 * time.Second
	}
}

// Synchronizer keeps the marker and list projections consistent with the
// filtered doctor set. All recomputation is synchronous; only geocoding is
// asynchronous. A delivery superseded by a later filter or data change is
// discarded unless its doctor is still part of the rendered view.
type Synchronizer struct {
	cfg      Config
	text     Text
	log      zerolog.Logger
	coll     *collation.Collator
	store    *doctor.Store
	facets   *facet.Index
	resolver *geocode.Resolver
	surface  MapSurface
	onChange func(Snapshot)

	mu        sync.Mutex
	phase     Phase
	st        filter.State
	lastCam   camera.Camera
	gen       uint64
	addresses map[string]string   // coord key -> resolved address text
	failed    map[string]struct{} // coord keys whose last lookup failed transiently
	lateStop  chan struct{}
}

func New(cfg Config, resolver *geocode.Resolver, surface MapSurface, onChange func(Snapshot), log zerolog.Logger) *Synchronizer {
	cfg.defaults()
	coll := collation.New(cfg.UILang)
	s := &Synchronizer{
		cfg:       cfg,
		text:      TextFor(cfg.UILang),
		log:       log,
		coll:      coll,
		store:     doctor.NewStore(),
		facets:    facet.NewIndex(coll),
		resolver:  resolver,
		surface:   surface,
		onChange:  onChange,
		addresses: make(map[string]string),
		failed:    make(map[string]struct{}),
		lateStop:  make(chan struct{}),
	}
	if surface == nil {
		log.Warn().Msg("no map surface attached, marker and camera updates disabled")
	}
	return s
}

// Start waits for the host's record feed to go quiet (no new batch for
// QuietPeriod, bounded by MaxWait), ingests what arrived, and becomes ready.
// The loading phase always ends when Start returns, successful or not. For a
// bounded window afterwards the feed keeps being drained so late records merge
// in without resetting the user's filter.
func (s *Synchronizer) Start(ctx context.Context, feed <-chan []airtable.Record) error {
	s.mu.Lock()
	s.phase = PhaseLoading
	s.mu.Unlock()

	err := s.awaitStable(ctx, feed)

	s.mu.Lock()
	s.phase = PhaseReady
	s.mutateLocked()
	s.mu.Unlock()

	go s.drainLate(feed)
	return err
}

func (s *Synchronizer) awaitStable(ctx context.Context, feed <-chan []airtable.Record) error {
	quiet := time.NewTimer(s.cfg.QuietPeriod)
	defer quiet.Stop()
	deadline := time.NewTimer(s.cfg.MaxWait)
	defer deadline.Stop()

	got := false
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline.C:
			s.log.Warn().Dur("max_wait", s.cfg.MaxWait).Msg("readiness wait hit fail-safe")
			return nil
		case <-quiet.C:
			if got {
				return nil
			}
			// Nothing arrived yet; keep waiting for the first batch.
			quiet.Reset(s.cfg.QuietPeriod)
		case batch, ok := <-feed:
			if !ok {
				return nil
			}
			s.ingestBatch(batch)
			got = true
			if !quiet.Stop() {
				select {
				case <-quiet.C:
				default:
				}
			}
			quiet.Reset(s.cfg.QuietPeriod)
		}
	}
}

// drainLate keeps merging feed batches for the late-ingestion window, then
// stops observing.
func (s *Synchronizer) drainLate(feed <-chan []airtable.Record) {
	window := time.NewTimer(s.cfg.LateWindow)
	defer window.Stop()
	for {
		select {
		case <-window.C:
			return
		case <-s.lateStop:
			return
		case batch, ok := <-feed:
			if !ok {
				return
			}
			s.IngestLate(batch)
		}
	}
}

// Close stops the late-ingestion observer.
func (s *Synchronizer) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	select {
	case <-s.lateStop:
	default:
		close(s.lateStop)
	}
}

func (s *Synchronizer) ingestBatch(batch []airtable.Record) int {
	added := 0
	for _, rec := range batch {
		d, ok := doctor.Normalize(rec)
		if !ok {
			continue
		}
		if s.store.Ingest(d) {
			s.facets.Upsert(d.Country, d.City)
			added++
		}
	}
	return added
}

// IngestLate merges late-arriving records and re-applies the current filter.
// The user's in-progress selection is never reset by late data.
func (s *Synchronizer) IngestLate(batch []airtable.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhaseReady {
		return
	}
	if s.ingestBatch(batch) > 0 {
		s.mutateLocked()
	}
}

// SetCountry changes the country filter; the dependent city and any selection
// are cleared.
func (s *Synchronizer) SetCountry(country string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st = s.st.WithCountry(country)
	s.mutateLocked()
}

// SetCity changes the city filter. A city outside the selected country is
// ignored.
func (s *Synchronizer) SetCity(city string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if city != "" && (s.st.Country == "" || !s.facets.HasCity(s.st.Country, city)) {
		s.log.Warn().Str("city", city).Str("country", s.st.Country).Msg("ignoring city outside selected country")
		return
	}
	s.st = s.st.WithCity(city)
	s.mutateLocked()
}

// SelectDoctor marks one doctor as explicitly selected (marker click). An
// unknown ID is ignored.
func (s *Synchronizer) SelectDoctor(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id != "" {
		if _, ok := s.store.Get(id); !ok {
			s.log.Warn().Str("doctor_id", id).Msg("ignoring selection of unknown doctor")
			return
		}
	}
	s.st = s.st.WithSelection(id)
	s.mutateLocked()
}

// Reset clears every filter.
func (s *Synchronizer) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st = filter.State{}
	s.mutateLocked()
}

// mutateLocked recomputes after a filter or data change. Each change starts a
// new generation; a geocode delivery requested under an older generation no
// longer speaks for the current view.
func (s *Synchronizer) mutateLocked() {
	s.gen++
	s.applyLocked()
}

// applyLocked recomputes everything a change can invalidate, in fixed order:
// filtered subset, camera, sorted list, marker visibility.
func (s *Synchronizer) applyLocked() {
	all := s.store.All()
	subset := filter.Apply(all, s.st)

	cam := camera.Plan(subset, s.st, s.store.Get)
	if s.surface != nil && !cam.Equal(s.lastCam) {
		s.surface.MoveCamera(cam)
	}
	s.lastCam = cam

	rows := s.buildRows(subset)

	if s.surface != nil {
		shown := make(map[string]bool, len(subset))
		for _, d := range subset {
			shown[d.ID] = true
		}
		for _, d := range all {
			// With no country chosen every marker stays on the map.
			s.surface.SetMarkerVisible(d.ID, s.st.Country == "" || shown[d.ID])
		}
	}

	if s.onChange != nil {
		s.onChange(Snapshot{
			Phase:       s.phase,
			Filter:      s.st,
			Countries:   s.facets.Countries(),
			Cities:      s.facets.Cities(s.st.Country),
			Rows:        rows,
			ListVisible: s.st.Country != "",
			Camera:      cam,
		})
	}
}

func (s *Synchronizer) buildRows(subset []doctor.Doctor) []ListRow {
	sorted := doctor.SortForDisplay(subset, s.coll)
	rows := make([]ListRow, len(sorted))
	for i, d := range sorted {
		key := geocode.Key(d.Latitude, d.Longitude)
		addr, ok := s.addresses[key]
		if !ok {
			addr = s.text.LoadingAddress
			if _, failedLookup := s.failed[key]; failedLookup {
				addr = s.text.AddressNotFound
			}
		}
		rows[i] = ListRow{Doctor: d, Ordinal: i, Address: addr}
	}
	return rows
}

// RowVisible reports that the list row for a doctor entered the viewport; the
// address is resolved lazily, cache-first, and delivered through a fresh
// snapshot unless the view has moved on.
func (s *Synchronizer) RowVisible(doctorID string) {
	s.resolveFor(doctorID, false)
}

// BubbleOpened reports that a doctor's info bubble was opened; the resolved
// address goes to the map surface.
func (s *Synchronizer) BubbleOpened(doctorID string) {
	s.resolveFor(doctorID, true)
}

func (s *Synchronizer) resolveFor(doctorID string, toBubble bool) {
	s.mu.Lock()
	d, ok := s.store.Get(doctorID)
	if !ok || s.resolver == nil {
		s.mu.Unlock()
		return
	}
	gen := s.gen
	key := geocode.Key(d.Latitude, d.Longitude)
	if addr, cached := s.addresses[key]; cached {
		if toBubble && s.surface != nil {
			s.surface.SetBubbleAddress(doctorID, addr)
		}
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		addr, err := s.resolver.Resolve(ctx, d.Latitude, d.Longitude)

		s.mu.Lock()
		defer s.mu.Unlock()
		text := addr
		switch {
		case err == nil:
			delete(s.failed, key)
			s.addresses[key] = text
		case errors.Is(err, geocode.ErrNotFound):
			text = s.text.AddressNotFound
			s.addresses[key] = text
		default:
			// Transient failure: the row shows the fallback but the key stays
			// uncached so the next visibility event retries.
			text = s.text.AddressNotFound
			s.failed[key] = struct{}{}
			s.log.Warn().Err(err).Str("doctor_id", doctorID).Msg("geocode lookup failed")
		}
		if toBubble && s.surface != nil {
			s.surface.SetBubbleAddress(doctorID, text)
		}
		if s.gen == gen {
			s.applyLocked()
			return
		}
		// A filter or data change superseded this request, and its rebuild ran
		// before this result landed. Refresh only if the doctor is still shown;
		// otherwise the next rebuild picks the cached address up on its own.
		if len(filter.Apply([]doctor.Doctor{d}, s.st)) == 1 {
			s.applyLocked()
		}
	}()
}

// CurrentSnapshot rebuilds a snapshot of the present state without side
// effects on the projections.
func (s *Synchronizer) CurrentSnapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	subset := filter.Apply(s.store.All(), s.st)
	return Snapshot{
		Phase:       s.phase,
		Filter:      s.st,
		Countries:   s.facets.Countries(),
		Cities:      s.facets.Cities(s.st.Country),
		Rows:        s.buildRows(subset),
		ListVisible: s.st.Country != "",
		Camera:      s.lastCam,
	}
}
