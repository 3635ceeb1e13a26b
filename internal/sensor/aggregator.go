package sensor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/nerrad567/pihub/internal/cache"
)

// Spawner launches supervised background goroutines. The default
// implementation starts a plain goroutine; cmd/pihub wires in the task
// supervisor so poll loops get panic recovery and restarts.
type Spawner interface {
	Go(ctx context.Context, name string, fn func(ctx context.Context))
}

// goSpawner is the fallback Spawner.
type goSpawner struct{}

func (goSpawner) Go(ctx context.Context, _ string, fn func(ctx context.Context)) {
	go fn(ctx)
}

// Aggregator owns the units of one sensor family and publishes their
// snapshots into the shared cache on a fixed cadence, independent of
// (and normally no faster than) the per-unit polling cadence.
//
// All public methods are thread-safe; AddUnit is safe to call
// incrementally while the aggregation loop is already running.
type Aggregator struct {
	family   string
	interval time.Duration
	cache    *cache.Cache

	mu    sync.RWMutex
	units map[string]*Unit

	spawner   Spawner
	repo      MetadataRepository
	logger    Logger
	onPublish func(family string, readings map[string]Reading)
}

// NewAggregator creates an aggregator for one family ("dht22",
// "ds18b20") publishing into the given cache every interval.
func NewAggregator(family string, interval time.Duration, c *cache.Cache) *Aggregator {
	return &Aggregator{
		family:   family,
		interval: interval,
		cache:    c,
		units:    make(map[string]*Unit),
		spawner:  goSpawner{},
		logger:   noopLogger{},
	}
}

// SetLogger sets the logger for the aggregator and future units.
func (a *Aggregator) SetLogger(logger Logger) {
	a.logger = logger
}

// SetSpawner sets the goroutine spawner used for unit poll loops.
func (a *Aggregator) SetSpawner(spawner Spawner) {
	a.spawner = spawner
}

// SetRepository sets the metadata store used to persist unit names and
// locations across restarts. Optional; without it metadata lives only
// in memory.
func (a *Aggregator) SetRepository(repo MetadataRepository) {
	a.repo = repo
}

// SetOnPublish registers a callback invoked after every cache publish
// with the freshly published readings. Used to forward state to MQTT
// and InfluxDB without the sensor package knowing about either.
func (a *Aggregator) SetOnPublish(fn func(family string, readings map[string]Reading)) {
	a.onPublish = fn
}

// Family returns the family name this aggregator publishes under.
func (a *Aggregator) Family() string {
	return a.family
}

// AddUnit constructs a unit, starts its polling loop as an independent
// background task, and registers it. Stored metadata (a rename from a
// previous run) overrides the configured name and location.
//
// Returns ErrUnitExists if the key is already registered.
func (a *Aggregator) AddUnit(ctx context.Context, cfg Config, temp TemperatureReader, humidity HumidityReader) (*Unit, error) {
	if cfg.Name == "" {
		cfg.Name = fmt.Sprintf("%s_%s", a.family, cfg.Key)
	}

	if a.repo != nil {
		meta, err := a.repo.Get(ctx, a.family, cfg.Key)
		if err != nil {
			return nil, fmt.Errorf("loading metadata for %s/%s: %w", a.family, cfg.Key, err)
		}
		if meta != nil {
			if meta.Name != "" {
				cfg.Name = meta.Name
			}
			if meta.Location != "" {
				cfg.Location = meta.Location
			}
		}
	}

	unit := NewUnit(cfg, temp, humidity)
	unit.SetLogger(a.logger)

	a.mu.Lock()
	if _, exists := a.units[cfg.Key]; exists {
		a.mu.Unlock()
		return nil, fmt.Errorf("%w: %s/%s", ErrUnitExists, a.family, cfg.Key)
	}
	a.units[cfg.Key] = unit
	a.mu.Unlock()

	a.spawner.Go(ctx, fmt.Sprintf("%s-poll-%s", a.family, cfg.Key), unit.Run)

	a.logger.Info("sensor unit registered",
		"family", a.family,
		"key", cfg.Key,
		"name", cfg.Name,
		"interval", cfg.Interval,
	)
	return unit, nil
}

// Run is the aggregation loop: publish immediately, then on every
// interval tick, until ctx is cancelled.
func (a *Aggregator) Run(ctx context.Context) {
	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		a.Aggregate()
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Aggregate snapshots every registered unit and publishes the complete
// family into the cache in one atomic swap. Units that have never
// produced a reading are still published (with null fields) so clients
// see them immediately.
func (a *Aggregator) Aggregate() {
	a.mu.RLock()
	readings := make(map[string]Reading, len(a.units))
	for key, unit := range a.units {
		readings[key] = unit.Snapshot()
	}
	a.mu.RUnlock()

	entries := make(map[string]any, len(readings))
	for key, r := range readings {
		entries[key] = r
	}
	a.cache.Publish(a.family, entries)

	a.logger.Debug("family published", "family", a.family, "units", len(entries))

	if a.onPublish != nil {
		a.onPublish(a.family, readings)
	}
}

// UpdateUnitMeta renames or relocates a unit. Nil fields are left
// unchanged. The result is persisted when a metadata store is
// configured, and the family is republished so clients see the change
// without waiting for the next aggregation tick.
//
// Returns ErrUnitNotFound for an unregistered key.
func (a *Aggregator) UpdateUnitMeta(ctx context.Context, key string, name, location *string) error {
	a.mu.RLock()
	unit, ok := a.units[key]
	a.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s/%s", ErrUnitNotFound, a.family, key)
	}

	if name != nil {
		unit.SetName(*name)
	}
	if location != nil {
		unit.SetLocation(*location)
	}

	if a.repo != nil {
		snap := unit.Snapshot()
		err := a.repo.Save(ctx, a.family, key, Metadata{
			Name:     snap.Name,
			Location: snap.Location,
		})
		if err != nil {
			return fmt.Errorf("persisting metadata for %s/%s: %w", a.family, key, err)
		}
	}

	a.Aggregate()
	return nil
}

// UnitCount returns the number of registered units.
func (a *Aggregator) UnitCount() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.units)
}
