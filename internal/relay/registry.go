package relay

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/nerrad567/pihub/internal/cache"
)

// Family is the cache family the registry publishes under.
const Family = "relays"

// defaultReconcileInterval is the cadence of the background republish.
const defaultReconcileInterval = 5 * time.Second

// Logger defines the logging interface used by the Registry.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Registry owns the relay collection, applies state changes, and
// republishes the entire relays family into the shared cache after
// every mutation, so clients always see a globally consistent view.
//
// All public methods are thread-safe.
type Registry struct {
	driver    PinDriver
	cache     *cache.Cache
	interval  time.Duration
	logger    Logger
	repo      StateRepository
	onPublish func(states map[string]State)

	mu     sync.RWMutex
	relays map[string]*Relay
}

// NewRegistry creates a registry driving pins through the given driver
// and publishing into the given cache.
func NewRegistry(driver PinDriver, c *cache.Cache) *Registry {
	return &Registry{
		driver:   driver,
		cache:    c,
		interval: defaultReconcileInterval,
		logger:   noopLogger{},
		relays:   make(map[string]*Relay),
	}
}

// SetLogger sets the logger for the registry.
func (g *Registry) SetLogger(logger Logger) {
	g.logger = logger
}

// SetRepository sets the state store used to persist logical relay
// state across restarts. Optional.
func (g *Registry) SetRepository(repo StateRepository) {
	g.repo = repo
}

// SetOnPublish registers a callback invoked after every cache publish
// with the freshly published states. Used for MQTT/InfluxDB forwarding.
func (g *Registry) SetOnPublish(fn func(states map[string]State)) {
	g.onPublish = fn
}

// SetReconcileInterval overrides the background republish cadence.
func (g *Registry) SetReconcileInterval(interval time.Duration) {
	g.interval = interval
}

// AddRelay registers a relay and pushes its initial state to hardware
// immediately. A logical state persisted by a previous run overrides
// the configured initial state, so relays come back up the way they
// were left.
//
// Returns ErrExists if the id is already registered.
func (g *Registry) AddRelay(ctx context.Context, cfg Config) error {
	if cfg.ID == "" {
		cfg.ID = fmt.Sprintf("relay_%d", cfg.Pin)
	}
	if cfg.Name == "" {
		cfg.Name = cfg.ID
	}

	// The write lock is held across construction so a concurrent
	// duplicate registration cannot drive the pin before it is
	// rejected. Registration is a boot-time path; holding the lock
	// over the repo read and pin setup is fine.
	g.mu.Lock()
	if _, exists := g.relays[cfg.ID]; exists {
		g.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrExists, cfg.ID)
	}

	if g.repo != nil {
		stored, ok, err := g.repo.Get(ctx, cfg.ID)
		if err != nil {
			g.mu.Unlock()
			return fmt.Errorf("loading relay state for %q: %w", cfg.ID, err)
		}
		if ok {
			cfg.Initial = stored
		}
	}

	r, err := newRelay(cfg, g.driver)
	if err != nil {
		g.mu.Unlock()
		return err
	}
	g.relays[cfg.ID] = r
	g.mu.Unlock()

	g.logger.Info("relay registered",
		"id", cfg.ID,
		"pin", cfg.Pin,
		"active_high", cfg.ActiveHigh,
		"initial", cfg.Initial,
	)

	g.publish()
	return nil
}

// Set drives a relay to the requested logical state, persists it, and
// republishes the whole family.
//
// Returns ErrNotFound for an unknown id; hardware errors propagate to
// the caller with the cached state unchanged.
func (g *Registry) Set(ctx context.Context, id string, on bool) error {
	r, err := g.lookup(id)
	if err != nil {
		return err
	}

	if err := r.Set(on); err != nil {
		return err
	}
	g.persist(ctx, id, on)
	g.publish()
	return nil
}

// SetAsync validates the id synchronously, then applies the state
// change without blocking the caller. The returned channel delivers
// the hardware result exactly once.
func (g *Registry) SetAsync(ctx context.Context, id string, on bool) (<-chan error, error) {
	r, err := g.lookup(id)
	if err != nil {
		return nil, err
	}

	result := make(chan error, 1)
	go func() {
		err := r.Set(on)
		if err == nil {
			g.persist(ctx, id, on)
			g.publish()
		}
		result <- err
	}()
	return result, nil
}

// Toggle flips a relay and republishes the family.
func (g *Registry) Toggle(ctx context.Context, id string) error {
	r, err := g.lookup(id)
	if err != nil {
		return err
	}

	if err := r.Toggle(); err != nil {
		return err
	}
	g.persist(ctx, id, r.Get())
	g.publish()
	return nil
}

// Get returns the published view of one relay.
func (g *Registry) Get(id string) (State, error) {
	r, err := g.lookup(id)
	if err != nil {
		return State{}, err
	}
	return r.State(), nil
}

// List returns the published view of every relay, keyed by id.
func (g *Registry) List() map[string]State {
	g.mu.RLock()
	defer g.mu.RUnlock()

	states := make(map[string]State, len(g.relays))
	for id, r := range g.relays {
		states[id] = r.State()
	}
	return states
}

// Count returns the number of registered relays.
func (g *Registry) Count() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.relays)
}

// Run is the reconciliation loop: it republishes the family
// unconditionally on a low cadence as a backstop for any missed
// explicit republish. Republishing is idempotent and cheap.
func (g *Registry) Run(ctx context.Context) {
	ticker := time.NewTicker(g.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			g.publish()
		}
	}
}

// lookup resolves an id to its relay.
func (g *Registry) lookup(id string) (*Relay, error) {
	g.mu.RLock()
	r, ok := g.relays[id]
	g.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	return r, nil
}

// persist saves the logical state, logging rather than failing: the
// hardware write already succeeded, and losing the persisted copy only
// costs the restored state on next boot.
func (g *Registry) persist(ctx context.Context, id string, on bool) {
	if g.repo == nil {
		return
	}
	if err := g.repo.Save(ctx, id, on); err != nil {
		g.logger.Error("persisting relay state failed", "id", id, "error", err)
	}
}

// publish replaces the relays family in the cache with the current
// view of every relay and notifies the onPublish hook.
func (g *Registry) publish() {
	states := g.List()

	entries := make(map[string]any, len(states))
	for id, s := range states {
		entries[id] = s
	}
	g.cache.Publish(Family, entries)

	g.logger.Debug("relays family published", "count", len(entries))

	if g.onPublish != nil {
		g.onPublish(states)
	}
}
