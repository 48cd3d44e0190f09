// Package cache provides caching infrastructure with PostgreSQL LISTEN/NOTIFY support.
package cache

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"crmapi/internal/domain/customfield"
	"crmapi/pkg/logger"
)

// Channel is the NOTIFY channel announcing registry changes. The payload is
// the module whose fields changed; an empty payload drops every module.
const Channel = "custom_fields_changed"

var _ customfield.Source = (*FieldCache)(nil)

// FieldCache keeps the active custom fields of each module in memory.
// Entries are dropped on NOTIFY and by the registry's own write hooks, and
// reloaded on the next read.
type FieldCache struct {
	pool   *pgxpool.Pool
	loader customfield.Source

	mu     sync.RWMutex
	fields map[string][]*customfield.Field

	// Lifecycle
	lifecycleMu sync.Mutex
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	started     bool
}

// NewFieldCache creates a cache in front of loader. pool may be nil, in
// which case only explicit invalidation is available.
func NewFieldCache(pool *pgxpool.Pool, loader customfield.Source) *FieldCache {
	return &FieldCache{
		pool:   pool,
		loader: loader,
		fields: make(map[string][]*customfield.Field),
	}
}

// ActiveFields implements customfield.Source.
func (c *FieldCache) ActiveFields(ctx context.Context, module string) ([]*customfield.Field, error) {
	c.mu.RLock()
	fields, ok := c.fields[module]
	c.mu.RUnlock()
	if ok {
		return slices.Clone(fields), nil
	}

	fields, err := c.loader.ActiveFields(ctx, module)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.fields[module] = fields
	c.mu.Unlock()

	logger.Debug(ctx, "loaded custom fields", "module", module, "fields", len(fields))
	return slices.Clone(fields), nil
}

// Invalidate drops the cached fields of module, or of every module when
// module is empty.
func (c *FieldCache) Invalidate(module string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if module == "" {
		c.fields = make(map[string][]*customfield.Field)
		return
	}
	delete(c.fields, module)
}

// OnFieldChanged is a registry hook that drops the module of f.
func (c *FieldCache) OnFieldChanged(_ context.Context, f *customfield.Field) error {
	c.Invalidate(f.Module)
	return nil
}

// Start begins listening for NOTIFY events.
func (c *FieldCache) Start(ctx context.Context) error {
	if c.pool == nil {
		return fmt.Errorf("field cache has no pool to listen on")
	}

	c.lifecycleMu.Lock()
	defer c.lifecycleMu.Unlock()
	if c.started {
		return nil
	}
	c.ctx, c.cancel = context.WithCancel(ctx)
	c.started = true

	c.wg.Add(1)
	go c.listenLoop()
	logger.Info(c.ctx, "custom field cache started", "channel", Channel)
	return nil
}

// Stop gracefully stops the cache listener.
func (c *FieldCache) Stop() {
	c.lifecycleMu.Lock()
	if !c.started {
		c.lifecycleMu.Unlock()
		return
	}
	cancel := c.cancel
	c.started = false
	c.cancel = nil
	c.lifecycleMu.Unlock()

	cancel()
	c.wg.Wait()
	logger.Info(context.Background(), "custom field cache stopped")
}

// listenLoop holds a dedicated connection in LISTEN and reconnects on failure.
func (c *FieldCache) listenLoop() {
	defer c.wg.Done()

	for c.ctx.Err() == nil {
		conn, err := c.pool.Acquire(c.ctx)
		if err != nil {
			logger.Error(c.ctx, "failed to acquire connection for LISTEN", "error", err)
			c.sleep(time.Second)
			continue
		}

		if _, err := conn.Exec(c.ctx, "LISTEN "+Channel); err != nil {
			logger.Error(c.ctx, "failed to LISTEN", "error", err)
			conn.Release()
			c.sleep(time.Second)
			continue
		}

		// Notifications may have been missed while disconnected.
		c.Invalidate("")
		c.waitForNotifications(conn)
		conn.Release()
	}
}

func (c *FieldCache) waitForNotifications(conn *pgxpool.Conn) {
	for {
		ctx, cancel := context.WithTimeout(c.ctx, 30*time.Second)
		notification, err := conn.Conn().WaitForNotification(ctx)
		cancel()

		if err != nil {
			if c.ctx.Err() != nil {
				return
			}
			if ctx.Err() != nil {
				// Timeout is expected, continue listening
				continue
			}
			logger.Warn(c.ctx, "LISTEN connection lost", "error", err)
			return
		}

		c.handleNotification(notification.Channel, notification.Payload)
	}
}

func (c *FieldCache) handleNotification(channel, payload string) {
	if channel != Channel {
		return
	}
	module := strings.TrimSpace(payload)
	logger.Debug(c.ctx, "custom fields changed", "module", module)
	c.Invalidate(module)
}

func (c *FieldCache) sleep(d time.Duration) {
	select {
	case <-c.ctx.Done():
	case <-time.After(d):
	}
}

// Stats is a snapshot of the cache contents.
type Stats struct {
	Modules []string `json:"modules"`
	Fields  int      `json:"fields"`
}

// GetStats returns current cache statistics.
func (c *FieldCache) GetStats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	s := Stats{Modules: make([]string, 0, len(c.fields))}
	for module, list := range c.fields {
		s.Modules = append(s.Modules, module)
		s.Fields += len(list)
	}
	slices.Sort(s.Modules)
	return s
}
