package engine

import (
	"sync"

	"github.com/verbamind/verbamind/pkg/utils"
)

// Catalog maps game ids to plugin instances. It is populated once at startup
// and read-only afterwards; the lock only exists to make that discipline safe.
type Catalog struct {
	mu      sync.RWMutex
	plugins map[string]Plugin
	order   []string
}

func NewCatalog() *Catalog {
	return &Catalog{plugins: make(map[string]Plugin)}
}

// Register validates and adds a plugin. Duplicate ids, missing fields and
// empty mode lists are rejected.
func (c *Catalog) Register(p Plugin) error {
	if p == nil {
		return utils.NewAppError(utils.ErrCodeValidation, "plugin is nil")
	}
	if p.ID() == "" {
		return utils.NewAppError(utils.ErrCodeMissingField, "plugin id is required")
	}
	if p.Name() == "" {
		return utils.NewAppError(utils.ErrCodeMissingField, "plugin name is required", p.ID())
	}
	if len(p.SupportedModes()) == 0 {
		return utils.NewAppError(utils.ErrCodeValidation, "plugin supports no modes", p.ID())
	}
	for _, m := range p.SupportedModes() {
		if !ValidMode(m) {
			return utils.NewAppError(utils.ErrCodeValidation, "plugin lists unknown mode", string(m))
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.plugins[p.ID()]; exists {
		return utils.NewAppError(utils.ErrCodeConflict, "game id already registered", p.ID())
	}
	c.plugins[p.ID()] = p
	c.order = append(c.order, p.ID())
	return nil
}

// Get returns the plugin for id.
func (c *Catalog) Get(id string) (Plugin, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.plugins[id]
	if !ok {
		return nil, utils.NewAppError(utils.ErrCodeNotFound, "unknown game id", id)
	}
	return p, nil
}

// Has reports whether id is registered.
func (c *Catalog) Has(id string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.plugins[id]
	return ok
}

// GetAll returns every plugin in registration order.
func (c *Catalog) GetAll() []Plugin {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Plugin, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.plugins[id])
	}
	return out
}

// GetByMode returns the plugins supporting mode, in registration order.
func (c *Catalog) GetByMode(mode Mode) []Plugin {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Plugin, 0, len(c.order))
	for _, id := range c.order {
		if SupportsMode(c.plugins[id], mode) {
			out = append(out, c.plugins[id])
		}
	}
	return out
}
