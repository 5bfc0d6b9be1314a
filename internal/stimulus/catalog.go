package stimulus

import (
	"errors"
	"fmt"
	"sync"
)

// ErrFrozen is returned by Register once the catalog has been frozen.
var ErrFrozen = errors.New("catalog is frozen")

// #region catalog
// Catalog maps stimulus ids to their specs. It is safe for concurrent reads;
// registration is expected before a session starts.
type Catalog struct {
	mu     sync.RWMutex
	specs  map[ID]Spec
	order  []ID
	frozen bool
}

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{specs: make(map[ID]Spec)}
}

// Register adds spec to the catalog.
func (c *Catalog) Register(spec Spec) error {
	if err := spec.Validate(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.frozen {
		return fmt.Errorf("register %s: %w", spec.ID, ErrFrozen)
	}
	if _, ok := c.specs[spec.ID]; ok {
		return &DuplicateIDError{ID: spec.ID}
	}
	c.specs[spec.ID] = spec
	c.order = append(c.order, spec.ID)
	return nil
}

// Get returns the spec registered under id.
func (c *Catalog) Get(id ID) (Spec, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	spec, ok := c.specs[id]
	if !ok {
		return Spec{}, &UnknownStimulusError{ID: id}
	}
	return spec, nil
}

// Has reports whether id is registered.
func (c *Catalog) Has(id ID) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.specs[id]
	return ok
}

// IDs returns ids in registration order.
func (c *Catalog) IDs() []ID {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]ID, len(c.order))
	copy(out, c.order)
	return out
}

// Len returns the number of registered stimuli.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.order)
}

// Freeze makes the catalog immutable.
func (c *Catalog) Freeze() {
	c.mu.Lock()
	c.frozen = true
	c.mu.Unlock()
}

// Validate checks that every fixed-duration follow-up id is registered.
func (c *Catalog) Validate() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, id := range c.order {
		spec := c.specs[id]
		if !spec.Expires() {
			continue
		}
		if _, ok := c.specs[spec.Duration.Then]; !ok {
			return fmt.Errorf("stimulus %s expires into %w", id, &UnknownStimulusError{ID: spec.Duration.Then})
		}
	}
	return nil
}

// #endregion catalog
