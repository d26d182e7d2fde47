package compiler

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"time"

	"github.com/roach88/rewind/internal/engine"
	"github.com/roach88/rewind/internal/journal"
	"github.com/roach88/rewind/internal/observe"
)

// Catalog holds engine kinds built from compiled specs, indexed by name.
type Catalog struct {
	kinds map[string]*engine.Kind
	specs map[string]KindSpec
	order []string
}

// Build validates specs and turns them into engine kinds. Child tables are
// resolved by name after every kind exists, so kinds may reference each
// other (or themselves) in any order. sched is required when any kind
// declares a debounce.
func Build(specs []KindSpec, sched observe.Scheduler) (*Catalog, error) {
	if verrs := Validate(specs); len(verrs) > 0 {
		errs := make([]error, len(verrs))
		for i, e := range verrs {
			errs[i] = e
		}
		return nil, errors.Join(errs...)
	}

	c := &Catalog{
		kinds: make(map[string]*engine.Kind, len(specs)),
		specs: make(map[string]KindSpec, len(specs)),
	}
	for _, spec := range specs {
		model, err := journal.ParseModel(spec.Model)
		if err != nil {
			return nil, err
		}
		opts := engine.KindOptions{
			Fields:    spec.FieldNames(),
			Defaults:  spec.Defaults(),
			Model:     model,
			Composite: spec.Composite,
			Debounce:  time.Duration(spec.DebounceMS) * time.Millisecond,
		}
		if opts.Debounce > 0 {
			opts.Scheduler = sched
		}
		k, err := engine.NewKind(spec.Name, opts)
		if err != nil {
			return nil, fmt.Errorf("kind %s: %w", spec.Name, err)
		}
		c.kinds[spec.Name] = k
		c.specs[spec.Name] = spec
		c.order = append(c.order, spec.Name)
	}

	for _, spec := range specs {
		for _, child := range spec.Children {
			c.kinds[spec.Name].AllowChildren(c.kinds[child])
		}
	}
	return c, nil
}

// Kind returns the kind with the given name.
func (c *Catalog) Kind(name string) (*engine.Kind, bool) {
	k, ok := c.kinds[name]
	return k, ok
}

// Spec returns the compiled spec behind a kind.
func (c *Catalog) Spec(name string) (KindSpec, bool) {
	s, ok := c.specs[name]
	return s, ok
}

// ByKey finds a kind by its TypeKey.
func (c *Catalog) ByKey(key string) (*engine.Kind, bool) {
	for _, name := range c.order {
		if k := c.kinds[name]; k.Key() == key {
			return k, true
		}
	}
	return nil, false
}

// Names returns kind names in declaration order.
func (c *Catalog) Names() []string {
	return slices.Clone(c.order)
}

// Kinds returns all kinds in declaration order.
func (c *Catalog) Kinds() []*engine.Kind {
	out := make([]*engine.Kind, len(c.order))
	for i, name := range c.order {
		out[i] = c.kinds[name]
	}
	return out
}

func sortedNames(set map[string]bool) []string {
	names := make([]string, 0, len(set))
	for n := range set {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
