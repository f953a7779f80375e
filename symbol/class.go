package symbol

import "github.com/ahkls/ahkls/token"

// Class is a class declaration with separate instance and static member
// tables. The same name may legally appear in both (static shadowing), but
// each key maps to exactly one symbol per table.
type Class struct {
	Symbol

	// Extends holds the lowercase name of the base class; ExtendsDoc is the
	// identifier of the document that declares it, re-resolved lazily by the
	// include-resolution collaborator.
	Extends      string
	ExtendsRange token.Range
	ExtendsDoc   string

	Instance map[string]Node
	Static   map[string]Node

	// pending caches speculative this./super. member references discovered
	// before the class finishes parsing. They are merged into the member
	// tables once the class closes.
	pending []*Variable
}

// NewClass returns a Class with initialized member tables.
func NewClass(name string) *Class {
	return &Class{
		Symbol:   Symbol{Name: name, Kind: KindClass},
		Instance: make(map[string]Node),
		Static:   make(map[string]Node),
	}
}

// AddPending caches an early this./super. member reference.
func (c *Class) AddPending(v *Variable) {
	c.pending = append(c.pending, v)
}

// Pending returns the cached early member references.
func (c *Class) Pending() []*Variable { return c.pending }

// ClearPending drops the cache after it has been merged.
func (c *Class) ClearPending() { c.pending = nil }

// Member looks up a member by name in the instance table, then the static
// table. Returns nil when absent.
func (c *Class) Member(name string) Node {
	key := token.Normalize(name)
	if n, ok := c.Instance[key]; ok {
		return n
	}
	if n, ok := c.Static[key]; ok {
		return n
	}
	return nil
}

// Property is a class property. It may carry an indexer parameter list and
// get/set accessor bodies. A property and an accessor-less method of the
// same name legally combine: the method becomes the property's Call.
type Property struct {
	Symbol

	Params []*Variable
	Getter *Func
	Setter *Func
	Static bool

	// Call is the callable half of a combined property+method entity.
	Call *Func
}
