package apptype

// Entity represents a node in the knowledge graph
type Entity struct {
	Name         string   `json:"name"`
	EntityType   string   `json:"entityType"`
	Observations []string `json:"observations"`
}

// HasObservation reports whether the exact observation text is already recorded.
func (e *Entity) HasObservation(content string) bool {
	for _, o := range e.Observations {
		if o == content {
			return true
		}
	}
	return false
}

// Relation represents a directed relationship between two entities
type Relation struct {
	From         string `json:"from"`
	To           string `json:"to"`
	RelationType string `json:"relationType"`
}

// Touches reports whether name is either endpoint of the relation.
func (r Relation) Touches(name string) bool {
	return r.From == name || r.To == name
}

// Graph is the full in-memory graph reconstructed from the store on every read.
// Entity names are unique; a relation is identified by its (from, to, type) triple.
type Graph struct {
	Entities  []Entity   `json:"entities"`
	Relations []Relation `json:"relations"`
}

// NewGraph returns an empty graph with non-nil slices.
func NewGraph() *Graph {
	return &Graph{Entities: []Entity{}, Relations: []Relation{}}
}

// Entity returns a pointer into the graph for the named entity, or nil.
func (g *Graph) Entity(name string) *Entity {
	for i := range g.Entities {
		if g.Entities[i].Name == name {
			return &g.Entities[i]
		}
	}
	return nil
}

// HasRelation reports whether a relation with the same triple exists.
func (g *Graph) HasRelation(r Relation) bool {
	for _, existing := range g.Relations {
		if existing == r {
			return true
		}
	}
	return false
}

// RelationsOf returns relations where name is the source or the target.
func (g *Graph) RelationsOf(name string) []Relation {
	out := make([]Relation, 0)
	for _, r := range g.Relations {
		if r.Touches(name) {
			out = append(out, r)
		}
	}
	return out
}

// RelationsAmong returns relations whose endpoints are both in names.
func (g *Graph) RelationsAmong(names map[string]struct{}) []Relation {
	out := make([]Relation, 0)
	for _, r := range g.Relations {
		_, okFrom := names[r.From]
		_, okTo := names[r.To]
		if okFrom && okTo {
			out = append(out, r)
		}
	}
	return out
}

// ShadowAspect is a single keyword hit inside a shadow category.
type ShadowAspect struct {
	Category string `json:"type"`
	Keyword  string `json:"pattern"`
}
