package database

import (
	"encoding/json"
	"fmt"

	"github.com/ZanzyTHEbar/mcp-resonance-memory-go/internal/apptype"
)

const (
	recordEntity   = "entity"
	recordRelation = "relation"
)

type entityRecord struct {
	Type         string   `json:"type"`
	Name         string   `json:"name"`
	EntityType   string   `json:"entityType"`
	Observations []string `json:"observations"`
}

type relationRecord struct {
	Type         string `json:"type"`
	From         string `json:"from"`
	To           string `json:"to"`
	RelationType string `json:"relationType"`
}

// encodeGraph renders one JSON record per entity, then one per relation.
func encodeGraph(g *apptype.Graph) ([][]byte, error) {
	out := make([][]byte, 0, len(g.Entities)+len(g.Relations))
	for _, e := range g.Entities {
		obs := e.Observations
		if obs == nil {
			obs = []string{}
		}
		b, err := json.Marshal(entityRecord{Type: recordEntity, Name: e.Name, EntityType: e.EntityType, Observations: obs})
		if err != nil {
			return nil, fmt.Errorf("failed to encode entity %q: %w", e.Name, err)
		}
		out = append(out, b)
	}
	for _, r := range g.Relations {
		b, err := json.Marshal(relationRecord{Type: recordRelation, From: r.From, To: r.To, RelationType: r.RelationType})
		if err != nil {
			return nil, fmt.Errorf("failed to encode relation %s->%s: %w", r.From, r.To, err)
		}
		out = append(out, b)
	}
	return out, nil
}

// decodeRecord appends the record to g. pos is the 1-based record position
// reported in ErrMalformedStore.
func decodeRecord(g *apptype.Graph, pos int, raw []byte) error {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return fmt.Errorf("%w: record %d: %v", apptype.ErrMalformedStore, pos, err)
	}
	switch head.Type {
	case recordEntity:
		var rec entityRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			return fmt.Errorf("%w: record %d: %v", apptype.ErrMalformedStore, pos, err)
		}
		if rec.Observations == nil {
			rec.Observations = []string{}
		}
		g.Entities = append(g.Entities, apptype.Entity{Name: rec.Name, EntityType: rec.EntityType, Observations: rec.Observations})
	case recordRelation:
		var rec relationRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			return fmt.Errorf("%w: record %d: %v", apptype.ErrMalformedStore, pos, err)
		}
		g.Relations = append(g.Relations, apptype.Relation{From: rec.From, To: rec.To, RelationType: rec.RelationType})
	default:
		return fmt.Errorf("%w: record %d: unknown record type %q", apptype.ErrMalformedStore, pos, head.Type)
	}
	return nil
}
