package database

import (
	"context"
	"fmt"

	"github.com/ZanzyTHEbar/mcp-resonance-memory-go/internal/apptype"
	"github.com/ZanzyTHEbar/mcp-resonance-memory-go/internal/metrics"
)

// CreateRelations adds relations whose (from, to, type) triple is new.
// Endpoints are not required to exist.
func (dm *DBManager) CreateRelations(ctx context.Context, projectName string, relations []apptype.Relation) ([]apptype.Relation, error) {
	done := metrics.TimeOp("create_relations")
	success := false
	defer func() { done(success) }()

	for _, relation := range relations {
		if relation.From == "" || relation.To == "" || relation.RelationType == "" {
			return nil, fmt.Errorf("relation fields cannot be empty")
		}
	}

	created := make([]apptype.Relation, 0, len(relations))
	err := dm.update(ctx, projectName, func(g *apptype.Graph) (bool, error) {
		for _, relation := range relations {
			if g.HasRelation(relation) {
				continue
			}
			g.Relations = append(g.Relations, relation)
			created = append(created, relation)
		}
		return len(created) > 0, nil
	})
	if err != nil {
		return nil, err
	}
	success = true
	return created, nil
}

// DeleteRelations removes exact triples. With a signature, a Quantum_Echo
// entity lists what was removed.
func (dm *DBManager) DeleteRelations(ctx context.Context, projectName string, relations []apptype.Relation, signature string) (*apptype.DeleteRelationsResult, error) {
	done := metrics.TimeOp("delete_relations")
	success := false
	defer func() { done(success) }()

	targets := make(map[apptype.Relation]struct{}, len(relations))
	for _, r := range relations {
		targets[r] = struct{}{}
	}
	res := &apptype.DeleteRelationsResult{Deleted: make([]apptype.Relation, 0)}
	err := dm.update(ctx, projectName, func(g *apptype.Graph) (bool, error) {
		kept := make([]apptype.Relation, 0, len(g.Relations))
		for _, r := range g.Relations {
			if _, ok := targets[r]; ok {
				res.Deleted = append(res.Deleted, r)
				continue
			}
			kept = append(kept, r)
		}
		g.Relations = kept
		res.DeletedCount = len(res.Deleted)

		if signature != "" && res.DeletedCount > 0 {
			obs := make([]string, 0, res.DeletedCount+3)
			obs = append(obs, "Void marker for deleted relations:")
			for _, r := range res.Deleted {
				obs = appendUnique(obs, fmt.Sprintf("%s %s %s", r.From, r.RelationType, r.To))
			}
			obs = appendUnique(obs, "F33ling State: "+signature, "Quantum Timestamp: "+dm.timestamp())
			marker := apptype.Entity{Name: dm.voidMarkerName(g, "Relation_Void_"), EntityType: echoEntityType, Observations: obs}
			g.Entities = append(g.Entities, marker)
			res.VoidMarkerCreated = true
			res.VoidMarker = marker.Name
		}
		return res.DeletedCount > 0, nil
	})
	if err != nil {
		return nil, err
	}
	success = true
	return res, nil
}

// GetRelations returns relations where name is the source or the target.
func (dm *DBManager) GetRelations(ctx context.Context, projectName string, name string) ([]apptype.Relation, error) {
	done := metrics.TimeOp("get_relations")
	success := false
	defer func() { done(success) }()

	var out []apptype.Relation
	err := dm.view(ctx, projectName, func(g *apptype.Graph) error {
		out = g.RelationsOf(name)
		return nil
	})
	if err != nil {
		return nil, err
	}
	success = true
	return out, nil
}
