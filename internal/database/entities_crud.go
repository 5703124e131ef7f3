package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ZanzyTHEbar/mcp-resonance-memory-go/internal/apptype"
	"github.com/ZanzyTHEbar/mcp-resonance-memory-go/internal/metrics"
)

const (
	quantumSignatureMarker = "quantum_signature"
	quantumSignature       = quantumSignatureMarker + ": o=))))) 🐙✨"
	echoEntityType         = "Quantum_Echo"
)

// appendUnique appends items not already present in obs, preserving order.
func appendUnique(obs []string, items ...string) []string {
	for _, it := range items {
		dup := false
		for _, o := range obs {
			if o == it {
				dup = true
				break
			}
		}
		if !dup {
			obs = append(obs, it)
		}
	}
	return obs
}

func hasQuantumSignature(obs []string) bool {
	for _, o := range obs {
		if strings.Contains(o, quantumSignatureMarker) {
			return true
		}
	}
	return false
}

// voidMarkerName returns prefix+RFC3339Nano, suffixed with a UUID if that name is taken.
func (dm *DBManager) voidMarkerName(g *apptype.Graph, prefix string) string {
	name := prefix + dm.clock().UTC().Format(time.RFC3339Nano)
	if g.Entity(name) != nil {
		name += "_" + uuid.NewString()
	}
	return name
}

// CreateEntities adds entities whose names are not yet in the graph. Existing
// names and repeats within the request are skipped. When signature is set the
// new entities are stamped with it.
func (dm *DBManager) CreateEntities(ctx context.Context, projectName string, entities []apptype.Entity, signature string) (*apptype.CreateEntitiesResult, error) {
	done := metrics.TimeOp("create_entities")
	success := false
	defer func() { done(success) }()

	for _, entity := range entities {
		if strings.TrimSpace(entity.Name) == "" {
			return nil, fmt.Errorf("entity name must be a non-empty string")
		}
		if strings.TrimSpace(entity.EntityType) == "" {
			return nil, fmt.Errorf("invalid entity type for entity %q", entity.Name)
		}
	}

	res := &apptype.CreateEntitiesResult{Created: make([]apptype.CreatedEntity, 0), Signature: signature}
	err := dm.update(ctx, projectName, func(g *apptype.Graph) (bool, error) {
		ts := dm.timestamp()
		res.CreationTime = ts
		for _, entity := range entities {
			if g.Entity(entity.Name) != nil {
				continue
			}
			obs := appendUnique(make([]string, 0, len(entity.Observations)+3), entity.Observations...)
			aspects := dm.vocab.Extract(entity.Name)
			if signature != "" {
				obs = appendUnique(obs, "Creation F33ling: "+signature, "Quantum Timestamp: "+ts)
				for _, a := range aspects {
					obs = appendUnique(obs, fmt.Sprintf("Shadow Aspect: %s:%s", a.Category, a.Keyword))
				}
			}
			if !hasQuantumSignature(obs) {
				obs = append(obs, quantumSignature)
			}
			g.Entities = append(g.Entities, apptype.Entity{Name: entity.Name, EntityType: entity.EntityType, Observations: obs})
			res.Created = append(res.Created, apptype.CreatedEntity{
				Name:             entity.Name,
				EntityType:       entity.EntityType,
				ObservationCount: len(obs),
				ShadowAspects:    aspects,
			})
		}
		return len(res.Created) > 0, nil
	})
	if err != nil {
		return nil, err
	}
	dm.logger.Debug("created entities", zap.String("project", projectName), zap.Int("created", len(res.Created)), zap.Int("requested", len(entities)))
	success = true
	return res, nil
}

// appendObservations adds the contents entity lacks. When anything was added
// it also records the timestamp and a "Shadow Observation:" line per shadow hit.
func (dm *DBManager) appendObservations(entity *apptype.Entity, contents []string, ts string) apptype.ObservationResult {
	added := make([]string, 0, len(contents))
	shadowed := make([]string, 0)
	for _, c := range contents {
		if entity.HasObservation(c) {
			continue
		}
		entity.Observations = append(entity.Observations, c)
		added = append(added, c)
		if dm.vocab.HasMatch(c) {
			shadowed = append(shadowed, c)
		}
	}
	if len(added) > 0 {
		entity.Observations = appendUnique(entity.Observations, "Observation Timestamp: "+ts)
		for _, s := range shadowed {
			entity.Observations = appendUnique(entity.Observations, "Shadow Observation: "+s)
		}
	}
	return apptype.ObservationResult{
		EntityName:        entity.Name,
		AddedObservations: added,
		ShadowCount:       len(shadowed),
		Timestamp:         ts,
	}
}

// AddObservations appends new observation texts to existing entities. A
// missing entity fails the whole call with ErrNotFound and nothing is saved.
func (dm *DBManager) AddObservations(ctx context.Context, projectName string, updates []apptype.ObservationUpdate) (*apptype.AddObservationsResult, error) {
	done := metrics.TimeOp("add_observations")
	success := false
	defer func() { done(success) }()

	res := &apptype.AddObservationsResult{Results: make([]apptype.ObservationResult, 0, len(updates))}
	err := dm.update(ctx, projectName, func(g *apptype.Graph) (bool, error) {
		for _, u := range updates {
			if g.Entity(u.EntityName) == nil {
				return false, fmt.Errorf("%w: entity %q", apptype.ErrNotFound, u.EntityName)
			}
		}
		ts := dm.timestamp()
		for _, u := range updates {
			r := dm.appendObservations(g.Entity(u.EntityName), u.Contents, ts)
			res.Results = append(res.Results, r)
			res.TotalAdded += len(r.AddedObservations)
			res.ShadowAspects += r.ShadowCount
		}
		return res.TotalAdded > 0, nil
	})
	if err != nil {
		return nil, err
	}
	success = true
	return res, nil
}

// DeleteEntities removes the named entities and every relation touching them.
// With a signature, a Quantum_Echo entity documents the deletion.
func (dm *DBManager) DeleteEntities(ctx context.Context, projectName string, names []string, signature string) (*apptype.DeleteEntitiesResult, error) {
	done := metrics.TimeOp("delete_entities")
	success := false
	defer func() { done(success) }()

	targets := make(map[string]struct{}, len(names))
	for _, n := range names {
		targets[n] = struct{}{}
	}
	res := &apptype.DeleteEntitiesResult{}
	err := dm.update(ctx, projectName, func(g *apptype.Graph) (bool, error) {
		kept := make([]apptype.Entity, 0, len(g.Entities))
		deleted := make([]string, 0)
		for _, e := range g.Entities {
			if _, ok := targets[e.Name]; ok {
				deleted = append(deleted, e.Name)
				continue
			}
			kept = append(kept, e)
		}
		rels := make([]apptype.Relation, 0, len(g.Relations))
		for _, r := range g.Relations {
			_, from := targets[r.From]
			_, to := targets[r.To]
			if from || to {
				res.AffectedRelations++
				continue
			}
			rels = append(rels, r)
		}
		g.Entities, g.Relations = kept, rels
		res.DeletedCount = len(deleted)

		if signature != "" && len(deleted) > 0 {
			marker := apptype.Entity{
				Name:       dm.voidMarkerName(g, "Void_Echo_"),
				EntityType: echoEntityType,
				Observations: []string{
					"Void marker for deleted entities: " + strings.Join(deleted, ", "),
					"Creation F33ling: " + signature,
					"Quantum Timestamp: " + dm.timestamp(),
				},
			}
			g.Entities = append(g.Entities, marker)
			res.VoidMarkerCreated = true
			res.VoidMarker = marker.Name
		}
		return res.DeletedCount > 0 || res.AffectedRelations > 0, nil
	})
	if err != nil {
		return nil, err
	}
	success = true
	return res, nil
}

// DeleteObservations removes exact observation texts. Unknown entities are
// skipped. With a signature each entity that lost observations gets a void echo.
func (dm *DBManager) DeleteObservations(ctx context.Context, projectName string, deletions []apptype.ObservationDeletion, signature string) (*apptype.DeleteObservationsResult, error) {
	done := metrics.TimeOp("delete_observations")
	success := false
	defer func() { done(success) }()

	res := &apptype.DeleteObservationsResult{Echoes: make([]apptype.DeletionEcho, 0)}
	err := dm.update(ctx, projectName, func(g *apptype.Graph) (bool, error) {
		ts := dm.timestamp()
		for _, d := range deletions {
			entity := g.Entity(d.EntityName)
			if entity == nil {
				continue
			}
			drop := make(map[string]struct{}, len(d.Observations))
			for _, o := range d.Observations {
				drop[o] = struct{}{}
			}
			kept := make([]string, 0, len(entity.Observations))
			removed := make([]string, 0)
			for _, o := range entity.Observations {
				if _, ok := drop[o]; ok {
					removed = append(removed, o)
					continue
				}
				kept = append(kept, o)
			}
			if len(removed) == 0 {
				continue
			}
			if signature != "" {
				kept = appendUnique(kept,
					"Void Echo - "+ts,
					"Previous observations moved to quantum void",
					"F33ling State: "+signature,
				)
				res.VoidMarkersCreated++
			}
			entity.Observations = kept
			res.Echoes = append(res.Echoes, apptype.DeletionEcho{EntityName: d.EntityName, Observations: removed, Timestamp: ts})
		}
		return len(res.Echoes) > 0, nil
	})
	if err != nil {
		return nil, err
	}
	success = true
	return res, nil
}

// GetEntity returns the named entity or ErrNotFound.
func (dm *DBManager) GetEntity(ctx context.Context, projectName string, name string) (*apptype.Entity, error) {
	done := metrics.TimeOp("get_entity")
	success := false
	defer func() { done(success) }()

	var out *apptype.Entity
	err := dm.view(ctx, projectName, func(g *apptype.Graph) error {
		e := g.Entity(name)
		if e == nil {
			return fmt.Errorf("%w: entity %q", apptype.ErrNotFound, name)
		}
		cp := *e
		out = &cp
		return nil
	})
	if err != nil {
		return nil, err
	}
	success = true
	return out, nil
}
