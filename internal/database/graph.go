package database

import (
	"context"

	"go.uber.org/zap"

	"github.com/ZanzyTHEbar/mcp-resonance-memory-go/internal/apptype"
	"github.com/ZanzyTHEbar/mcp-resonance-memory-go/internal/metrics"
	"github.com/ZanzyTHEbar/mcp-resonance-memory-go/internal/resonance"
	"github.com/ZanzyTHEbar/mcp-resonance-memory-go/internal/signature"
)

// ReadGraph returns the whole graph for a project.
func (dm *DBManager) ReadGraph(ctx context.Context, projectName string) (*apptype.Graph, error) {
	done := metrics.TimeOp("read_graph")
	success := false
	defer func() { done(success) }()

	var out *apptype.Graph
	err := dm.view(ctx, projectName, func(g *apptype.Graph) error {
		out = g
		return nil
	})
	if err != nil {
		return nil, err
	}
	success = true
	return out, nil
}

// OpenNodes returns the named entities in graph order and the relations whose
// endpoints were both found.
func (dm *DBManager) OpenNodes(ctx context.Context, projectName string, names []string) (*apptype.OpenNodesResult, error) {
	done := metrics.TimeOp("open_nodes")
	success := false
	defer func() { done(success) }()

	wanted := make(map[string]struct{}, len(names))
	for _, n := range names {
		wanted[n] = struct{}{}
	}
	res := &apptype.OpenNodesResult{Entities: make([]apptype.Entity, 0)}
	err := dm.view(ctx, projectName, func(g *apptype.Graph) error {
		found := make(map[string]struct{})
		for _, e := range g.Entities {
			if _, ok := wanted[e.Name]; ok {
				res.Entities = append(res.Entities, e)
				found[e.Name] = struct{}{}
			}
		}
		res.Relations = g.RelationsAmong(found)
		return nil
	})
	if err != nil {
		return nil, err
	}
	res.Field = apptype.NodeField{
		RequestedNodes: len(names),
		FoundNodes:     len(res.Entities),
		BridgeCount:    len(res.Relations),
	}
	if len(names) > 0 {
		res.Field.CoherenceLevel = float64(len(res.Entities)) / float64(len(names))
	}
	success = true
	return res, nil
}

// SearchNodes ranks the project's entities against query.
func (dm *DBManager) SearchNodes(ctx context.Context, projectName string, query string, opts resonance.SearchOptions) (*apptype.ResonanceResult, error) {
	done := metrics.TimeOp("search_nodes")
	success := false
	defer func() { done(success) }()

	var res apptype.ResonanceResult
	err := dm.view(ctx, projectName, func(g *apptype.Graph) error {
		res = resonance.Search(g, query, opts, dm.vocab)
		return nil
	})
	if err != nil {
		return nil, err
	}
	success = true
	return &res, nil
}

// TraverseBridges walks relations from start and reports resonant bridges.
func (dm *DBManager) TraverseBridges(ctx context.Context, projectName string, start string, opts resonance.BridgeOptions) (*apptype.BridgeResult, error) {
	done := metrics.TimeOp("traverse_bridges")
	success := false
	defer func() { done(success) }()

	var res apptype.BridgeResult
	err := dm.view(ctx, projectName, func(g *apptype.Graph) error {
		res = resonance.Traverse(g, start, opts)
		return nil
	})
	if err != nil {
		return nil, err
	}
	success = true
	return &res, nil
}

// ExploreClusters groups the project's signature states around signatureText.
func (dm *DBManager) ExploreClusters(ctx context.Context, projectName string, signatureText string, opts resonance.ClusterOptions) (*apptype.ClusterResult, error) {
	done := metrics.TimeOp("explore_clusters")
	success := false
	defer func() { done(success) }()

	source, err := signature.ParseFull(signatureText)
	if err != nil {
		dm.logger.Debug("rejected signature", zap.String("signature", signatureText), zap.Error(err))
		return nil, err
	}
	var res apptype.ClusterResult
	err = dm.view(ctx, projectName, func(g *apptype.Graph) error {
		res = resonance.Explore(g, source, opts)
		return nil
	})
	if err != nil {
		return nil, err
	}
	success = true
	return &res, nil
}
