package database

import (
	"context"

	"github.com/ZanzyTHEbar/mcp-resonance-memory-go/internal/apptype"
)

// Store persists a whole graph as an ordered stream of records.
//
// Load on an empty or absent store returns an empty graph. Save replaces the
// stored graph wholesale; a subsequent Load never observes a partial write.
// Every mutation rewrites the full graph, so cost is O(graph size).
type Store interface {
	Load(ctx context.Context) (*apptype.Graph, error)
	Save(ctx context.Context, g *apptype.Graph) error
	Close() error
}
