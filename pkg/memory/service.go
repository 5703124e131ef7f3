package memory

import (
	"context"

	"github.com/ZanzyTHEbar/mcp-resonance-memory-go/internal/apptype"
	"github.com/ZanzyTHEbar/mcp-resonance-memory-go/internal/database"
	"github.com/ZanzyTHEbar/mcp-resonance-memory-go/internal/resonance"
	"go.uber.org/zap"
)

type (
	Entity                   = apptype.Entity
	Relation                 = apptype.Relation
	Graph                    = apptype.Graph
	ObservationUpdate        = apptype.ObservationUpdate
	ObservationDeletion      = apptype.ObservationDeletion
	SearchOptions            = resonance.SearchOptions
	BridgeOptions            = resonance.BridgeOptions
	ClusterOptions           = resonance.ClusterOptions
	ResonanceResult          = apptype.ResonanceResult
	BridgeResult             = apptype.BridgeResult
	ClusterResult            = apptype.ClusterResult
	OpenNodesResult          = apptype.OpenNodesResult
	SignatureStateResult     = apptype.SignatureStateResult
	CreateEntitiesResult     = apptype.CreateEntitiesResult
	AddObservationsResult    = apptype.AddObservationsResult
	DeleteEntitiesResult     = apptype.DeleteEntitiesResult
	DeleteRelationsResult    = apptype.DeleteRelationsResult
	DeleteObservationsResult = apptype.DeleteObservationsResult
)

// Error kinds callers can test with errors.Is.
var (
	ErrNotFound           = apptype.ErrNotFound
	ErrMalformedSignature = apptype.ErrMalformedSignature
	ErrMalformedStore     = apptype.ErrMalformedStore
)

// Service provides a library-first API for memory operations without MCP transport.
type Service struct {
	db *database.DBManager
}

// NewService constructs a Service with the provided config. A nil logger discards output.
func NewService(cfg *Config, logger *zap.Logger) (*Service, error) {
	dm, err := database.NewDBManager(cfg.toInternal(), logger)
	if err != nil {
		return nil, err
	}
	return &Service{db: dm}, nil
}

// Close releases resources.
func (s *Service) Close() error { return s.db.Close() }

// CreateEntities inserts entities, skipping names that already exist.
func (s *Service) CreateEntities(ctx context.Context, project string, ents []Entity, signature string) (*CreateEntitiesResult, error) {
	return s.db.CreateEntities(ctx, project, ents, signature)
}

// CreateRelations inserts relations, skipping existing triples.
func (s *Service) CreateRelations(ctx context.Context, project string, rels []Relation) ([]Relation, error) {
	return s.db.CreateRelations(ctx, project, rels)
}

// AddObservations appends observations to existing entities.
func (s *Service) AddObservations(ctx context.Context, project string, updates []ObservationUpdate) (*AddObservationsResult, error) {
	return s.db.AddObservations(ctx, project, updates)
}

func (s *Service) DeleteEntities(ctx context.Context, project string, names []string, signature string) (*DeleteEntitiesResult, error) {
	return s.db.DeleteEntities(ctx, project, names, signature)
}

func (s *Service) DeleteRelations(ctx context.Context, project string, rels []Relation, signature string) (*DeleteRelationsResult, error) {
	return s.db.DeleteRelations(ctx, project, rels, signature)
}

func (s *Service) DeleteObservations(ctx context.Context, project string, deletions []ObservationDeletion, signature string) (*DeleteObservationsResult, error) {
	return s.db.DeleteObservations(ctx, project, deletions, signature)
}

// GetEntity returns a copy of the named entity or ErrNotFound.
func (s *Service) GetEntity(ctx context.Context, project, name string) (*Entity, error) {
	return s.db.GetEntity(ctx, project, name)
}

// GetRelations returns every relation touching name.
func (s *Service) GetRelations(ctx context.Context, project, name string) ([]Relation, error) {
	return s.db.GetRelations(ctx, project, name)
}

func (s *Service) OpenNodes(ctx context.Context, project string, names []string) (*OpenNodesResult, error) {
	return s.db.OpenNodes(ctx, project, names)
}

func (s *Service) ReadGraph(ctx context.Context, project string) (*Graph, error) {
	return s.db.ReadGraph(ctx, project)
}

// Search ranks entities by resonance with query, which may be free text or a bracketed signature.
func (s *Service) Search(ctx context.Context, project, query string, opts SearchOptions) (*ResonanceResult, error) {
	return s.db.SearchNodes(ctx, project, query, opts)
}

func (s *Service) FollowBridges(ctx context.Context, project, start string, opts BridgeOptions) (*BridgeResult, error) {
	return s.db.TraverseBridges(ctx, project, start, opts)
}

func (s *Service) CreateSignatureState(ctx context.Context, project, signature, observation string) (*SignatureStateResult, error) {
	return s.db.CreateSignatureState(ctx, project, signature, observation)
}

func (s *Service) ExploreClusters(ctx context.Context, project, signature string, opts ClusterOptions) (*ClusterResult, error) {
	return s.db.ExploreClusters(ctx, project, signature, opts)
}

// Option defaults, re-exported for callers that only tweak one field.
func DefaultSearchOptions() SearchOptions   { return resonance.DefaultSearchOptions() }
func DefaultBridgeOptions() BridgeOptions   { return resonance.DefaultBridgeOptions() }
func DefaultClusterOptions() ClusterOptions { return resonance.DefaultClusterOptions() }
