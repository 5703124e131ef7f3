package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/ZanzyTHEbar/mcp-resonance-memory-go/internal/apptype"
	"github.com/ZanzyTHEbar/mcp-resonance-memory-go/internal/buildinfo"
	"github.com/ZanzyTHEbar/mcp-resonance-memory-go/internal/database"
	"github.com/ZanzyTHEbar/mcp-resonance-memory-go/internal/metrics"
	"github.com/ZanzyTHEbar/mcp-resonance-memory-go/internal/resonance"
	"github.com/modelcontextprotocol/go-sdk/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"
)

const (
	serverName     = "mcp-resonance-memory"
	defaultProject = "default"
)

// MCPServer handles MCP protocol communication
type MCPServer struct {
	server *mcp.Server
	db     *database.DBManager
	logger *zap.Logger
}

// NewMCPServer creates a new MCP server
func NewMCPServer(db *database.DBManager, logger *zap.Logger) *MCPServer {
	if logger == nil {
		logger = zap.NewNop()
	}
	server := mcp.NewServer(&mcp.Implementation{
		Name:    serverName,
		Version: buildinfo.Version,
	}, nil)

	mcpServer := &MCPServer{
		server: server,
		db:     db,
		logger: logger,
	}
	mcpServer.setupToolHandlers()
	return mcpServer
}

// schemaFor builds a fresh schema per call; resolved schemas are not shared between tools.
func schemaFor[T any]() *jsonschema.Schema {
	s, err := jsonschema.For[T]()
	if err != nil {
		var zero T
		panic(fmt.Sprintf("failed to create schema for %T: %v", zero, err))
	}
	return s
}

// setupToolHandlers registers all MCP tools
func (s *MCPServer) setupToolHandlers() {
	mcp.AddTool(s.server, &mcp.Tool{
		Annotations:  &mcp.ToolAnnotations{Title: "Create Entities"},
		Name:         "create_entities",
		Title:        "Create Entities",
		Description:  "Create new entities with observations. An optional F33ling signature is recorded on each new entity together with any shadow aspects found in its name.",
		InputSchema:  schemaFor[apptype.CreateEntitiesArgs](),
		OutputSchema: schemaFor[apptype.CreateEntitiesResult](),
	}, s.handleCreateEntities)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:         "create_relations",
		Title:        "Create Relations",
		Description:  "Create directed relations between entities. Existing relations are skipped.",
		InputSchema:  schemaFor[apptype.CreateRelationsArgs](),
		OutputSchema: schemaFor[apptype.CreateRelationsResult](),
	}, s.handleCreateRelations)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:         "add_observations",
		Title:        "Add Observations",
		Description:  "Append observations to existing entities, tracking shadow patterns in the new text.",
		InputSchema:  schemaFor[apptype.AddObservationsArgs](),
		OutputSchema: schemaFor[apptype.AddObservationsResult](),
	}, s.handleAddObservations)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:         "delete_entities",
		Title:        "Delete Entities",
		Description:  "Delete entities and every relation touching them. With a signature, a void marker documents the deletion.",
		InputSchema:  schemaFor[apptype.DeleteEntitiesArgs](),
		OutputSchema: schemaFor[apptype.DeleteEntitiesResult](),
	}, s.handleDeleteEntities)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:         "delete_relations",
		Title:        "Delete Relations",
		Description:  "Delete relation triples. With a signature, a void marker documents the deletion.",
		InputSchema:  schemaFor[apptype.DeleteRelationsArgs](),
		OutputSchema: schemaFor[apptype.DeleteRelationsResult](),
	}, s.handleDeleteRelations)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:         "delete_observations",
		Title:        "Delete Observations",
		Description:  "Remove observations from entities. With a signature, a void echo is left on each affected entity.",
		InputSchema:  schemaFor[apptype.DeleteObservationsArgs](),
		OutputSchema: schemaFor[apptype.DeleteObservationsResult](),
	}, s.handleDeleteObservations)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:         "open_nodes",
		Title:        "Open Nodes",
		Description:  "Retrieve entities by name with the relations among them and a coherence summary.",
		InputSchema:  schemaFor[apptype.OpenNodesArgs](),
		OutputSchema: schemaFor[apptype.OpenNodesResult](),
	}, s.handleOpenNodes)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:         "read_graph",
		Title:        "Read Graph",
		Description:  "Read the entire knowledge graph.",
		InputSchema:  schemaFor[apptype.ReadGraphArgs](),
		OutputSchema: schemaFor[apptype.GraphResult](),
	}, s.handleReadGraph)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:         "search_nodes",
		Title:        "Search Nodes",
		Description:  "Resonance search over entities using free text or a bracketed signature query.",
		InputSchema:  schemaFor[apptype.SearchNodesArgs](),
		OutputSchema: schemaFor[apptype.ResonanceResult](),
	}, s.handleSearchNodes)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:         "follow_quantum_bridge",
		Title:        "Follow Quantum Bridge",
		Description:  "Walk relations from a start entity and report edges whose accumulated resonance clears the threshold.",
		InputSchema:  schemaFor[apptype.FollowQuantumBridgeArgs](),
		OutputSchema: schemaFor[apptype.BridgeResult](),
	}, s.handleFollowQuantumBridge)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:         "create_f33ling_state",
		Title:        "Create F33ling State",
		Description:  "Record a full signature as a state entity linked to the trinity field, or append to an existing one.",
		InputSchema:  schemaFor[apptype.CreateF33lingStateArgs](),
		OutputSchema: schemaFor[apptype.SignatureStateResult](),
	}, s.handleCreateF33lingState)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:         "follow_f33ling_resonance",
		Title:        "Follow F33ling Resonance",
		Description:  "Group stored states into depth-indexed clusters around a source signature.",
		InputSchema:  schemaFor[apptype.FollowF33lingResonanceArgs](),
		OutputSchema: schemaFor[apptype.ClusterResult](),
	}, s.handleFollowF33lingResonance)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:         "health_check",
		Title:        "Health Check",
		Description:  "Returns server and configuration information.",
		InputSchema:  schemaFor[apptype.HealthArgs](),
		OutputSchema: schemaFor[apptype.HealthResult](),
	}, s.handleHealth)
}

func (s *MCPServer) getProjectName(providedName string) string {
	if providedName != "" {
		return providedName
	}
	return defaultProject
}

// summary renders a structured result as the text content clients without
// structured output support fall back to.
func summary(prefix string, v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return prefix
	}
	return prefix + "\n" + string(b)
}

func searchOptions(args *apptype.SearchOptionsArgs) resonance.SearchOptions {
	opts := resonance.DefaultSearchOptions()
	if args == nil {
		return opts
	}
	if args.ResonanceThreshold != nil {
		opts.Threshold = *args.ResonanceThreshold
	}
	if args.Limit > 0 {
		opts.Limit = args.Limit
	}
	opts.IncludeShadow = args.IncludeShadow
	opts.PreFilter = args.PreFilter
	return opts
}

func bridgeOptions(args *apptype.BridgeOptionsArgs) resonance.BridgeOptions {
	opts := resonance.DefaultBridgeOptions()
	if args == nil {
		return opts
	}
	if args.MaxDepth != nil {
		opts.MaxDepth = *args.MaxDepth
	}
	if args.ResonanceThreshold != nil {
		opts.Threshold = *args.ResonanceThreshold
	}
	return opts
}

func clusterOptions(args *apptype.ClusterOptionsArgs) resonance.ClusterOptions {
	opts := resonance.DefaultClusterOptions()
	if args == nil {
		return opts
	}
	if args.ResonanceThreshold != nil {
		opts.Threshold = *args.ResonanceThreshold
	}
	if args.ResonanceDepth != nil {
		opts.Depth = *args.ResonanceDepth
	}
	if args.ShadowWeight != nil {
		opts.ShadowWeight = *args.ShadowWeight
	}
	if args.ClusterRadius != nil {
		opts.ClusterRadius = *args.ClusterRadius
	}
	return opts
}

// handleCreateEntities handles the create_entities tool call
func (s *MCPServer) handleCreateEntities(
	ctx context.Context,
	session *mcp.ServerSession,
	params *mcp.CallToolParamsFor[apptype.CreateEntitiesArgs],
) (*mcp.CallToolResultFor[apptype.CreateEntitiesResult], error) {
	done := metrics.TimeTool("create_entities")
	var success bool
	defer func() { done(success) }()
	projectName := s.getProjectName(params.Arguments.ProjectArgs.ProjectName)

	res, err := s.db.CreateEntities(ctx, projectName, params.Arguments.Entities, params.Arguments.F33lingState)
	if err != nil {
		return nil, fmt.Errorf("failed to create entities: %w", err)
	}
	success = true
	return &mcp.CallToolResultFor[apptype.CreateEntitiesResult]{
		Content: []mcp.Content{&mcp.TextContent{
			Text: summary(fmt.Sprintf("Created %d entities in project %s", len(res.Created), projectName), res),
		}},
		StructuredContent: *res,
	}, nil
}

// handleCreateRelations handles the create_relations tool call
func (s *MCPServer) handleCreateRelations(
	ctx context.Context,
	session *mcp.ServerSession,
	params *mcp.CallToolParamsFor[apptype.CreateRelationsArgs],
) (*mcp.CallToolResultFor[apptype.CreateRelationsResult], error) {
	done := metrics.TimeTool("create_relations")
	var success bool
	defer func() { done(success) }()
	projectName := s.getProjectName(params.Arguments.ProjectArgs.ProjectName)

	created, err := s.db.CreateRelations(ctx, projectName, params.Arguments.Relations)
	if err != nil {
		return nil, fmt.Errorf("failed to create relations: %w", err)
	}
	success = true
	res := apptype.CreateRelationsResult{Created: created}
	return &mcp.CallToolResultFor[apptype.CreateRelationsResult]{
		Content: []mcp.Content{&mcp.TextContent{
			Text: summary(fmt.Sprintf("Created %d relations in project %s", len(created), projectName), res),
		}},
		StructuredContent: res,
	}, nil
}

// handleAddObservations handles the add_observations tool call
func (s *MCPServer) handleAddObservations(
	ctx context.Context,
	session *mcp.ServerSession,
	params *mcp.CallToolParamsFor[apptype.AddObservationsArgs],
) (*mcp.CallToolResultFor[apptype.AddObservationsResult], error) {
	done := metrics.TimeTool("add_observations")
	var success bool
	defer func() { done(success) }()
	projectName := s.getProjectName(params.Arguments.ProjectArgs.ProjectName)

	res, err := s.db.AddObservations(ctx, projectName, params.Arguments.Observations)
	if err != nil {
		return nil, fmt.Errorf("failed to add observations: %w", err)
	}
	success = true
	return &mcp.CallToolResultFor[apptype.AddObservationsResult]{
		Content: []mcp.Content{&mcp.TextContent{
			Text: summary(fmt.Sprintf("Added %d observations in project %s", res.TotalAdded, projectName), res),
		}},
		StructuredContent: *res,
	}, nil
}

// handleDeleteEntities handles bulk entity deletion
func (s *MCPServer) handleDeleteEntities(
	ctx context.Context,
	session *mcp.ServerSession,
	params *mcp.CallToolParamsFor[apptype.DeleteEntitiesArgs],
) (*mcp.CallToolResultFor[apptype.DeleteEntitiesResult], error) {
	done := metrics.TimeTool("delete_entities")
	var success bool
	defer func() { done(success) }()
	projectName := s.getProjectName(params.Arguments.ProjectArgs.ProjectName)

	res, err := s.db.DeleteEntities(ctx, projectName, params.Arguments.EntityNames, params.Arguments.F33lingState)
	if err != nil {
		return nil, fmt.Errorf("failed to delete entities: %w", err)
	}
	success = true
	return &mcp.CallToolResultFor[apptype.DeleteEntitiesResult]{
		Content: []mcp.Content{&mcp.TextContent{
			Text: summary(fmt.Sprintf("Deleted %d entities in project %s", res.DeletedCount, projectName), res),
		}},
		StructuredContent: *res,
	}, nil
}

// handleDeleteRelations handles bulk relation deletion
func (s *MCPServer) handleDeleteRelations(
	ctx context.Context,
	session *mcp.ServerSession,
	params *mcp.CallToolParamsFor[apptype.DeleteRelationsArgs],
) (*mcp.CallToolResultFor[apptype.DeleteRelationsResult], error) {
	done := metrics.TimeTool("delete_relations")
	var success bool
	defer func() { done(success) }()
	projectName := s.getProjectName(params.Arguments.ProjectArgs.ProjectName)

	res, err := s.db.DeleteRelations(ctx, projectName, params.Arguments.Relations, params.Arguments.F33lingState)
	if err != nil {
		return nil, fmt.Errorf("failed to delete relations: %w", err)
	}
	success = true
	return &mcp.CallToolResultFor[apptype.DeleteRelationsResult]{
		Content: []mcp.Content{&mcp.TextContent{
			Text: summary(fmt.Sprintf("Deleted %d relations in project %s", res.DeletedCount, projectName), res),
		}},
		StructuredContent: *res,
	}, nil
}

// handleDeleteObservations handles observation deletion
func (s *MCPServer) handleDeleteObservations(
	ctx context.Context,
	session *mcp.ServerSession,
	params *mcp.CallToolParamsFor[apptype.DeleteObservationsArgs],
) (*mcp.CallToolResultFor[apptype.DeleteObservationsResult], error) {
	done := metrics.TimeTool("delete_observations")
	var success bool
	defer func() { done(success) }()
	projectName := s.getProjectName(params.Arguments.ProjectArgs.ProjectName)

	res, err := s.db.DeleteObservations(ctx, projectName, params.Arguments.Deletions, params.Arguments.F33lingState)
	if err != nil {
		return nil, fmt.Errorf("failed to delete observations: %w", err)
	}
	success = true
	return &mcp.CallToolResultFor[apptype.DeleteObservationsResult]{
		Content: []mcp.Content{&mcp.TextContent{
			Text: summary(fmt.Sprintf("Deleted observations from %d entities in project %s", len(res.Echoes), projectName), res),
		}},
		StructuredContent: *res,
	}, nil
}

// handleOpenNodes handles the open_nodes tool call
func (s *MCPServer) handleOpenNodes(
	ctx context.Context,
	session *mcp.ServerSession,
	params *mcp.CallToolParamsFor[apptype.OpenNodesArgs],
) (*mcp.CallToolResultFor[apptype.OpenNodesResult], error) {
	done := metrics.TimeTool("open_nodes")
	var success bool
	defer func() { done(success) }()
	projectName := s.getProjectName(params.Arguments.ProjectArgs.ProjectName)

	res, err := s.db.OpenNodes(ctx, projectName, params.Arguments.Names)
	if err != nil {
		return nil, fmt.Errorf("failed to open nodes: %w", err)
	}
	success = true
	return &mcp.CallToolResultFor[apptype.OpenNodesResult]{
		Content:           []mcp.Content{&mcp.TextContent{Text: summary("Open nodes completed", res)}},
		StructuredContent: *res,
	}, nil
}

// handleReadGraph handles the read_graph tool call
func (s *MCPServer) handleReadGraph(
	ctx context.Context,
	session *mcp.ServerSession,
	params *mcp.CallToolParamsFor[apptype.ReadGraphArgs],
) (*mcp.CallToolResultFor[apptype.GraphResult], error) {
	done := metrics.TimeTool("read_graph")
	var success bool
	defer func() { done(success) }()
	projectName := s.getProjectName(params.Arguments.ProjectArgs.ProjectName)

	g, err := s.db.ReadGraph(ctx, projectName)
	if err != nil {
		return nil, fmt.Errorf("read graph failed: %w", err)
	}
	success = true
	res := apptype.GraphResult{Entities: g.Entities, Relations: g.Relations}
	return &mcp.CallToolResultFor[apptype.GraphResult]{
		Content:           []mcp.Content{&mcp.TextContent{Text: summary("Graph read successfully", res)}},
		StructuredContent: res,
	}, nil
}

// handleSearchNodes handles the search_nodes tool call
func (s *MCPServer) handleSearchNodes(
	ctx context.Context,
	session *mcp.ServerSession,
	params *mcp.CallToolParamsFor[apptype.SearchNodesArgs],
) (*mcp.CallToolResultFor[apptype.ResonanceResult], error) {
	done := metrics.TimeTool("search_nodes")
	var success bool
	defer func() { done(success) }()
	projectName := s.getProjectName(params.Arguments.ProjectArgs.ProjectName)

	res, err := s.db.SearchNodes(ctx, projectName, params.Arguments.Query, searchOptions(params.Arguments.Options))
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}
	success = true
	return &mcp.CallToolResultFor[apptype.ResonanceResult]{
		Content: []mcp.Content{&mcp.TextContent{
			Text: summary(fmt.Sprintf("Found %d resonant entities", res.Field.MatchCount), res),
		}},
		StructuredContent: *res,
	}, nil
}

// handleFollowQuantumBridge handles the follow_quantum_bridge tool call
func (s *MCPServer) handleFollowQuantumBridge(
	ctx context.Context,
	session *mcp.ServerSession,
	params *mcp.CallToolParamsFor[apptype.FollowQuantumBridgeArgs],
) (*mcp.CallToolResultFor[apptype.BridgeResult], error) {
	done := metrics.TimeTool("follow_quantum_bridge")
	var success bool
	defer func() { done(success) }()
	projectName := s.getProjectName(params.Arguments.ProjectArgs.ProjectName)

	res, err := s.db.TraverseBridges(ctx, projectName, params.Arguments.StartNode, bridgeOptions(params.Arguments.Options))
	if err != nil {
		return nil, fmt.Errorf("bridge traversal failed: %w", err)
	}
	success = true
	return &mcp.CallToolResultFor[apptype.BridgeResult]{
		Content: []mcp.Content{&mcp.TextContent{
			Text: summary(fmt.Sprintf("Found %d bridges from %q", res.Stats.BridgesFound, params.Arguments.StartNode), res),
		}},
		StructuredContent: *res,
	}, nil
}

// handleCreateF33lingState handles the create_f33ling_state tool call
func (s *MCPServer) handleCreateF33lingState(
	ctx context.Context,
	session *mcp.ServerSession,
	params *mcp.CallToolParamsFor[apptype.CreateF33lingStateArgs],
) (*mcp.CallToolResultFor[apptype.SignatureStateResult], error) {
	done := metrics.TimeTool("create_f33ling_state")
	var success bool
	defer func() { done(success) }()
	projectName := s.getProjectName(params.Arguments.ProjectArgs.ProjectName)

	res, err := s.db.CreateSignatureState(ctx, projectName, params.Arguments.F33lingState, params.Arguments.Observation)
	if err != nil {
		return nil, fmt.Errorf("failed to create state: %w", err)
	}
	success = true
	return &mcp.CallToolResultFor[apptype.SignatureStateResult]{
		Content: []mcp.Content{&mcp.TextContent{
			Text: summary(fmt.Sprintf("State %s (%s)", res.Name, res.Memory.Type), res),
		}},
		StructuredContent: *res,
	}, nil
}

// handleFollowF33lingResonance handles the follow_f33ling_resonance tool call
func (s *MCPServer) handleFollowF33lingResonance(
	ctx context.Context,
	session *mcp.ServerSession,
	params *mcp.CallToolParamsFor[apptype.FollowF33lingResonanceArgs],
) (*mcp.CallToolResultFor[apptype.ClusterResult], error) {
	done := metrics.TimeTool("follow_f33ling_resonance")
	var success bool
	defer func() { done(success) }()
	projectName := s.getProjectName(params.Arguments.ProjectArgs.ProjectName)

	res, err := s.db.ExploreClusters(ctx, projectName, params.Arguments.F33lingState, clusterOptions(params.Arguments.Options))
	if err != nil {
		return nil, fmt.Errorf("resonance exploration failed: %w", err)
	}
	success = true
	return &mcp.CallToolResultFor[apptype.ClusterResult]{
		Content: []mcp.Content{&mcp.TextContent{
			Text: summary(fmt.Sprintf("Found %d clusters", res.Stats.TotalClusters), res),
		}},
		StructuredContent: *res,
	}, nil
}

// handleHealth returns basic server health information
func (s *MCPServer) handleHealth(
	ctx context.Context,
	session *mcp.ServerSession,
	params *mcp.CallToolParamsFor[apptype.HealthArgs],
) (*mcp.CallToolResultFor[apptype.HealthResult], error) {
	done := metrics.TimeTool("health_check")
	defer func() { done(true) }()
	cfg := s.db.Config()
	res := apptype.HealthResult{
		Name:         serverName,
		Version:      buildinfo.Version,
		Revision:     buildinfo.Revision,
		BuildDate:    buildinfo.BuildDate,
		Store:        cfg.Store,
		MultiProject: cfg.MultiProjectMode,
	}
	return &mcp.CallToolResultFor[apptype.HealthResult]{
		Content:           []mcp.Content{&mcp.TextContent{Text: "ok"}},
		StructuredContent: res,
	}, nil
}

// Run starts the MCP server with stdio transport
func (s *MCPServer) Run(ctx context.Context) error {
	s.logger.Info("stdio MCP server starting")
	transport := mcp.NewStdioTransport()
	return s.server.Run(ctx, transport)
}

// RunSSE starts the MCP server over SSE at the given address and endpoint
func (s *MCPServer) RunSSE(ctx context.Context, addr string, endpoint string) error {
	handler := mcp.NewSSEHandler(func(r *http.Request) *mcp.Server { return s.server })
	mux := http.NewServeMux()
	mux.Handle(endpoint, handler)
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info("SSE MCP server listening", zap.String("addr", addr), zap.String("endpoint", endpoint))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
