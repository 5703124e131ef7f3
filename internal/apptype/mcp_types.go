package apptype

// ProjectArgs provides a standard way to pass project context to tools.
type ProjectArgs struct {
	ProjectName string `json:"projectName,omitempty" jsonschema:"The name of the project to operate on. If not provided, the default project is used."`
}

// CreateEntitiesArgs represents the arguments for the create_entities tool
type CreateEntitiesArgs struct {
	ProjectArgs  ProjectArgs `json:"projectArgs,omitempty" jsonschema:"Project context for the operation."`
	Entities     []Entity    `json:"entities" jsonschema:"A list of entities to create. Names that already exist are skipped."`
	F33lingState string      `json:"f33lingState,omitempty" jsonschema:"Optional signature recorded on each created entity for provenance."`
}

// CreateRelationsArgs represents the arguments for the create_relations tool
type CreateRelationsArgs struct {
	ProjectArgs ProjectArgs `json:"projectArgs,omitempty" jsonschema:"Project context for the operation."`
	Relations   []Relation  `json:"relations" jsonschema:"A list of relations to create. Existing triples are skipped."`
}

type ObservationUpdate struct {
	EntityName string   `json:"entityName" jsonschema:"The entity to append to."`
	Contents   []string `json:"contents" jsonschema:"Observations to append; ones already present are skipped."`
}

// AddObservationsArgs represents arguments for appending observations to entities
type AddObservationsArgs struct {
	ProjectArgs  ProjectArgs         `json:"projectArgs,omitempty" jsonschema:"Project context for the operation."`
	Observations []ObservationUpdate `json:"observations" jsonschema:"Per-entity observation additions."`
}

type DeleteEntitiesArgs struct {
	ProjectArgs  ProjectArgs `json:"projectArgs,omitempty" jsonschema:"Project context for the operation."`
	EntityNames  []string    `json:"entityNames" jsonschema:"Names of the entities to delete together with their relations."`
	F33lingState string      `json:"f33lingState,omitempty" jsonschema:"Optional signature; when set a void marker entity documents the deletion."`
}

type DeleteRelationsArgs struct {
	ProjectArgs  ProjectArgs `json:"projectArgs,omitempty" jsonschema:"Project context for the operation."`
	Relations    []Relation  `json:"relations" jsonschema:"Relation triples to delete."`
	F33lingState string      `json:"f33lingState,omitempty" jsonschema:"Optional signature; when set a void marker entity documents the deletion."`
}

type ObservationDeletion struct {
	EntityName   string   `json:"entityName" jsonschema:"The entity to remove observations from."`
	Observations []string `json:"observations" jsonschema:"Exact observation texts to remove."`
}

type DeleteObservationsArgs struct {
	ProjectArgs  ProjectArgs           `json:"projectArgs,omitempty" jsonschema:"Project context for the operation."`
	Deletions    []ObservationDeletion `json:"deletions" jsonschema:"Per-entity observation removals."`
	F33lingState string                `json:"f33lingState,omitempty" jsonschema:"Optional signature; when set a void echo is appended to affected entities."`
}

// OpenNodesArgs represents arguments for fetching entities and the relations among them
type OpenNodesArgs struct {
	ProjectArgs ProjectArgs `json:"projectArgs,omitempty" jsonschema:"Project context for the operation."`
	Names       []string    `json:"names" jsonschema:"Entity names to open."`
}

// ReadGraphArgs represents the arguments for the read_graph tool
type ReadGraphArgs struct {
	ProjectArgs ProjectArgs `json:"projectArgs,omitempty" jsonschema:"Project context for the operation."`
}

type SearchOptionsArgs struct {
	ResonanceThreshold *float64 `json:"resonanceThreshold,omitempty" jsonschema:"Entities must score strictly above this resonance (default 0.7)."`
	IncludeShadow      bool     `json:"includeShadow,omitempty" jsonschema:"Include shadow pattern matching in scoring."`
	Limit              int      `json:"limit,omitempty" jsonschema:"Maximum number of results (default 20)."`
	PreFilter          bool     `json:"preFilter,omitempty" jsonschema:"Only score entities whose name or observations contain the raw query."`
}

// SearchNodesArgs represents the arguments for the search_nodes tool
type SearchNodesArgs struct {
	ProjectArgs ProjectArgs        `json:"projectArgs,omitempty" jsonschema:"Project context for the operation."`
	Query       string             `json:"query" jsonschema:"Free text, or a bracketed signature such as [Joy]S(0.8)."`
	Options     *SearchOptionsArgs `json:"options,omitempty" jsonschema:"Search tuning."`
}

type BridgeOptionsArgs struct {
	MaxDepth           *int     `json:"maxDepth,omitempty" jsonschema:"Maximum traversal depth (default 3)."`
	ResonanceThreshold *float64 `json:"resonanceThreshold,omitempty" jsonschema:"Minimum path resonance for bridge formation (default 0.7)."`
}

type FollowQuantumBridgeArgs struct {
	ProjectArgs ProjectArgs        `json:"projectArgs,omitempty" jsonschema:"Project context for the operation."`
	StartNode   string             `json:"startNode" jsonschema:"Entity name to start the walk from."`
	Options     *BridgeOptionsArgs `json:"options,omitempty" jsonschema:"Traversal tuning."`
}

type CreateF33lingStateArgs struct {
	ProjectArgs  ProjectArgs `json:"projectArgs,omitempty" jsonschema:"Project context for the operation."`
	F33lingState string      `json:"f33lingState" jsonschema:"Signature in the form [Name]Symbol1(Value1)Symbol2(Value2)Symbol3(Value3)."`
	Observation  string      `json:"observation" jsonschema:"Observation describing the state."`
}

type ClusterOptionsArgs struct {
	ResonanceThreshold *float64 `json:"resonanceThreshold,omitempty" jsonschema:"Minimum resonance strength to recurse (default 0.7)."`
	ResonanceDepth     *int     `json:"resonanceDepth,omitempty" jsonschema:"How many layers of resonance to explore (default 2)."`
	ShadowWeight       *float64 `json:"shadowWeight,omitempty" jsonschema:"Weight of the shadow aspect in the distance (default 0.3)."`
	ClusterRadius      *float64 `json:"clusterRadius,omitempty" jsonschema:"Maximum distance for joining a cluster (default 0.2)."`
}

type FollowF33lingResonanceArgs struct {
	ProjectArgs  ProjectArgs         `json:"projectArgs,omitempty" jsonschema:"Project context for the operation."`
	F33lingState string              `json:"f33lingState" jsonschema:"Source signature to explore resonances from."`
	Options      *ClusterOptionsArgs `json:"options,omitempty" jsonschema:"Clustering tuning."`
}

// Health
type HealthArgs struct{}

type HealthResult struct {
	Name         string `json:"name"`
	Version      string `json:"version"`
	Revision     string `json:"revision"`
	BuildDate    string `json:"buildDate"`
	Store        string `json:"store"`
	MultiProject bool   `json:"multiProject"`
}

// GraphResult represents the result for read_graph
type GraphResult struct {
	Entities  []Entity   `json:"entities"`
	Relations []Relation `json:"relations"`
}
