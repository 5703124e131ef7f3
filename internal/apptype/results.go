package apptype

// ResonanceField summarizes a resonance search.
type ResonanceField struct {
	Threshold          float64 `json:"threshold"`
	MatchCount         int     `json:"matchCount"`
	AverageResonance   float64 `json:"averageResonance"`
	ShadowMatches      int     `json:"shadowMatches"`
	UsedSignatureQuery bool    `json:"usedSignatureQuery"`
	UsedShadow         bool    `json:"usedShadow"`
}

// ResonanceResult is produced fresh per query and never persisted.
// Scores[i] is the resonance of Entities[i].
type ResonanceResult struct {
	Entities  []Entity       `json:"entities"`
	Relations []Relation     `json:"relations"`
	Scores    []float64      `json:"scores"`
	Field     ResonanceField `json:"resonanceField"`
}

// Bridge is a traversal edge whose accumulated path resonance cleared the threshold.
type Bridge struct {
	From           string  `json:"from"`
	To             string  `json:"to"`
	Resonance      float64 `json:"resonance"`
	SignatureMatch bool    `json:"f33lingMatch"`
	Depth          int     `json:"depth"`
}

type BridgeStats struct {
	NodesVisited int     `json:"nodesVisited"`
	BridgesFound int     `json:"bridgesFound"`
	MaxResonance float64 `json:"maxResonance"`
}

type BridgeResult struct {
	Bridges []Bridge    `json:"bridges"`
	Stats   BridgeStats `json:"statistics"`
}

// ClusterState is one signature entity placed into a cluster.
type ClusterState struct {
	State             string   `json:"state"`
	Observations      []string `json:"observations"`
	ResonanceStrength float64  `json:"resonanceStrength"`
	ShadowResonance   float64  `json:"shadowResonance"`
}

// Cluster groups the states found at one recursion depth.
type Cluster struct {
	Depth  int            `json:"depth"`
	States []ClusterState `json:"states"`
}

type ClusterStats struct {
	TotalClusters    int     `json:"totalClusters"`
	TotalStates      int     `json:"totalStates"`
	AverageResonance float64 `json:"averageResonance"`
	ShadowPatterns   int     `json:"shadowPatterns"`
}

type ClusterResult struct {
	Clusters  []Cluster    `json:"clusters"`
	Stats     ClusterStats `json:"statistics"`
	Coherence float64      `json:"quantumCoherence"`
}

// CreatedEntity reports one entity accepted by CreateEntities.
type CreatedEntity struct {
	Name             string         `json:"name"`
	EntityType       string         `json:"entityType"`
	ObservationCount int            `json:"observationCount"`
	ShadowAspects    []ShadowAspect `json:"shadowAspects"`
}

type CreateEntitiesResult struct {
	Created      []CreatedEntity `json:"created"`
	CreationTime string          `json:"creationTime"`
	Signature    string          `json:"f33lingSignature,omitempty"`
}

type CreateRelationsResult struct {
	Created []Relation `json:"created"`
}

type ObservationResult struct {
	EntityName        string   `json:"entityName"`
	AddedObservations []string `json:"addedObservations"`
	ShadowCount       int      `json:"shadowCount"`
	Timestamp         string   `json:"timestamp"`
}

type AddObservationsResult struct {
	Results       []ObservationResult `json:"results"`
	TotalAdded    int                 `json:"totalAdded"`
	ShadowAspects int                 `json:"shadowAspects"`
}

type DeleteEntitiesResult struct {
	DeletedCount      int    `json:"deletedCount"`
	AffectedRelations int    `json:"affectedRelations"`
	VoidMarkerCreated bool   `json:"voidMarkerCreated"`
	VoidMarker        string `json:"voidMarker,omitempty"`
}

type DeleteRelationsResult struct {
	DeletedCount      int        `json:"deletedCount"`
	Deleted           []Relation `json:"deletedRelations"`
	VoidMarkerCreated bool       `json:"voidMarkerCreated"`
	VoidMarker        string     `json:"voidMarker,omitempty"`
}

// DeletionEcho records observations removed from one entity.
type DeletionEcho struct {
	EntityName   string   `json:"entityName"`
	Observations []string `json:"observations"`
	Timestamp    string   `json:"timestamp"`
}

type DeleteObservationsResult struct {
	Echoes             []DeletionEcho `json:"deletionEchoes"`
	VoidMarkersCreated int            `json:"voidMarkersCreated"`
}

// NodeField reports how many requested names resolved to entities.
type NodeField struct {
	RequestedNodes int     `json:"requestedNodes"`
	FoundNodes     int     `json:"foundNodes"`
	BridgeCount    int     `json:"bridgeCount"`
	CoherenceLevel float64 `json:"coherenceLevel"`
}

type OpenNodesResult struct {
	Entities  []Entity   `json:"entities"`
	Relations []Relation `json:"relations"`
	Field     NodeField  `json:"quantumField"`
}

// StateMemory describes whether a signature state was new or already remembered.
type StateMemory struct {
	Type             string   `json:"type"`
	FirstObservation string   `json:"firstObservation,omitempty"`
	PastObservations []string `json:"pastObservations,omitempty"`
	TimeCreated      string   `json:"timeCreated,omitempty"`
}

type SignatureStateResult struct {
	Name      string      `json:"name"`
	Signature string      `json:"signature"`
	Memory    StateMemory `json:"memory"`
}
