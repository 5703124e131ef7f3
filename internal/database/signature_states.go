package database

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/ZanzyTHEbar/mcp-resonance-memory-go/internal/apptype"
	"github.com/ZanzyTHEbar/mcp-resonance-memory-go/internal/metrics"
	"github.com/ZanzyTHEbar/mcp-resonance-memory-go/internal/resonance"
	"github.com/ZanzyTHEbar/mcp-resonance-memory-go/internal/signature"
)

const (
	// TrinityField is the hub every new signature state is bridged to.
	TrinityField = "F33ling_Trinity_Field"

	firstResonancePrefix = "First resonance: "
)

// CreateSignatureState records observation against the state named by the
// canonical rendering of signatureText. A new state is bridged to the
// trinity field in both directions; a known state only gains the observation.
func (dm *DBManager) CreateSignatureState(ctx context.Context, projectName string, signatureText string, observation string) (*apptype.SignatureStateResult, error) {
	done := metrics.TimeOp("create_signature_state")
	success := false
	defer func() { done(success) }()

	sig, err := signature.ParseFull(signatureText)
	if err != nil {
		dm.logger.Debug("rejected signature", zap.String("signature", signatureText), zap.Error(err))
		return nil, err
	}
	name := signature.Render(sig)
	res := &apptype.SignatureStateResult{Name: name, Signature: signature.Format(sig)}

	err = dm.update(ctx, projectName, func(g *apptype.Graph) (bool, error) {
		if existing := g.Entity(name); existing != nil {
			past := append([]string(nil), existing.Observations...)
			res.Memory = apptype.StateMemory{Type: "existing", PastObservations: past}
			for _, o := range past {
				if strings.HasPrefix(o, firstResonancePrefix) {
					res.Memory.TimeCreated = o
					break
				}
			}
			added := dm.appendObservations(existing, []string{observation}, dm.timestamp())
			return len(added.AddedObservations) > 0, nil
		}

		ts := dm.timestamp()
		g.Entities = append(g.Entities, apptype.Entity{
			Name:       name,
			EntityType: resonance.StateEntityType,
			Observations: appendUnique(nil,
				observation,
				firstResonancePrefix+ts,
				"Signature: "+signature.Format(sig),
			),
		})
		for _, r := range []apptype.Relation{
			{From: name, To: TrinityField, RelationType: "resonates_within"},
			{From: TrinityField, To: name, RelationType: "holds_state"},
		} {
			if !g.HasRelation(r) {
				g.Relations = append(g.Relations, r)
			}
		}
		res.Memory = apptype.StateMemory{Type: "new", FirstObservation: observation, TimeCreated: ts}
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	success = true
	return res, nil
}
