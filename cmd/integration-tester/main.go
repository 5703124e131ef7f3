package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/ZanzyTHEbar/mcp-resonance-memory-go/internal/apptype"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type StepResult struct {
	Name      string `json:"name"`
	Success   bool   `json:"success"`
	Error     string `json:"error,omitempty"`
	ElapsedMs int64  `json:"elapsed_ms"`
}

type Report struct {
	SSEURL     string       `json:"sse_url"`
	StartedAt  time.Time    `json:"started_at"`
	DurationMs int64        `json:"duration_ms"`
	Steps      []StepResult `json:"steps"`
	Passed     bool         `json:"passed"`
}

const testSignature = "[Wonder]S(0.8)A(0.6)H(0.2)"

func main() {
	sseURL := flag.String("sse-url", "http://localhost:8080/sse", "SSE endpoint URL")
	project := flag.String("project", "default", "Project name to use")
	timeout := flag.Duration("timeout", 30*time.Second, "Overall timeout")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	client := mcp.NewClient(&mcp.Implementation{Name: "integration-tester", Version: "dev"}, nil)
	transport := mcp.NewSSEClientTransport(*sseURL, nil)

	start := time.Now()
	report := Report{SSEURL: *sseURL, StartedAt: start}
	steps := make([]StepResult, 0, 16)

	tConn := time.Now()
	connRes := StepResult{Name: "connect"}
	session, err := client.Connect(ctx, transport)
	if err != nil {
		connRes.Error = err.Error()
		connRes.ElapsedMs = elapsedMsSince(tConn)
		report.Steps = append(steps, connRes)
		report.DurationMs = elapsedMsSince(start)
		writeReport(report)
		os.Exit(1)
	}
	defer session.Close()
	connRes.Success = true
	connRes.ElapsedMs = elapsedMsSince(tConn)
	steps = append(steps, connRes)

	steps = append(steps, runListTools(ctx, session))
	steps = append(steps, runSteps(ctx, session, scenario(apptype.ProjectArgs{ProjectName: *project}))...)

	report.Steps = steps
	report.DurationMs = elapsedMsSince(start)
	report.Passed = true
	for _, s := range steps {
		if !s.Success {
			report.Passed = false
			break
		}
	}
	writeReport(report)

	if !report.Passed {
		os.Exit(1)
	}
}

// toolStep is one tool invocation of the scenario.
type toolStep struct {
	name string
	tool string
	args any
}

// scenario exercises every tool against a small graph: a, b and c in a
// chain plus one signature state, then tears the graph down again.
func scenario(p apptype.ProjectArgs) []toolStep {
	return []toolStep{
		{"seed_entities", "create_entities", apptype.CreateEntitiesArgs{
			ProjectArgs: p,
			Entities: []apptype.Entity{
				{Name: "a", EntityType: "t", Observations: []string{"oa", "[Wonder]S(0.8)"}},
				{Name: "b", EntityType: "t", Observations: []string{"ob", "[Wonder]S(0.7)"}},
				{Name: "c", EntityType: "t", Observations: []string{"oc"}},
			},
			F33lingState: testSignature,
		}},
		{"seed_relations", "create_relations", apptype.CreateRelationsArgs{
			ProjectArgs: p,
			Relations: []apptype.Relation{
				{From: "a", To: "b", RelationType: "r"},
				{From: "b", To: "c", RelationType: "r"},
			},
		}},
		{"add_observations", "add_observations", apptype.AddObservationsArgs{
			ProjectArgs:  p,
			Observations: []apptype.ObservationUpdate{{EntityName: "c", Contents: []string{"an echo in the void"}}},
		}},
		{"open_nodes", "open_nodes", apptype.OpenNodesArgs{ProjectArgs: p, Names: []string{"a", "b", "missing"}}},
		{"read_graph", "read_graph", apptype.ReadGraphArgs{ProjectArgs: p}},
		{"search_text", "search_nodes", apptype.SearchNodesArgs{ProjectArgs: p, Query: "a"}},
		{"search_signature", "search_nodes", apptype.SearchNodesArgs{
			ProjectArgs: p,
			Query:       "[Wonder]S(0.8)",
			Options:     &apptype.SearchOptionsArgs{IncludeShadow: true, Limit: 5},
		}},
		{"follow_quantum_bridge", "follow_quantum_bridge", apptype.FollowQuantumBridgeArgs{ProjectArgs: p, StartNode: "a"}},
		{"create_f33ling_state", "create_f33ling_state", apptype.CreateF33lingStateArgs{
			ProjectArgs: p, F33lingState: testSignature, Observation: "integration run",
		}},
		{"follow_f33ling_resonance", "follow_f33ling_resonance", apptype.FollowF33lingResonanceArgs{
			ProjectArgs: p, F33lingState: testSignature,
		}},
		{"delete_observations", "delete_observations", apptype.DeleteObservationsArgs{
			ProjectArgs:  p,
			Deletions:    []apptype.ObservationDeletion{{EntityName: "a", Observations: []string{"oa"}}},
			F33lingState: testSignature,
		}},
		{"delete_relations", "delete_relations", apptype.DeleteRelationsArgs{
			ProjectArgs:  p,
			Relations:    []apptype.Relation{{From: "b", To: "c", RelationType: "r"}},
			F33lingState: testSignature,
		}},
		{"delete_entities", "delete_entities", apptype.DeleteEntitiesArgs{
			ProjectArgs:  p,
			EntityNames:  []string{"a", "b", "c"},
			F33lingState: testSignature,
		}},
		{"health_check", "health_check", apptype.HealthArgs{}},
	}
}

func runSteps(ctx context.Context, session *mcp.ClientSession, steps []toolStep) []StepResult {
	results := make([]StepResult, 0, len(steps))
	for _, s := range steps {
		results = append(results, runTool(ctx, session, s))
	}
	return results
}

func runListTools(ctx context.Context, session *mcp.ClientSession) StepResult {
	t0 := time.Now()
	res := StepResult{Name: "list_tools"}
	if _, err := session.ListTools(ctx, &mcp.ListToolsParams{}); err != nil {
		res.Error = err.Error()
	} else {
		res.Success = true
	}
	res.ElapsedMs = elapsedMsSince(t0)
	return res
}

func runTool(ctx context.Context, session *mcp.ClientSession, step toolStep) StepResult {
	t0 := time.Now()
	res := StepResult{Name: step.name}
	if err := callTool(ctx, session, step.tool, step.args); err != nil {
		res.Error = err.Error()
	} else {
		res.Success = true
	}
	res.ElapsedMs = elapsedMsSince(t0)
	return res
}

func callTool(ctx context.Context, session *mcp.ClientSession, tool string, args any) error {
	raw, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("marshal %s args: %w", tool, err)
	}
	out, err := session.CallTool(ctx, &mcp.CallToolParams{Name: tool, Arguments: json.RawMessage(raw)})
	if err != nil {
		return err
	}
	if out.IsError {
		for _, c := range out.Content {
			if t, ok := c.(*mcp.TextContent); ok {
				return errors.New(t.Text)
			}
		}
		return fmt.Errorf("%s reported an error", tool)
	}
	return nil
}

func writeReport(report Report) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(report)
}

func elapsedMsSince(t time.Time) int64 {
	return time.Since(t).Milliseconds()
}
