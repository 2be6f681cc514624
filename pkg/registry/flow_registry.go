// Package registry manages flow metadata: creation, slug resolution,
// publishing and API key management.
package registry

import (
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/RantirAI/RantirCloud3.2-sub009/pkg/models"
	"github.com/RantirAI/RantirCloud3.2-sub009/pkg/runtime"
	"github.com/RantirAI/RantirCloud3.2-sub009/pkg/storage"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

// FlowRegistry is the authority on flow metadata and published graphs.
type FlowRegistry struct {
	store storage.FlowStore
}

// NewFlowRegistry creates a flow registry.
func NewFlowRegistry(store storage.FlowStore) *FlowRegistry {
	return &FlowRegistry{store: store}
}

// Create registers a new draft flow under a unique endpoint slug.
func (r *FlowRegistry) Create(name, slug string) (models.Flow, error) {
	if name == "" {
		return models.Flow{}, fmt.Errorf("flow name is required")
	}
	if !slugPattern.MatchString(slug) {
		return models.Flow{}, fmt.Errorf("invalid endpoint slug %q: use lowercase letters, digits and hyphens", slug)
	}
	if _, err := r.store.GetFlowBySlug(slug); err == nil {
		return models.Flow{}, fmt.Errorf("endpoint slug %q is already taken", slug)
	}

	now := time.Now()
	flow := models.Flow{
		ID:           uuid.New().String(),
		Name:         name,
		EndpointSlug: slug,
		Status:       models.FlowStatusDraft,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := r.store.SaveFlow(flow); err != nil {
		return models.Flow{}, fmt.Errorf("failed to save flow: %w", err)
	}
	return flow, nil
}

// Get retrieves a flow by ID.
func (r *FlowRegistry) Get(flowID string) (models.Flow, error) {
	return r.store.GetFlow(flowID)
}

// GetBySlug resolves an endpoint slug to its flow.
func (r *FlowRegistry) GetBySlug(slug string) (models.Flow, error) {
	return r.store.GetFlowBySlug(slug)
}

// List returns all flows.
func (r *FlowRegistry) List() ([]models.Flow, error) {
	return r.store.ListFlows()
}

// Update persists changed flow metadata.
func (r *FlowRegistry) Update(flow models.Flow) error {
	existing, err := r.store.GetFlow(flow.ID)
	if err != nil {
		return err
	}
	flow.CreatedAt = existing.CreatedAt
	flow.UpdatedAt = time.Now()
	return r.store.SaveFlow(flow)
}

// Delete removes a flow.
func (r *FlowRegistry) Delete(flowID string) error {
	return r.store.DeleteFlow(flowID)
}

// Publish validates a graph, stores it as the next version and marks the
// flow published. Cyclic graphs are rejected here rather than left to
// dead-end silently at execution time.
func (r *FlowRegistry) Publish(flowID string, graph models.FlowGraph) (models.Flow, error) {
	flow, err := r.store.GetFlow(flowID)
	if err != nil {
		return models.Flow{}, err
	}
	if err := ValidateGraph(graph); err != nil {
		return models.Flow{}, err
	}

	if err := r.store.SaveGraphVersion(flowID, graph); err != nil {
		return models.Flow{}, fmt.Errorf("failed to save graph version: %w", err)
	}

	flow.Status = models.FlowStatusPublished
	flow.UpdatedAt = time.Now()
	if err := r.store.SaveFlow(flow); err != nil {
		return models.Flow{}, fmt.Errorf("failed to update flow: %w", err)
	}
	return flow, nil
}

// LatestGraph returns the most recently published graph version.
func (r *FlowRegistry) LatestGraph(flowID string) (models.FlowGraph, error) {
	return r.store.GetLatestGraph(flowID)
}

// SetAPIKey protects the flow's endpoint with an API key. Only the
// bcrypt hash is stored.
func (r *FlowRegistry) SetAPIKey(flowID, apiKey string) error {
	flow, err := r.store.GetFlow(flowID)
	if err != nil {
		return err
	}

	if apiKey == "" {
		flow.APIKeyHash = ""
	} else {
		hash, err := bcrypt.GenerateFromPassword([]byte(apiKey), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("failed to hash API key: %w", err)
		}
		flow.APIKeyHash = string(hash)
	}
	flow.UpdatedAt = time.Now()
	return r.store.SaveFlow(flow)
}

// CheckAPIKey verifies a presented API key against the flow's hash.
func CheckAPIKey(flow models.Flow, apiKey string) bool {
	if flow.APIKeyHash == "" {
		return true
	}
	return bcrypt.CompareHashAndPassword([]byte(flow.APIKeyHash), []byte(apiKey)) == nil
}

/// ValidateGraph checks a graph for structural defects: duplicate or
// reserved node ids, edges referencing unknown nodes, and cycles.
func ValidateGraph(graph models.FlowGraph) error {
	if len(graph.Nodes) == 0 {
		return fmt.Errorf("graph has no nodes")
	}

	reserved := map[string]bool{
		runtime.ContextKeyRequest:     true,
		runtime.ContextKeyEnv:         true,
		runtime.ContextKeyVariables:   true,
		runtime.ContextKeyFlowID:      true,
		runtime.ContextKeyExecutionID: true,
	}

	seen := make(map[string]bool, len(graph.Nodes))
	for _, node := range graph.Nodes {
		if node.ID == "" {
			return fmt.Errorf("node with empty id")
		}
		if reserved[node.ID] {
			return fmt.Errorf("node id %q is reserved", node.ID)
		}
		if seen[node.ID] {
			return fmt.Errorf("duplicate node id %q", node.ID)
		}
		seen[node.ID] = true
	}

	indegree := make(map[string]int, len(graph.Nodes))
	outgoing := make(map[string][]string)
	for _, edge := range graph.Edges {
		if !seen[edge.Source] {
			return fmt.Errorf("edge references unknown source node %q", edge.Source)
		}
		if !seen[edge.Target] {
			return fmt.Errorf("edge references unknown target node %q", edge.Target)
		}
		outgoing[edge.Source] = append(outgoing[edge.Source], edge.Target)
		indegree[edge.Target]++
	}

	// Kahn's algorithm: if not every node drains, the remainder is cyclic.
	var frontier []string
	for _, node := range graph.Nodes {
		if indegree[node.ID] == 0 {
			frontier = append(frontier, node.ID)
		}
	}
	drained := 0
	for len(frontier) > 0 {
		id := frontier[0]
		frontier = frontier[1:]
		drained++
		for _, target := range outgoing[id] {
			indegree[target]--
			if indegree[target] == 0 {
				frontier = append(frontier, target)
			}
		}
	}
	if drained != len(graph.Nodes) {
		return fmt.Errorf("graph contains a cycle")
	}
	return nil
}
