// Package loader parses YAML flow documents into flow graphs, for
// importing flows from files instead of the management API.
package loader

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/RantirAI/RantirCloud3.2-sub009/pkg/models"
	"github.com/RantirAI/RantirCloud3.2-sub009/pkg/registry"
)

// FlowDocument is the YAML shape of an importable flow.
type FlowDocument struct {
	// Name of the flow
	Name string `yaml:"name"`

	// EndpointSlug triggers the flow
	EndpointSlug string `yaml:"endpoint_slug"`

	// Signature configures webhook verification
	Signature SignatureDocument `yaml:"signature"`

	// Variables are plain-text flow variables
	Variables map[string]string `yaml:"variables"`

	// Nodes maps node id to its definition
	Nodes map[string]NodeDocument `yaml:"nodes"`

	// Edges list the graph's dependencies
	Edges []EdgeDocument `yaml:"edges"`
}

// SignatureDocument mirrors models.SignatureConfig in YAML.
type SignatureDocument struct {
	Provider                  string `yaml:"provider"`
	Secret                    string `yaml:"secret"`
	HeaderName                string `yaml:"header_name"`
	TimestampToleranceSeconds int    `yaml:"timestamp_tolerance_seconds"`
}

// NodeDocument is the YAML shape of one node.
type NodeDocument struct {
	Type          string                 `yaml:"type"`
	Label         string                 `yaml:"label"`
	Inputs        map[string]interface{} `yaml:"inputs"`
	Disabled      bool                   `yaml:"disabled"`
	ErrorBehavior string                 `yaml:"error_behavior"`
}

// EdgeDocument is the YAML shape of one edge.
type EdgeDocument struct {
	Source       string `yaml:"source"`
	Target       string `yaml:"target"`
	SourceHandle string `yaml:"source_handle"`
}

// Parse converts YAML content into flow metadata and a validated graph.
func Parse(content []byte) (models.Flow, models.FlowGraph, error) {
	var doc FlowDocument
	if err := yaml.Unmarshal(content, &doc); err != nil {
		return models.Flow{}, models.FlowGraph{}, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if doc.Name == "" {
		return models.Flow{}, models.FlowGraph{}, fmt.Errorf("flow name is required")
	}
	if doc.EndpointSlug == "" {
		return models.Flow{}, models.FlowGraph{}, fmt.Errorf("endpoint_slug is required")
	}

	graph := models.FlowGraph{
		Nodes: make([]models.Node, 0, len(doc.Nodes)),
		Edges: make([]models.Edge, 0, len(doc.Edges)),
	}
	for id, nodeDoc := range doc.Nodes {
		if nodeDoc.Type == "" {
			return models.Flow{}, models.FlowGraph{}, fmt.Errorf("node %q has no type", id)
		}
		graph.Nodes = append(graph.Nodes, models.Node{
			ID:   id,
			Type: nodeDoc.Type,
			Data: models.NodeData{
				Label:         nodeDoc.Label,
				Inputs:        nodeDoc.Inputs,
				Disabled:      nodeDoc.Disabled,
				ErrorBehavior: nodeDoc.ErrorBehavior,
			},
		})
	}
	for _, edgeDoc := range doc.Edges {
		graph.Edges = append(graph.Edges, models.Edge{
			Source:       edgeDoc.Source,
			Target:       edgeDoc.Target,
			SourceHandle: edgeDoc.SourceHandle,
		})
	}

	if err := registry.ValidateGraph(graph); err != nil {
		return models.Flow{}, models.FlowGraph{}, err
	}

	flow := models.Flow{
		Name:         doc.Name,
		EndpointSlug: doc.EndpointSlug,
		Variables:    doc.Variables,
		Signature: models.SignatureConfig{
			Provider:                  doc.Signature.Provider,
			Secret:                    doc.Signature.Secret,
			HeaderName:                doc.Signature.HeaderName,
			TimestampToleranceSeconds: doc.Signature.TimestampToleranceSeconds,
		},
	}
	return flow, graph, nil
}

// ParseFile reads and parses a YAML flow document from disk.
func ParseFile(path string) (models.Flow, models.FlowGraph, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return models.Flow{}, models.FlowGraph{}, fmt.Errorf("failed to read flow file: %w", err)
	}
	return Parse(content)
}

// Import registers a parsed document with the flow registry and
// publishes its graph.
func Import(reg *registry.FlowRegistry, flow models.Flow, graph models.FlowGraph) (models.Flow, error) {
	created, err := reg.Create(flow.Name, flow.EndpointSlug)
	if err != nil {
		return models.Flow{}, err
	}

	created.Signature = flow.Signature
	created.Variables = flow.Variables
	if err := reg.Update(created); err != nil {
		return models.Flow{}, err
	}
	return reg.Publish(created.ID, graph)
}
