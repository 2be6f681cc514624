// Package storage provides interfaces for persistent storage.
package storage

import (
	"errors"

	"github.com/RantirAI/RantirCloud3.2-sub009/pkg/models"
)

// Errors returned by storage providers.
var (
	ErrFlowNotFound      = errors.New("flow not found")
	ErrGraphNotFound     = errors.New("published graph not found")
	ErrSecretNotFound    = errors.New("secret not found")
	ErrExecutionNotFound = errors.New("execution not found")
	ErrRowNotFound       = errors.New("row not found")
)

// StorageProvider defines the interface for persistence backends.
type StorageProvider interface {
	// Initialize sets up the storage backend
	Initialize() error

	// Close cleans up resources
	Close() error

	// GetFlowStore returns a store for flow metadata and graph versions
	GetFlowStore() FlowStore

	// GetSecretStore returns a store for encrypted flow secrets
	GetSecretStore() SecretStore

	// GetExecutionStore returns a store for execution records, logs and
	// analytics
	GetExecutionStore() ExecutionStore

	// GetDataTableStore returns the tabular store backing data-table nodes
	GetDataTableStore() DataTableStore
}

// FlowStore manages flow metadata and versioned graph persistence.
type FlowStore interface {
	// SaveFlow persists flow metadata (insert or update)
	SaveFlow(flow models.Flow) error

	// GetFlow retrieves a flow by ID
	GetFlow(flowID string) (models.Flow, error)

	// GetFlowBySlug retrieves a flow by its endpoint slug
	GetFlowBySlug(slug string) (models.Flow, error)

	// ListFlows returns all flows
	ListFlows() ([]models.Flow, error)

	// DeleteFlow removes a flow and its graph versions
	DeleteFlow(flowID string) error

	// SaveGraphVersion persists a new published graph version
	SaveGraphVersion(flowID string, graph models.FlowGraph) error

	// GetLatestGraph retrieves the latest published graph version
	GetLatestGraph(flowID string) (models.FlowGraph, error)

	// ListGraphVersions returns the version numbers published for a flow
	ListGraphVersions(flowID string) ([]int, error)
}

// SecretStore manages encrypted secret persistence per flow. Values are
// ciphertext; encryption belongs to the secrets vault, not the store.
type SecretStore interface {
	// SaveSecret persists an encrypted secret value
	SaveSecret(flowID, key string, ciphertext []byte) error

	// GetSecret retrieves an encrypted secret value
	GetSecret(flowID, key string) ([]byte, error)

	// ListSecrets returns all encrypted secrets for a flow
	ListSecrets(flowID string) (map[string][]byte, error)

	// DeleteSecret removes a secret
	DeleteSecret(flowID, key string) error
}

// ExecutionStore manages execution data persistence.
type ExecutionStore interface {
	// SaveExecution persists a new execution record
	SaveExecution(record models.ExecutionRecord) error

	// UpdateExecution updates an existing execution record
	UpdateExecution(record models.ExecutionRecord) error

	// GetExecution retrieves an execution record
	GetExecution(executionID string) (models.ExecutionRecord, error)

	// ListExecutions returns all executions for a flow, newest first
	ListExecutions(flowID string) ([]models.ExecutionRecord, error)

	// SaveExecutionLogs appends log entries for an execution
	SaveExecutionLogs(executionID string, entries []models.ExecutionLogEntry) error

	// GetExecutionLogs retrieves the ordered log entries of an execution
	GetExecutionLogs(executionID string) ([]models.ExecutionLogEntry, error)

	// SaveAnalytics persists a request analytics row
	SaveAnalytics(record models.AnalyticsRecord) error
}

// RowQuery filters and orders data table reads.
type RowQuery struct {
	// Filter matches rows whose fields equal every entry
	Filter map[string]interface{}

	// SortBy orders results by a field name, ascending unless SortDesc
	SortBy string

	// SortDesc reverses the sort order
	SortDesc bool

	// Limit caps the number of returned rows; 0 means no limit
	Limit int
}

// DataTableStore is the tabular store consumed by data-table nodes.
type DataTableStore interface {
	// CreateRow inserts a row and returns its generated ID
	CreateRow(table string, row map[string]interface{}) (string, error)

	// GetRows returns rows matching the query
	GetRows(table string, query RowQuery) ([]map[string]interface{}, error)

	// UpdateRow merges updates into an existing row
	UpdateRow(table, rowID string, updates map[string]interface{}) error

	// DeleteRow removes a row
	DeleteRow(table, rowID string) error
}
