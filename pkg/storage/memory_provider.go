package storage

import (
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/RantirAI/RantirCloud3.2-sub009/pkg/models"
)

// MemoryProvider implements the StorageProvider interface using in-memory
// storage. It is the default for development and tests.
type MemoryProvider struct {
	flowStore      *MemoryFlowStore
	secretStore    *MemorySecretStore
	executionStore *MemoryExecutionStore
	dataTableStore *MemoryDataTableStore
}

// NewMemoryProvider creates a new in-memory storage provider.
func NewMemoryProvider() *MemoryProvider {
	return &MemoryProvider{
		flowStore:      NewMemoryFlowStore(),
		secretStore:    NewMemorySecretStore(),
		executionStore: NewMemoryExecutionStore(),
		dataTableStore: NewMemoryDataTableStore(),
	}
}

// Initialize sets up the storage backend.
func (p *MemoryProvider) Initialize() error { return nil }

// Close cleans up resources.
func (p *MemoryProvider) Close() error { return nil }

// GetFlowStore returns a store for flow metadata and graph versions.
func (p *MemoryProvider) GetFlowStore() FlowStore { return p.flowStore }

// GetSecretStore returns a store for encrypted flow secrets.
func (p *MemoryProvider) GetSecretStore() SecretStore { return p.secretStore }

// GetExecutionStore returns a store for execution data.
func (p *MemoryProvider) GetExecutionStore() ExecutionStore { return p.executionStore }

// GetDataTableStore returns the tabular store backing data-table nodes.
func (p *MemoryProvider) GetDataTableStore() DataTableStore { return p.dataTableStore }

// MemoryFlowStore implements FlowStore using in-memory maps.
type MemoryFlowStore struct {
	flows  map[string]models.Flow
	graphs map[string][]models.FlowGraph
	mu     sync.RWMutex
}

// NewMemoryFlowStore creates a new in-memory flow store.
func NewMemoryFlowStore() *MemoryFlowStore {
	return &MemoryFlowStore{
		flows:  make(map[string]models.Flow),
		graphs: make(map[string][]models.FlowGraph),
	}
}

// SaveFlow persists flow metadata.
func (s *MemoryFlowStore) SaveFlow(flow models.Flow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flows[flow.ID] = flow
	return nil
}

// GetFlow retrieves a flow by ID.
func (s *MemoryFlowStore) GetFlow(flowID string) (models.Flow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	flow, ok := s.flows[flowID]
	if !ok {
		return models.Flow{}, ErrFlowNotFound
	}
	return flow, nil
}

// GetFlowBySlug retrieves a flow by its endpoint slug.
func (s *MemoryFlowStore) GetFlowBySlug(slug string) (models.Flow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, flow := range s.flows {
		if flow.EndpointSlug == slug {
			return flow, nil
		}
	}
	return models.Flow{}, ErrFlowNotFound
}

// ListFlows returns all flows.
func (s *MemoryFlowStore) ListFlows() ([]models.Flow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	flows := make([]models.Flow, 0, len(s.flows))
	for _, flow := range s.flows {
		flows = append(flows, flow)
	}
	sort.Slice(flows, func(i, j int) bool { return flows[i].CreatedAt.Before(flows[j].CreatedAt) })
	return flows, nil
}

// DeleteFlow removes a flow and its graph versions.
func (s *MemoryFlowStore) DeleteFlow(flowID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.flows[flowID]; !ok {
		return ErrFlowNotFound
	}
	delete(s.flows, flowID)
	delete(s.graphs, flowID)
	return nil
}

// SaveGraphVersion persists a new published graph version.
func (s *MemoryFlowStore) SaveGraphVersion(flowID string, graph models.FlowGraph) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.flows[flowID]; !ok {
		return ErrFlowNotFound
	}
	graph.Version = len(s.graphs[flowID]) + 1
	s.graphs[flowID] = append(s.graphs[flowID], graph)
	return nil
}

// GetLatestGraph retrieves the latest published graph version.
func (s *MemoryFlowStore) GetLatestGraph(flowID string) (models.FlowGraph, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	versions := s.graphs[flowID]
	if len(versions) == 0 {
		return models.FlowGraph{}, ErrGraphNotFound
	}
	return versions[len(versions)-1], nil
}

// ListGraphVersions returns the version numbers published for a flow.
func (s *MemoryFlowStore) ListGraphVersions(flowID string) ([]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	versions := make([]int, 0, len(s.graphs[flowID]))
	for _, graph := range s.graphs[flowID] {
		versions = append(versions, graph.Version)
	}
	return versions, nil
}

// MemorySecretStore implements SecretStore using in-memory maps.
type MemorySecretStore struct {
	secrets map[string]map[string][]byte
	mu      sync.RWMutex
}

// NewMemorySecretStore creates a new in-memory secret store.
func NewMemorySecretStore() *MemorySecretStore {
	return &MemorySecretStore{secrets: make(map[string]map[string][]byte)}
}

// SaveSecret persists an encrypted secret value.
func (s *MemorySecretStore) SaveSecret(flowID, key string, ciphertext []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.secrets[flowID]; !ok {
		s.secrets[flowID] = make(map[string][]byte)
	}
	value := make([]byte, len(ciphertext))
	copy(value, ciphertext)
	s.secrets[flowID][key] = value
	return nil
}

// GetSecret retrieves an encrypted secret value.
func (s *MemorySecretStore) GetSecret(flowID, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.secrets[flowID][key]
	if !ok {
		return nil, ErrSecretNotFound
	}
	return value, nil
}

// ListSecrets returns all encrypted secrets for a flow.
func (s *MemorySecretStore) ListSecrets(flowID string) (map[string][]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make(map[string][]byte, len(s.secrets[flowID]))
	for key, value := range s.secrets[flowID] {
		result[key] = value
	}
	return result, nil
}

// DeleteSecret removes a secret.
func (s *MemorySecretStore) DeleteSecret(flowID, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.secrets[flowID][key]; !ok {
		return ErrSecretNotFound
	}
	delete(s.secrets[flowID], key)
	return nil
}

// MemoryExecutionStore implements ExecutionStore using in-memory maps.
type MemoryExecutionStore struct {
	executions map[string]models.ExecutionRecord
	logs       map[string][]models.ExecutionLogEntry
	analytics  []models.AnalyticsRecord
	mu         sync.RWMutex
}

// NewMemoryExecutionStore creates a new in-memory execution store.
func NewMemoryExecutionStore() *MemoryExecutionStore {
	return &MemoryExecutionStore{
		executions: make(map[string]models.ExecutionRecord),
		logs:       make(map[string][]models.ExecutionLogEntry),
	}
}

// SaveExecution persists a new execution record.
func (s *MemoryExecutionStore) SaveExecution(record models.ExecutionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.executions[record.ID] = record
	return nil
}

// UpdateExecution updates an existing execution record.
func (s *MemoryExecutionStore) UpdateExecution(record models.ExecutionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.executions[record.ID]; !ok {
		return ErrExecutionNotFound
	}
	s.executions[record.ID] = record
	return nil
}

// GetExecution retrieves an execution record.
func (s *MemoryExecutionStore) GetExecution(executionID string) (models.ExecutionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.executions[executionID]
	if !ok {
		return models.ExecutionRecord{}, ErrExecutionNotFound
	}
	return record, nil
}

// ListExecutions returns all executions for a flow, newest first.
func (s *MemoryExecutionStore) ListExecutions(flowID string) ([]models.ExecutionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	records := make([]models.ExecutionRecord, 0)
	for _, record := range s.executions {
		if record.FlowID == flowID {
			records = append(records, record)
		}
	}
	sort.Slice(records, func(i, j int) bool { return records[i].StartTime.After(records[j].StartTime) })
	return records, nil
}

// SaveExecutionLogs appends log entries for an execution.
func (s *MemoryExecutionStore) SaveExecutionLogs(executionID string, entries []models.ExecutionLogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs[executionID] = append(s.logs[executionID], entries...)
	return nil
}

// GetExecutionLogs retrieves the ordered log entries of an execution.
func (s *MemoryExecutionStore) GetExecutionLogs(executionID string) ([]models.ExecutionLogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries := make([]models.ExecutionLogEntry, len(s.logs[executionID]))
	copy(entries, s.logs[executionID])
	return entries, nil
}

// SaveAnalytics persists a request analytics row.
func (s *MemoryExecutionStore) SaveAnalytics(record models.AnalyticsRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.analytics = append(s.analytics, record)
	return nil
}

// Analytics returns a copy of the recorded analytics rows (test helper).
func (s *MemoryExecutionStore) Analytics() []models.AnalyticsRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	records := make([]models.AnalyticsRecord, len(s.analytics))
	copy(records, s.analytics)
	return records
}

// MemoryDataTableStore implements DataTableStore using in-memory maps.
type MemoryDataTableStore struct {
	tables map[string]map[string]map[string]interface{}
	mu     sync.RWMutex
}

// NewMemoryDataTableStore creates a new in-memory data table store.
func NewMemoryDataTableStore() *MemoryDataTableStore {
	return &MemoryDataTableStore{tables: make(map[string]map[string]map[string]interface{})}
}

// CreateRow inserts a row and returns its generated ID.
func (s *MemoryDataTableStore) CreateRow(table string, row map[string]interface{}) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tables[table]; !ok {
		s.tables[table] = make(map[string]map[string]interface{})
	}
	rowID := uuid.New().String()
	stored := make(map[string]interface{}, len(row)+1)
	for key, value := range row {
		stored[key] = value
	}
	stored["id"] = rowID
	s.tables[table][rowID] = stored
	return rowID, nil
}

// GetRows returns rows matching the query.
func (s *MemoryDataTableStore) GetRows(table string, query RowQuery) ([]map[string]interface{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := make([]map[string]interface{}, 0)
	for _, row := range s.tables[table] {
		if matchesFilter(row, query.Filter) {
			copied := make(map[string]interface{}, len(row))
			for key, value := range row {
				copied[key] = value
			}
			rows = append(rows, copied)
		}
	}

	if query.SortBy != "" {
		sort.SliceStable(rows, func(i, j int) bool {
			less := compareValues(rows[i][query.SortBy], rows[j][query.SortBy]) < 0
			if query.SortDesc {
				return !less
			}
			return less
		})
	}

	if query.Limit > 0 && len(rows) > query.Limit {
		rows = rows[:query.Limit]
	}
	return rows, nil
}

// UpdateRow merges updates into an existing row.
func (s *MemoryDataTableStore) UpdateRow(table, rowID string, updates map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.tables[table][rowID]
	if !ok {
		return ErrRowNotFound
	}
	for key, value := range updates {
		if key == "id" {
			continue
		}
		row[key] = value
	}
	return nil
}

// DeleteRow removes a row.
func (s *MemoryDataTableStore) DeleteRow(table, rowID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tables[table][rowID]; !ok {
		return ErrRowNotFound
	}
	delete(s.tables[table], rowID)
	return nil
}

func matchesFilter(row, filter map[string]interface{}) bool {
	for key, want := range filter {
		if fmt.Sprintf("%v", row[key]) != fmt.Sprintf("%v", want) {
			return false
		}
	}
	return true
}

// compareValues orders numbers numerically and everything else as strings.
func compareValues(a, b interface{}) int {
	af, aok := toFloat(a)
	bf, bok := toFloat(b)
	if aok && bok {
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		default:
			return 0
		}
	}
	as, bs := fmt.Sprintf("%v", a), fmt.Sprintf("%v", b)
	switch {
	case as < bs:
		return -1
	case as > bs:
		return 1
	default:
		return 0
	}
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
