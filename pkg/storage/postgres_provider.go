package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"github.com/RantirAI/RantirCloud3.2-sub009/pkg/config"
	"github.com/RantirAI/RantirCloud3.2-sub009/pkg/models"
)

// PostgresProvider implements the StorageProvider interface using PostgreSQL.
// Flow metadata, graphs, secrets, execution data and data table rows are
// stored as JSONB documents keyed by their IDs.
type PostgresProvider struct {
	db             *sql.DB
	flowStore      *PostgresFlowStore
	secretStore    *PostgresSecretStore
	executionStore *PostgresExecutionStore
	dataTableStore *PostgresDataTableStore
}

// NewPostgresProvider creates a new PostgreSQL storage provider.
func NewPostgresProvider(cfg config.PostgresConfig) (*PostgresProvider, error) {
	if cfg.Port == 0 {
		cfg.Port = 5432
	}
	if cfg.SSLMode == "" {
		cfg.SSLMode = "disable"
	}

	connStr := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, cfg.SSLMode,
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping PostgreSQL: %w", err)
	}

	return &PostgresProvider{
		db:             db,
		flowStore:      &PostgresFlowStore{db: db},
		secretStore:    &PostgresSecretStore{db: db},
		executionStore: &PostgresExecutionStore{db: db},
		dataTableStore: &PostgresDataTableStore{db: db},
	}, nil
}

// Initialize creates the schema if it does not exist.
func (p *PostgresProvider) Initialize() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS flows (
			id TEXT PRIMARY KEY,
			endpoint_slug TEXT UNIQUE NOT NULL,
			data JSONB NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS flow_graphs (
			flow_id TEXT NOT NULL REFERENCES flows(id) ON DELETE CASCADE,
			version INTEGER NOT NULL,
			data JSONB NOT NULL,
			PRIMARY KEY (flow_id, version)
		)`,
		`CREATE TABLE IF NOT EXISTS flow_secrets (
			flow_id TEXT NOT NULL,
			key TEXT NOT NULL,
			ciphertext BYTEA NOT NULL,
			PRIMARY KEY (flow_id, key)
		)`,
		`CREATE TABLE IF NOT EXISTS executions (
			id TEXT PRIMARY KEY,
			flow_id TEXT NOT NULL,
			start_time TIMESTAMPTZ NOT NULL,
			data JSONB NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS execution_logs (
			id BIGSERIAL PRIMARY KEY,
			execution_id TEXT NOT NULL,
			data JSONB NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS execution_analytics (
			id BIGSERIAL PRIMARY KEY,
			execution_id TEXT NOT NULL,
			data JSONB NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS data_table_rows (
			table_name TEXT NOT NULL,
			row_id TEXT NOT NULL,
			data JSONB NOT NULL,
			PRIMARY KEY (table_name, row_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_executions_flow ON executions(flow_id, start_time DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_execution_logs_execution ON execution_logs(execution_id, id)`,
	}

	for _, stmt := range statements {
		if _, err := p.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}

// Close cleans up resources.
func (p *PostgresProvider) Close() error { return p.db.Close() }

// GetFlowStore returns a store for flow metadata and graph versions.
func (p *PostgresProvider) GetFlowStore() FlowStore { return p.flowStore }

// GetSecretStore returns a store for encrypted flow secrets.
func (p *PostgresProvider) GetSecretStore() SecretStore { return p.secretStore }

// GetExecutionStore returns a store for execution data.
func (p *PostgresProvider) GetExecutionStore() ExecutionStore { return p.executionStore }

// GetDataTableStore returns the tabular store backing data-table nodes.
func (p *PostgresProvider) GetDataTableStore() DataTableStore { return p.dataTableStore }

// PostgresFlowStore implements FlowStore using PostgreSQL.
type PostgresFlowStore struct {
	db *sql.DB
}

// SaveFlow persists flow metadata.
func (s *PostgresFlowStore) SaveFlow(flow models.Flow) error {
	data, err := json.Marshal(flow)
	if err != nil {
		return fmt.Errorf("failed to marshal flow: %w", err)
	}
	_, err = s.db.Exec(`
		INSERT INTO flows (id, endpoint_slug, data) VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET endpoint_slug = $2, data = $3`,
		flow.ID, flow.EndpointSlug, data)
	if err != nil {
		return fmt.Errorf("failed to save flow: %w", err)
	}
	return nil
}

// GetFlow retrieves a flow by ID.
func (s *PostgresFlowStore) GetFlow(flowID string) (models.Flow, error) {
	return s.scanFlow(s.db.QueryRow(`SELECT data FROM flows WHERE id = $1`, flowID))
}

// GetFlowBySlug retrieves a flow by its endpoint slug.
func (s *PostgresFlowStore) GetFlowBySlug(slug string) (models.Flow, error) {
	return s.scanFlow(s.db.QueryRow(`SELECT data FROM flows WHERE endpoint_slug = $1`, slug))
}

func (s *PostgresFlowStore) scanFlow(row *sql.Row) (models.Flow, error) {
	var data []byte
	if err := row.Scan(&data); err != nil {
		if err == sql.ErrNoRows {
			return models.Flow{}, ErrFlowNotFound
		}
		return models.Flow{}, fmt.Errorf("failed to query flow: %w", err)
	}
	var flow models.Flow
	if err := json.Unmarshal(data, &flow); err != nil {
		return models.Flow{}, fmt.Errorf("failed to unmarshal flow: %w", err)
	}
	return flow, nil
}

// ListFlows returns all flows.
func (s *PostgresFlowStore) ListFlows() ([]models.Flow, error) {
	rows, err := s.db.Query(`SELECT data FROM flows ORDER BY data->>'created_at'`)
	if err != nil {
		return nil, fmt.Errorf("failed to list flows: %w", err)
	}
	defer rows.Close()

	var flows []models.Flow
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan flow: %w", err)
		}
		var flow models.Flow
		if err := json.Unmarshal(data, &flow); err != nil {
			return nil, fmt.Errorf("failed to unmarshal flow: %w", err)
		}
		flows = append(flows, flow)
	}
	return flows, rows.Err()
}

// DeleteFlow removes a flow and its graph versions.
func (s *PostgresFlowStore) DeleteFlow(flowID string) error {
	result, err := s.db.Exec(`DELETE FROM flows WHERE id = $1`, flowID)
	if err != nil {
		return fmt.Errorf("failed to delete flow: %w", err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return ErrFlowNotFound
	}
	return nil
}

// SaveGraphVersion persists a new published graph version.
func (s *PostgresFlowStore) SaveGraphVersion(flowID string, graph models.FlowGraph) error {
	var next int
	err := s.db.QueryRow(
		`SELECT COALESCE(MAX(version), 0) + 1 FROM flow_graphs WHERE flow_id = $1`, flowID,
	).Scan(&next)
	if err != nil {
		return fmt.Errorf("failed to compute next version: %w", err)
	}

	graph.Version = next
	data, err := json.Marshal(graph)
	if err != nil {
		return fmt.Errorf("failed to marshal graph: %w", err)
	}
	if _, err := s.db.Exec(
		`INSERT INTO flow_graphs (flow_id, version, data) VALUES ($1, $2, $3)`,
		flowID, next, data,
	); err != nil {
		return fmt.Errorf("failed to save graph version: %w", err)
	}
	return nil
}

// GetLatestGraph retrieves the latest published graph version.
func (s *PostgresFlowStore) GetLatestGraph(flowID string) (models.FlowGraph, error) {
	var data []byte
	err := s.db.QueryRow(
		`SELECT data FROM flow_graphs WHERE flow_id = $1 ORDER BY version DESC LIMIT 1`, flowID,
	).Scan(&data)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.FlowGraph{}, ErrGraphNotFound
		}
		return models.FlowGraph{}, fmt.Errorf("failed to query graph: %w", err)
	}
	var graph models.FlowGraph
	if err := json.Unmarshal(data, &graph); err != nil {
		return models.FlowGraph{}, fmt.Errorf("failed to unmarshal graph: %w", err)
	}
	return graph, nil
}

// ListGraphVersions returns the version numbers published for a flow.
func (s *PostgresFlowStore) ListGraphVersions(flowID string) ([]int, error) {
	rows, err := s.db.Query(
		`SELECT version FROM flow_graphs WHERE flow_id = $1 ORDER BY version`, flowID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list graph versions: %w", err)
	}
	defer rows.Close()

	var versions []int
	for rows.Next() {
		var version int
		if err := rows.Scan(&version); err != nil {
			return nil, fmt.Errorf("failed to scan version: %w", err)
		}
		versions = append(versions, version)
	}
	return versions, rows.Err()
}

// PostgresSecretStore implements SecretStore using PostgreSQL.
type PostgresSecretStore struct {
	db *sql.DB
}

// SaveSecret persists an encrypted secret value.
func (s *PostgresSecretStore) SaveSecret(flowID, key string, ciphertext []byte) error {
	_, err := s.db.Exec(`
		INSERT INTO flow_secrets (flow_id, key, ciphertext) VALUES ($1, $2, $3)
		ON CONFLICT (flow_id, key) DO UPDATE SET ciphertext = $3`,
		flowID, key, ciphertext)
	if err != nil {
		return fmt.Errorf("failed to save secret: %w", err)
	}
	return nil
}

// GetSecret retrieves an encrypted secret value.
func (s *PostgresSecretStore) GetSecret(flowID, key string) ([]byte, error) {
	var ciphertext []byte
	err := s.db.QueryRow(
		`SELECT ciphertext FROM flow_secrets WHERE flow_id = $1 AND key = $2`, flowID, key,
	).Scan(&ciphertext)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrSecretNotFound
		}
		return nil, fmt.Errorf("failed to query secret: %w", err)
	}
	return ciphertext, nil
}

// ListSecrets returns all encrypted secrets for a flow.
func (s *PostgresSecretStore) ListSecrets(flowID string) (map[string][]byte, error) {
	rows, err := s.db.Query(
		`SELECT key, ciphertext FROM flow_secrets WHERE flow_id = $1`, flowID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list secrets: %w", err)
	}
	defer rows.Close()

	secrets := make(map[string][]byte)
	for rows.Next() {
		var key string
		var ciphertext []byte
		if err := rows.Scan(&key, &ciphertext); err != nil {
			return nil, fmt.Errorf("failed to scan secret: %w", err)
		}
		secrets[key] = ciphertext
	}
	return secrets, rows.Err()
}

// DeleteSecret removes a secret.
func (s *PostgresSecretStore) DeleteSecret(flowID, key string) error {
	result, err := s.db.Exec(
		`DELETE FROM flow_secrets WHERE flow_id = $1 AND key = $2`, flowID, key,
	)
	if err != nil {
		return fmt.Errorf("failed to delete secret: %w", err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return ErrSecretNotFound
	}
	return nil
}

// PostgresExecutionStore implements ExecutionStore using PostgreSQL.
type PostgresExecutionStore struct {
	db *sql.DB
}

// SaveExecution persists a new execution record.
func (s *PostgresExecutionStore) SaveExecution(record models.ExecutionRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal execution: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT INTO executions (id, flow_id, start_time, data) VALUES ($1, $2, $3, $4)`,
		record.ID, record.FlowID, record.StartTime, data,
	)
	if err != nil {
		return fmt.Errorf("failed to save execution: %w", err)
	}
	return nil
}

// UpdateExecution updates an existing execution record.
func (s *PostgresExecutionStore) UpdateExecution(record models.ExecutionRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal execution: %w", err)
	}
	result, err := s.db.Exec(`UPDATE executions SET data = $2 WHERE id = $1`, record.ID, data)
	if err != nil {
		return fmt.Errorf("failed to update execution: %w", err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return ErrExecutionNotFound
	}
	return nil
}

// GetExecution retrieves an execution record.
func (s *PostgresExecutionStore) GetExecution(executionID string) (models.ExecutionRecord, error) {
	var data []byte
	err := s.db.QueryRow(`SELECT data FROM executions WHERE id = $1`, executionID).Scan(&data)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.ExecutionRecord{}, ErrExecutionNotFound
		}
		return models.ExecutionRecord{}, fmt.Errorf("failed to query execution: %w", err)
	}
	var record models.ExecutionRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return models.ExecutionRecord{}, fmt.Errorf("failed to unmarshal execution: %w", err)
	}
	return record, nil
}

// ListExecutions returns all executions for a flow, newest first.
func (s *PostgresExecutionStore) ListExecutions(flowID string) ([]models.ExecutionRecord, error) {
	rows, err := s.db.Query(
		`SELECT data FROM executions WHERE flow_id = $1 ORDER BY start_time DESC`, flowID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list executions: %w", err)
	}
	defer rows.Close()

	var records []models.ExecutionRecord
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan execution: %w", err)
		}
		var record models.ExecutionRecord
		if err := json.Unmarshal(data, &record); err != nil {
			return nil, fmt.Errorf("failed to unmarshal execution: %w", err)
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// SaveExecutionLogs appends log entries for an execution.
func (s *PostgresExecutionStore) SaveExecutionLogs(executionID string, entries []models.ExecutionLogEntry) error {
	for _, entry := range entries {
		data, err := json.Marshal(entry)
		if err != nil {
			return fmt.Errorf("failed to marshal log entry: %w", err)
		}
		if _, err := s.db.Exec(
			`INSERT INTO execution_logs (execution_id, data) VALUES ($1, $2)`, executionID, data,
		); err != nil {
			return fmt.Errorf("failed to save log entry: %w", err)
		}
	}
	return nil
}

// GetExecutionLogs retrieves the ordered log entries of an execution.
func (s *PostgresExecutionStore) GetExecutionLogs(executionID string) ([]models.ExecutionLogEntry, error) {
	rows, err := s.db.Query(
		`SELECT data FROM execution_logs WHERE execution_id = $1 ORDER BY id`, executionID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query logs: %w", err)
	}
	defer rows.Close()

	var entries []models.ExecutionLogEntry
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan log entry: %w", err)
		}
		var entry models.ExecutionLogEntry
		if err := json.Unmarshal(data, &entry); err != nil {
			return nil, fmt.Errorf("failed to unmarshal log entry: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// SaveAnalytics persists a request analytics row.
func (s *PostgresExecutionStore) SaveAnalytics(record models.AnalyticsRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal analytics: %w", err)
	}
	if _, err := s.db.Exec(
		`INSERT INTO execution_analytics (execution_id, data) VALUES ($1, $2)`,
		record.ExecutionID, data,
	); err != nil {
		return fmt.Errorf("failed to save analytics: %w", err)
	}
	return nil
}

// PostgresDataTableStore implements DataTableStore using PostgreSQL.
type PostgresDataTableStore struct {
	db *sql.DB
}

// CreateRow inserts a row and returns its generated ID.
func (s *PostgresDataTableStore) CreateRow(table string, row map[string]interface{}) (string, error) {
	rowID := uuid.New().String()
	stored := make(map[string]interface{}, len(row)+1)
	for key, value := range row {
		stored[key] = value
	}
	stored["id"] = rowID

	data, err := json.Marshal(stored)
	if err != nil {
		return "", fmt.Errorf("failed to marshal row: %w", err)
	}
	if _, err := s.db.Exec(
		`INSERT INTO data_table_rows (table_name, row_id, data) VALUES ($1, $2, $3)`,
		table, rowID, data,
	); err != nil {
		return "", fmt.Errorf("failed to create row: %w", err)
	}
	return rowID, nil
}

// GetRows returns rows matching the query. Filtering and ordering happen in
// process; data tables are small user datasets, not analytics workloads.
func (s *PostgresDataTableStore) GetRows(table string, query RowQuery) ([]map[string]interface{}, error) {
	rows, err := s.db.Query(
		`SELECT data FROM data_table_rows WHERE table_name = $1`, table,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query rows: %w", err)
	}
	defer rows.Close()

	var result []map[string]interface{}
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		var row map[string]interface{}
		if err := json.Unmarshal(data, &row); err != nil {
			return nil, fmt.Errorf("failed to unmarshal row: %w", err)
		}
		if matchesFilter(row, query.Filter) {
			result = append(result, row)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sortAndLimit(result, query)
	if query.Limit > 0 && len(result) > query.Limit {
		result = result[:query.Limit]
	}
	return result, nil
}

// UpdateRow merges updates into an existing row.
func (s *PostgresDataTableStore) UpdateRow(table, rowID string, updates map[string]interface{}) error {
	var data []byte
	err := s.db.QueryRow(
		`SELECT data FROM data_table_rows WHERE table_name = $1 AND row_id = $2`, table, rowID,
	).Scan(&data)
	if err != nil {
		if err == sql.ErrNoRows {
			return ErrRowNotFound
		}
		return fmt.Errorf("failed to query row: %w", err)
	}

	var row map[string]interface{}
	if err := json.Unmarshal(data, &row); err != nil {
		return fmt.Errorf("failed to unmarshal row: %w", err)
	}
	for key, value := range updates {
		if key == "id" {
			continue
		}
		row[key] = value
	}

	merged, err := json.Marshal(row)
	if err != nil {
		return fmt.Errorf("failed to marshal row: %w", err)
	}
	if _, err := s.db.Exec(
		`UPDATE data_table_rows SET data = $3 WHERE table_name = $1 AND row_id = $2`,
		table, rowID, merged,
	); err != nil {
		return fmt.Errorf("failed to update row: %w", err)
	}
	return nil
}

// DeleteRow removes a row.
func (s *PostgresDataTableStore) DeleteRow(table, rowID string) error {
	result, err := s.db.Exec(
		`DELETE FROM data_table_rows WHERE table_name = $1 AND row_id = $2`, table, rowID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete row: %w", err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return ErrRowNotFound
	}
	return nil
}

func sortAndLimit(rows []map[string]interface{}, query RowQuery) {
	if query.SortBy == "" {
		return
	}
	sort.SliceStable(rows, func(i, j int) bool {
		less := compareValues(rows[i][query.SortBy], rows[j][query.SortBy]) < 0
		if query.SortDesc {
			return !less
		}
		return less
	})
}
