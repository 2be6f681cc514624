package storage

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbiface"
	"github.com/google/uuid"

	"github.com/RantirAI/RantirCloud3.2-sub009/pkg/config"
	"github.com/RantirAI/RantirCloud3.2-sub009/pkg/models"
)

// DynamoDBProvider implements the StorageProvider interface using DynamoDB.
// Every item carries a partition key, an optional sort key and the record
// serialized as a JSON document in the "data" attribute.
type DynamoDBProvider struct {
	client         dynamodbiface.DynamoDBAPI
	tablePrefix    string
	flowStore      *DynamoDBFlowStore
	secretStore    *DynamoDBSecretStore
	executionStore *DynamoDBExecutionStore
	dataTableStore *DynamoDBDataTableStore
}

// NewDynamoDBProvider creates a new DynamoDB storage provider.
func NewDynamoDBProvider(cfg config.DynamoDBConfig) (*DynamoDBProvider, error) {
	awsConfig := &aws.Config{Region: aws.String(cfg.Region)}
	if cfg.Endpoint != "" {
		awsConfig.Endpoint = aws.String(cfg.Endpoint)
	}

	sess, err := session.NewSession(awsConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	return NewDynamoDBProviderWithClient(dynamodb.New(sess), cfg.TablePrefix), nil
}

// NewDynamoDBProviderWithClient creates a provider with a custom client,
// primarily for testing with mocks.
func NewDynamoDBProviderWithClient(client dynamodbiface.DynamoDBAPI, tablePrefix string) *DynamoDBProvider {
	provider := &DynamoDBProvider{
		client:      client,
		tablePrefix: tablePrefix,
	}
	provider.flowStore = &DynamoDBFlowStore{client: client, table: tablePrefix + "flows", graphTable: tablePrefix + "flow_graphs"}
	provider.secretStore = &DynamoDBSecretStore{client: client, table: tablePrefix + "flow_secrets"}
	provider.executionStore = &DynamoDBExecutionStore{
		client:         client,
		table:          tablePrefix + "executions",
		logTable:       tablePrefix + "execution_logs",
		analyticsTable: tablePrefix + "execution_analytics",
	}
	provider.dataTableStore = &DynamoDBDataTableStore{client: client, table: tablePrefix + "data_table_rows"}
	return provider
}

// Initialize creates the tables if they do not exist.
func (p *DynamoDBProvider) Initialize() error {
	tables := []struct {
		name    string
		hashKey string
		sortKey string
	}{
		{p.flowStore.table, "id", ""},
		{p.flowStore.graphTable, "flow_id", "version"},
		{p.secretStore.table, "flow_id", "key"},
		{p.executionStore.table, "id", ""},
		{p.executionStore.logTable, "execution_id", "seq"},
		{p.executionStore.analyticsTable, "execution_id", "seq"},
		{p.dataTableStore.table, "table_name", "row_id"},
	}

	for _, table := range tables {
		if err := p.createTable(table.name, table.hashKey, table.sortKey); err != nil {
			return fmt.Errorf("failed to create table %s: %w", table.name, err)
		}
	}
	return nil
}

func (p *DynamoDBProvider) createTable(name, hashKey, sortKey string) error {
	keySchema := []*dynamodb.KeySchemaElement{
		{AttributeName: aws.String(hashKey), KeyType: aws.String("HASH")},
	}
	attributes := []*dynamodb.AttributeDefinition{
		{AttributeName: aws.String(hashKey), AttributeType: aws.String("S")},
	}
	if sortKey != "" {
		keySchema = append(keySchema, &dynamodb.KeySchemaElement{
			AttributeName: aws.String(sortKey), KeyType: aws.String("RANGE"),
		})
		attributeType := "S"
		if sortKey == "version" || sortKey == "seq" {
			attributeType = "N"
		}
		attributes = append(attributes, &dynamodb.AttributeDefinition{
			AttributeName: aws.String(sortKey), AttributeType: aws.String(attributeType),
		})
	}

	_, err := p.client.CreateTable(&dynamodb.CreateTableInput{
		TableName:            aws.String(name),
		KeySchema:            keySchema,
		AttributeDefinitions: attributes,
		BillingMode:          aws.String("PAY_PER_REQUEST"),
	})
	if err != nil {
		if aerr, ok := err.(awserr.Error); ok && aerr.Code() == dynamodb.ErrCodeResourceInUseException {
			return nil
		}
		return err
	}
	return nil
}

// Close cleans up resources.
func (p *DynamoDBProvider) Close() error { return nil }

// GetFlowStore returns a store for flow metadata and graph versions.
func (p *DynamoDBProvider) GetFlowStore() FlowStore { return p.flowStore }

// GetSecretStore returns a store for encrypted flow secrets.
func (p *DynamoDBProvider) GetSecretStore() SecretStore { return p.secretStore }

// GetExecutionStore returns a store for execution data.
func (p *DynamoDBProvider) GetExecutionStore() ExecutionStore { return p.executionStore }

// GetDataTableStore returns the tabular store backing data-table nodes.
func (p *DynamoDBProvider) GetDataTableStore() DataTableStore { return p.dataTableStore }

// DynamoDBFlowStore implements FlowStore using DynamoDB.
type DynamoDBFlowStore struct {
	client     dynamodbiface.DynamoDBAPI
	table      string
	graphTable string
}

// SaveFlow persists flow metadata.
func (s *DynamoDBFlowStore) SaveFlow(flow models.Flow) error {
	data, err := json.Marshal(flow)
	if err != nil {
		return fmt.Errorf("failed to marshal flow: %w", err)
	}
	_, err = s.client.PutItem(&dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item: map[string]*dynamodb.AttributeValue{
			"id":   {S: aws.String(flow.ID)},
			"slug": {S: aws.String(flow.EndpointSlug)},
			"data": {S: aws.String(string(data))},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to save flow: %w", err)
	}
	return nil
}

// GetFlow retrieves a flow by ID.
func (s *DynamoDBFlowStore) GetFlow(flowID string) (models.Flow, error) {
	result, err := s.client.GetItem(&dynamodb.GetItemInput{
		TableName: aws.String(s.table),
		Key: map[string]*dynamodb.AttributeValue{
			"id": {S: aws.String(flowID)},
		},
	})
	if err != nil {
		return models.Flow{}, fmt.Errorf("failed to get flow: %w", err)
	}
	if result.Item == nil {
		return models.Flow{}, ErrFlowNotFound
	}
	return unmarshalFlowItem(result.Item)
}

// GetFlowBySlug retrieves a flow by its endpoint slug.
func (s *DynamoDBFlowStore) GetFlowBySlug(slug string) (models.Flow, error) {
	result, err := s.client.Scan(&dynamodb.ScanInput{
		TableName:        aws.String(s.table),
		FilterExpression: aws.String("slug = :slug"),
		ExpressionAttributeValues: map[string]*dynamodb.AttributeValue{
			":slug": {S: aws.String(slug)},
		},
	})
	if err != nil {
		return models.Flow{}, fmt.Errorf("failed to scan flows: %w", err)
	}
	if len(result.Items) == 0 {
		return models.Flow{}, ErrFlowNotFound
	}
	return unmarshalFlowItem(result.Items[0])
}

// ListFlows returns all flows.
func (s *DynamoDBFlowStore) ListFlows() ([]models.Flow, error) {
	result, err := s.client.Scan(&dynamodb.ScanInput{TableName: aws.String(s.table)})
	if err != nil {
		return nil, fmt.Errorf("failed to scan flows: %w", err)
	}
	flows := make([]models.Flow, 0, len(result.Items))
	for _, item := range result.Items {
		flow, err := unmarshalFlowItem(item)
		if err != nil {
			return nil, err
		}
		flows = append(flows, flow)
	}
	sort.Slice(flows, func(i, j int) bool { return flows[i].CreatedAt.Before(flows[j].CreatedAt) })
	return flows, nil
}

// DeleteFlow removes a flow. Graph versions are left to expire with the
// table's TTL policy.
func (s *DynamoDBFlowStore) DeleteFlow(flowID string) error {
	if _, err := s.GetFlow(flowID); err != nil {
		return err
	}
	_, err := s.client.DeleteItem(&dynamodb.DeleteItemInput{
		TableName: aws.String(s.table),
		Key: map[string]*dynamodb.AttributeValue{
			"id": {S: aws.String(flowID)},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to delete flow: %w", err)
	}
	return nil
}

// SaveGraphVersion persists a new published graph version.
func (s *DynamoDBFlowStore) SaveGraphVersion(flowID string, graph models.FlowGraph) error {
	versions, err := s.ListGraphVersions(flowID)
	if err != nil {
		return err
	}
	next := 1
	if len(versions) > 0 {
		next = versions[len(versions)-1] + 1
	}
	graph.Version = next

	data, err := json.Marshal(graph)
	if err != nil {
		return fmt.Errorf("failed to marshal graph: %w", err)
	}
	_, err = s.client.PutItem(&dynamodb.PutItemInput{
		TableName: aws.String(s.graphTable),
		Item: map[string]*dynamodb.AttributeValue{
			"flow_id": {S: aws.String(flowID)},
			"version": {N: aws.String(strconv.Itoa(next))},
			"data":    {S: aws.String(string(data))},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to save graph version: %w", err)
	}
	return nil
}

// GetLatestGraph retrieves the latest published graph version.
func (s *DynamoDBFlowStore) GetLatestGraph(flowID string) (models.FlowGraph, error) {
	result, err := s.client.Query(&dynamodb.QueryInput{
		TableName:              aws.String(s.graphTable),
		KeyConditionExpression: aws.String("flow_id = :flow_id"),
		ExpressionAttributeValues: map[string]*dynamodb.AttributeValue{
			":flow_id": {S: aws.String(flowID)},
		},
		ScanIndexForward: aws.Bool(false),
		Limit:            aws.Int64(1),
	})
	if err != nil {
		return models.FlowGraph{}, fmt.Errorf("failed to query graphs: %w", err)
	}
	if len(result.Items) == 0 {
		return models.FlowGraph{}, ErrGraphNotFound
	}

	var graph models.FlowGraph
	if err := json.Unmarshal([]byte(aws.StringValue(result.Items[0]["data"].S)), &graph); err != nil {
		return models.FlowGraph{}, fmt.Errorf("failed to unmarshal graph: %w", err)
	}
	return graph, nil
}

// ListGraphVersions returns the version numbers published for a flow.
func (s *DynamoDBFlowStore) ListGraphVersions(flowID string) ([]int, error) {
	result, err := s.client.Query(&dynamodb.QueryInput{
		TableName:              aws.String(s.graphTable),
		KeyConditionExpression: aws.String("flow_id = :flow_id"),
		ExpressionAttributeValues: map[string]*dynamodb.AttributeValue{
			":flow_id": {S: aws.String(flowID)},
		},
		ProjectionExpression: aws.String("version"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query graph versions: %w", err)
	}

	versions := make([]int, 0, len(result.Items))
	for _, item := range result.Items {
		version, err := strconv.Atoi(aws.StringValue(item["version"].N))
		if err != nil {
			return nil, fmt.Errorf("invalid graph version: %w", err)
		}
		versions = append(versions, version)
	}
	sort.Ints(versions)
	return versions, nil
}

func unmarshalFlowItem(item map[string]*dynamodb.AttributeValue) (models.Flow, error) {
	var flow models.Flow
	if err := json.Unmarshal([]byte(aws.StringValue(item["data"].S)), &flow); err != nil {
		return models.Flow{}, fmt.Errorf("failed to unmarshal flow: %w", err)
	}
	return flow, nil
}

// DynamoDBSecretStore implements SecretStore using DynamoDB.
type DynamoDBSecretStore struct {
	client dynamodbiface.DynamoDBAPI
	table  string
}

// SaveSecret persists an encrypted secret value.
func (s *DynamoDBSecretStore) SaveSecret(flowID, key string, ciphertext []byte) error {
	_, err := s.client.PutItem(&dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item: map[string]*dynamodb.AttributeValue{
			"flow_id":    {S: aws.String(flowID)},
			"key":        {S: aws.String(key)},
			"ciphertext": {B: ciphertext},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to save secret: %w", err)
	}
	return nil
}

// GetSecret retrieves an encrypted secret value.
func (s *DynamoDBSecretStore) GetSecret(flowID, key string) ([]byte, error) {
	result, err := s.client.GetItem(&dynamodb.GetItemInput{
		TableName: aws.String(s.table),
		Key: map[string]*dynamodb.AttributeValue{
			"flow_id": {S: aws.String(flowID)},
			"key":     {S: aws.String(key)},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get secret: %w", err)
	}
	if result.Item == nil {
		return nil, ErrSecretNotFound
	}
	return result.Item["ciphertext"].B, nil
}

// ListSecrets returns all encrypted secrets for a flow.
func (s *DynamoDBSecretStore) ListSecrets(flowID string) (map[string][]byte, error) {
	result, err := s.client.Query(&dynamodb.QueryInput{
		TableName:              aws.String(s.table),
		KeyConditionExpression: aws.String("flow_id = :flow_id"),
		ExpressionAttributeValues: map[string]*dynamodb.AttributeValue{
			":flow_id": {S: aws.String(flowID)},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query secrets: %w", err)
	}

	secrets := make(map[string][]byte, len(result.Items))
	for _, item := range result.Items {
		secrets[aws.StringValue(item["key"].S)] = item["ciphertext"].B
	}
	return secrets, nil
}

// DeleteSecret removes a secret.
func (s *DynamoDBSecretStore) DeleteSecret(flowID, key string) error {
	if _, err := s.GetSecret(flowID, key); err != nil {
		return err
	}
	_, err := s.client.DeleteItem(&dynamodb.DeleteItemInput{
		TableName: aws.String(s.table),
		Key: map[string]*dynamodb.AttributeValue{
			"flow_id": {S: aws.String(flowID)},
			"key":     {S: aws.String(key)},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to delete secret: %w", err)
	}
	return nil
}

// DynamoDBExecutionStore implements ExecutionStore using DynamoDB.
type DynamoDBExecutionStore struct {
	client         dynamodbiface.DynamoDBAPI
	table          string
	logTable       string
	analyticsTable string
}

// SaveExecution persists a new execution record.
func (s *DynamoDBExecutionStore) SaveExecution(record models.ExecutionRecord) error {
	return s.putExecution(record)
}

// UpdateExecution updates an existing execution record.
func (s *DynamoDBExecutionStore) UpdateExecution(record models.ExecutionRecord) error {
	if _, err := s.GetExecution(record.ID); err != nil {
		return err
	}
	return s.putExecution(record)
}

func (s *DynamoDBExecutionStore) putExecution(record models.ExecutionRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal execution: %w", err)
	}
	_, err = s.client.PutItem(&dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item: map[string]*dynamodb.AttributeValue{
			"id":      {S: aws.String(record.ID)},
			"flow_id": {S: aws.String(record.FlowID)},
			"data":    {S: aws.String(string(data))},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to save execution: %w", err)
	}
	return nil
}

// GetExecution retrieves an execution record.
func (s *DynamoDBExecutionStore) GetExecution(executionID string) (models.ExecutionRecord, error) {
	result, err := s.client.GetItem(&dynamodb.GetItemInput{
		TableName: aws.String(s.table),
		Key: map[string]*dynamodb.AttributeValue{
			"id": {S: aws.String(executionID)},
		},
	})
	if err != nil {
		return models.ExecutionRecord{}, fmt.Errorf("failed to get execution: %w", err)
	}
	if result.Item == nil {
		return models.ExecutionRecord{}, ErrExecutionNotFound
	}

	var record models.ExecutionRecord
	if err := json.Unmarshal([]byte(aws.StringValue(result.Item["data"].S)), &record); err != nil {
		return models.ExecutionRecord{}, fmt.Errorf("failed to unmarshal execution: %w", err)
	}
	return record, nil
}

// ListExecutions returns all executions for a flow, newest first.
func (s *DynamoDBExecutionStore) ListExecutions(flowID string) ([]models.ExecutionRecord, error) {
	result, err := s.client.Scan(&dynamodb.ScanInput{
		TableName:        aws.String(s.table),
		FilterExpression: aws.String("flow_id = :flow_id"),
		ExpressionAttributeValues: map[string]*dynamodb.AttributeValue{
			":flow_id": {S: aws.String(flowID)},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan executions: %w", err)
	}

	records := make([]models.ExecutionRecord, 0, len(result.Items))
	for _, item := range result.Items {
		var record models.ExecutionRecord
		if err := json.Unmarshal([]byte(aws.StringValue(item["data"].S)), &record); err != nil {
			return nil, fmt.Errorf("failed to unmarshal execution: %w", err)
		}
		records = append(records, record)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].StartTime.After(records[j].StartTime) })
	return records, nil
}

// SaveExecutionLogs appends log entries for an execution. The sequence
// number preserves insertion order under the execution's partition.
func (s *DynamoDBExecutionStore) SaveExecutionLogs(executionID string, entries []models.ExecutionLogEntry) error {
	base := time.Now().UnixNano()
	for i, entry := range entries {
		data, err := json.Marshal(entry)
		if err != nil {
			return fmt.Errorf("failed to marshal log entry: %w", err)
		}
		_, err = s.client.PutItem(&dynamodb.PutItemInput{
			TableName: aws.String(s.logTable),
			Item: map[string]*dynamodb.AttributeValue{
				"execution_id": {S: aws.String(executionID)},
				"seq":          {N: aws.String(strconv.FormatInt(base+int64(i), 10))},
				"data":         {S: aws.String(string(data))},
			},
		})
		if err != nil {
			return fmt.Errorf("failed to save log entry: %w", err)
		}
	}
	return nil
}

// GetExecutionLogs retrieves the ordered log entries of an execution.
func (s *DynamoDBExecutionStore) GetExecutionLogs(executionID string) ([]models.ExecutionLogEntry, error) {
	result, err := s.client.Query(&dynamodb.QueryInput{
		TableName:              aws.String(s.logTable),
		KeyConditionExpression: aws.String("execution_id = :execution_id"),
		ExpressionAttributeValues: map[string]*dynamodb.AttributeValue{
			":execution_id": {S: aws.String(executionID)},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query logs: %w", err)
	}

	entries := make([]models.ExecutionLogEntry, 0, len(result.Items))
	for _, item := range result.Items {
		var entry models.ExecutionLogEntry
		if err := json.Unmarshal([]byte(aws.StringValue(item["data"].S)), &entry); err != nil {
			return nil, fmt.Errorf("failed to unmarshal log entry: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// SaveAnalytics persists a request analytics row.
func (s *DynamoDBExecutionStore) SaveAnalytics(record models.AnalyticsRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal analytics: %w", err)
	}
	_, err = s.client.PutItem(&dynamodb.PutItemInput{
		TableName: aws.String(s.analyticsTable),
		Item: map[string]*dynamodb.AttributeValue{
			"execution_id": {S: aws.String(record.ExecutionID)},
			"seq":          {N: aws.String(strconv.FormatInt(time.Now().UnixNano(), 10))},
			"data":         {S: aws.String(string(data))},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to save analytics: %w", err)
	}
	return nil
}

// DynamoDBDataTableStore implements DataTableStore using DynamoDB.
type DynamoDBDataTableStore struct {
	client dynamodbiface.DynamoDBAPI
	table  string
}

// CreateRow inserts a row and returns its generated ID.
func (s *DynamoDBDataTableStore) CreateRow(table string, row map[string]interface{}) (string, error) {
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
	_, err = s.client.PutItem(&dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item: map[string]*dynamodb.AttributeValue{
			"table_name": {S: aws.String(table)},
			"row_id":     {S: aws.String(rowID)},
			"data":       {S: aws.String(string(data))},
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to create row: %w", err)
	}
	return rowID, nil
}

// GetRows returns rows matching the query.
func (s *DynamoDBDataTableStore) GetRows(table string, query RowQuery) ([]map[string]interface{}, error) {
	result, err := s.client.Query(&dynamodb.QueryInput{
		TableName:              aws.String(s.table),
		KeyConditionExpression: aws.String("table_name = :table_name"),
		ExpressionAttributeValues: map[string]*dynamodb.AttributeValue{
			":table_name": {S: aws.String(table)},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query rows: %w", err)
	}

	rows := make([]map[string]interface{}, 0, len(result.Items))
	for _, item := range result.Items {
		var row map[string]interface{}
		if err := json.Unmarshal([]byte(aws.StringValue(item["data"].S)), &row); err != nil {
			return nil, fmt.Errorf("failed to unmarshal row: %w", err)
		}
		if matchesFilter(row, query.Filter) {
			rows = append(rows, row)
		}
	}

	sortAndLimit(rows, query)
	if query.Limit > 0 && len(rows) > query.Limit {
		rows = rows[:query.Limit]
	}
	return rows, nil
}

// UpdateRow merges updates into an existing row.
func (s *DynamoDBDataTableStore) UpdateRow(table, rowID string, updates map[string]interface{}) error {
	result, err := s.client.GetItem(&dynamodb.GetItemInput{
		TableName: aws.String(s.table),
		Key: map[string]*dynamodb.AttributeValue{
			"table_name": {S: aws.String(table)},
			"row_id":     {S: aws.String(rowID)},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to get row: %w", err)
	}
	if result.Item == nil {
		return ErrRowNotFound
	}

	var row map[string]interface{}
	if err := json.Unmarshal([]byte(aws.StringValue(result.Item["data"].S)), &row); err != nil {
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
	_, err = s.client.PutItem(&dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item: map[string]*dynamodb.AttributeValue{
			"table_name": {S: aws.String(table)},
			"row_id":     {S: aws.String(rowID)},
			"data":       {S: aws.String(string(merged))},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to update row: %w", err)
	}
	return nil
}

// DeleteRow removes a row.
func (s *DynamoDBDataTableStore) DeleteRow(table, rowID string) error {
	result, err := s.client.GetItem(&dynamodb.GetItemInput{
		TableName: aws.String(s.table),
		Key: map[string]*dynamodb.AttributeValue{
			"table_name": {S: aws.String(table)},
			"row_id":     {S: aws.String(rowID)},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to get row: %w", err)
	}
	if result.Item == nil {
		return ErrRowNotFound
	}

	_, err = s.client.DeleteItem(&dynamodb.DeleteItemInput{
		TableName: aws.String(s.table),
		Key: map[string]*dynamodb.AttributeValue{
			"table_name": {S: aws.String(table)},
			"row_id":     {S: aws.String(rowID)},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to delete row: %w", err)
	}
	return nil
}
