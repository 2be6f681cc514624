package storage

import (
	"fmt"

	"github.com/RantirAI/RantirCloud3.2-sub009/pkg/config"
)

// NewProvider creates a storage provider from configuration.
func NewProvider(cfg config.StorageConfig) (StorageProvider, error) {
	switch cfg.Type {
	case "", "memory":
		return NewMemoryProvider(), nil
	case "postgres":
		return NewPostgresProvider(cfg.Postgres)
	case "dynamodb":
		return NewDynamoDBProvider(cfg.DynamoDB)
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}
