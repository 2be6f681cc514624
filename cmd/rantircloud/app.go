package main

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/RantirAI/RantirCloud3.2-sub009/pkg/api"
	"github.com/RantirAI/RantirCloud3.2-sub009/pkg/config"
	"github.com/RantirAI/RantirCloud3.2-sub009/pkg/proxy"
	"github.com/RantirAI/RantirCloud3.2-sub009/pkg/registry"
	"github.com/RantirAI/RantirCloud3.2-sub009/pkg/runtime"
	"github.com/RantirAI/RantirCloud3.2-sub009/pkg/schedule"
	"github.com/RantirAI/RantirCloud3.2-sub009/pkg/services"
	"github.com/RantirAI/RantirCloud3.2-sub009/pkg/storage"
)

// App wires the storage provider, engine, HTTP server and scheduler.
type App struct {
	config    *config.Config
	provider  storage.StorageProvider
	server    *api.Server
	scheduler *schedule.Scheduler
	flows     *registry.FlowRegistry
}

// NewApp builds the application from configuration.
func NewApp(cfg *config.Config) (*App, error) {
	provider, err := storage.NewProvider(cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage provider: %w", err)
	}
	if err := provider.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	flows := registry.NewFlowRegistry(provider.GetFlowStore())

	vault, err := services.NewSecretVaultService(provider.GetSecretStore(), cfg.Auth.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create secret vault: %w", err)
	}

	handlerRegistry := runtime.NewDefaultRegistry(runtime.RegistryDeps{
		DataTables:  provider.GetDataTableStore(),
		ProxyClient: proxy.NewClient(cfg.Engine.ProxyBaseURL),
	})
	engine := runtime.NewEngine(handlerRegistry, time.Duration(cfg.Engine.NodeTimeoutSeconds)*time.Second)

	server := api.NewServer(cfg, api.Deps{
		Flows:      flows,
		Vault:      vault,
		JWT:        services.NewJWTService(cfg.Auth.JWTSecret, cfg.Auth.TokenExpiration),
		Executions: provider.GetExecutionStore(),
		Engine:     engine,
	})

	app := &App{
		config:   cfg,
		provider: provider,
		server:   server,
		flows:    flows,
	}

	if cfg.Schedule.Enabled {
		store := schedule.NewStore(cfg.Schedule.RedisAddr, cfg.Schedule.RedisPassword, cfg.Schedule.RedisDB)
		app.scheduler = schedule.NewScheduler(store, app.triggerFlow)
	}
	return app, nil
}

// Start runs the scheduler and blocks serving HTTP.
func (a *App) Start() error {
	if a.scheduler != nil {
		if err := a.scheduler.Start(context.Background()); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
		log.Printf("Scheduler started")
	}

	log.Printf("Listening on %s:%d", a.config.Server.Host, a.config.Server.Port)
	err := a.server.Start()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Stop shuts everything down gracefully.
func (a *App) Stop(ctx context.Context) error {
	if a.scheduler != nil {
		a.scheduler.Stop()
	}
	if err := a.server.Stop(ctx); err != nil {
		return err
	}
	return a.provider.Close()
}

// triggerFlow fires a scheduled execution by posting to the flow's own
// endpoint, signed with the flow's internal secret.
func (a *App) triggerFlow(ctx context.Context, flowID string, payload map[string]interface{}) error {
	flow, err := a.flows.Get(flowID)
	if err != nil {
		return err
	}

	if payload == nil {
		payload = map[string]interface{}{}
	}
	payload["source"] = "schedule"

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	url := fmt.Sprintf("http://%s:%d/hooks/%s", a.config.Server.Host, a.config.Server.Port, flow.EndpointSlug)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if flow.InternalSecret != "" {
		mac := hmac.New(sha256.New, []byte(flow.InternalSecret))
		mac.Write(body)
		req.Header.Set("X-Internal-Signature", hex.EncodeToString(mac.Sum(nil)))
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 400 {
		return fmt.Errorf("trigger returned status %d", resp.StatusCode)
	}
	return nil
}
