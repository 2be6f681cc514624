// Package main is the entry point for the flow engine server.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/RantirAI/RantirCloud3.2-sub009/pkg/config"
)

var (
	configPath = flag.String("config", "", "Path to config file")
	version    = flag.Bool("version", false, "Print version information")
)

const (
	AppVersion = "3.2.0"
	AppName    = "rantircloud"
)

func main() {
	_ = godotenv.Load()
	flag.Parse()

	if *version {
		fmt.Printf("%s version %s\n", AppName, AppVersion)
		return
	}

	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	app, err := NewApp(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			log.Fatalf("Server failed: %v", err)
		}
	case sig := <-stop:
		log.Printf("Received signal %v, shutting down", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := app.Stop(ctx); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
}

func loadConfig() (*config.Config, error) {
	if *configPath != "" {
		return config.LoadConfig(*configPath)
	}
	if path := os.Getenv("RANTIR_CONFIG"); path != "" {
		return config.LoadConfig(path)
	}

	cfg := config.DefaultConfig()
	cfg.ApplyEnvOverrides()
	return cfg, nil
}
