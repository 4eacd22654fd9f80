package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/logshipio/logship"
	"github.com/logshipio/logship/batch"
	"github.com/logshipio/logship/ingest"
	"github.com/logshipio/logship/internal/tailer"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	config := getConfig()
	if config.SourceToken == "" {
		log.Fatal("LOGSHIP_SOURCE_TOKEN is required")
	}

	sender := ingest.NewSender(ingest.Config{
		Endpoint:    config.Endpoint,
		SourceToken: config.SourceToken,
		Timeout:     config.HTTPTimeout,
		Sanitize: logship.SanitizeOptions{
			StripKeys: config.StripKeys,
		},
	})

	engine := batch.NewEngine(ctx, logship.Config{
		BatchSize:     config.BatchSize,
		FlushInterval: config.FlushInterval,
		MaxRetries:    config.MaxRetries,
		MinLevel:      config.MinLevel,
	})
	engine.SetSyncFunc(sender.Sync)
	engine.Start()

	logger := logship.New(engine)

	tailService := tailer.NewService(ctx, tailer.Config{
		Root:         config.TailRoot,
		ScanInterval: config.ScanInterval,
		Workers:      config.Workers,
		QueueSize:    config.QueueSize,
		IdleTimeout:  config.IdleTimeout,
	}, logger)
	tailService.Start()

	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, syscall.SIGINT, syscall.SIGTERM)

	<-signalChan
	log.Println("Received shutdown signal")

	tailService.Stop()
	engine.Stop()
	cancel()
	log.Println("Shut down")
}

// ------------------------------------  code for reading config -----------------------------------------------------

type AppConfig struct {
	Endpoint      string
	SourceToken   string
	HTTPTimeout   time.Duration
	BatchSize     int
	FlushInterval time.Duration
	MaxRetries    int
	MinLevel      logship.Level
	StripKeys     []string
	TailRoot      string
	ScanInterval  time.Duration
	Workers       int
	QueueSize     int
	IdleTimeout   time.Duration
}

func getConfig() AppConfig {
	return AppConfig{
		Endpoint:      getEnv("LOGSHIP_ENDPOINT", "https://in.logs.example.com"),
		SourceToken:   getEnv("LOGSHIP_SOURCE_TOKEN", ""),
		HTTPTimeout:   getEnvAsDuration("LOGSHIP_HTTP_TIMEOUT", 5*time.Second),
		BatchSize:     getEnvAsInt("LOGSHIP_BATCH_SIZE", 1000),
		FlushInterval: getEnvAsDuration("LOGSHIP_FLUSH_INTERVAL", 5*time.Second),
		MaxRetries:    getEnvAsInt("LOGSHIP_MAX_RETRIES", 3),
		MinLevel:      getEnvAsLevel("LOGSHIP_MIN_LEVEL", logship.LevelInfo),
		StripKeys:     getEnvAsList("LOGSHIP_STRIP_KEYS"),
		TailRoot:      getEnv("LOGSHIP_TAIL_ROOT", "/var/log"),
		ScanInterval:  getEnvAsDuration("LOGSHIP_SCAN_INTERVAL", 30*time.Second),
		Workers:       getEnvAsInt("LOGSHIP_WORKERS", 4),
		QueueSize:     getEnvAsInt("LOGSHIP_QUEUE_SIZE", 50),
		IdleTimeout:   getEnvAsDuration("LOGSHIP_IDLE_TIMEOUT", 5*time.Minute),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var result int
		if _, err := fmt.Sscanf(value, "%d", &result); err == nil {
			return result
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if result, err := time.ParseDuration(value); err == nil {
			return result
		}
	}
	return defaultValue
}

func getEnvAsLevel(key string, defaultValue logship.Level) logship.Level {
	if value := os.Getenv(key); value != "" {
		if result, err := logship.ParseLevel(value); err == nil {
			return result
		}
	}
	return defaultValue
}

func getEnvAsList(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}

	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
