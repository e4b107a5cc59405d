package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	flag "github.com/spf13/pflag"

	"github.com/marmos91/hetty/internal/logger"
	"github.com/marmos91/hetty/pkg/config"
	"github.com/marmos91/hetty/pkg/server"
)

func main() {
	configPath := flag.StringP("config", "c", "", "Path to config file (default: $XDG_CONFIG_HOME/hetty/config.yaml)")
	logLevel := flag.String("log-level", "", "Log level (DEBUG, INFO, WARN, ERROR), overrides the config file")
	bindAddress := flag.String("bind-address", "", "Address to listen on, overrides the config file")
	port := flag.IntP("port", "p", 0, "Port to listen on (0 = ephemeral), overrides the config file")
	handlerType := flag.String("handler", "", "Connection handler (echo, discard), overrides the config file")
	metricsEnabled := flag.Bool("metrics", false, "Serve Prometheus metrics, overrides the config file")
	initConfig := flag.Bool("init", false, "Write a default config file and exit")
	force := flag.Bool("force", false, "With --init, overwrite an existing config file")
	flag.Parse()

	if *initConfig {
		path := *configPath
		if path == "" {
			path = config.GetDefaultConfigPath()
		}
		if err := config.InitConfigToPath(path, *force); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Configuration written to %s\n", path)
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// CLI flags take precedence over file and environment
	if flag.CommandLine.Changed("log-level") {
		cfg.Logging.Level = *logLevel
	}
	if flag.CommandLine.Changed("bind-address") {
		cfg.Listener.BindAddress = *bindAddress
	}
	if flag.CommandLine.Changed("port") {
		cfg.Listener.BindPort = *port
	}
	if flag.CommandLine.Changed("handler") {
		cfg.Handler.Type = *handlerType
	}
	if flag.CommandLine.Changed("metrics") {
		cfg.Metrics.Enabled = *metricsEnabled
	}
	config.ApplyDefaults(cfg)
	if err := config.Validate(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := run(cfg, log); err != nil {
		log.Error("%v", err)
		_ = log.Close()
		os.Exit(1)
	}
	_ = log.Close()
}

func run(cfg *config.Config, log *logger.Logger) error {
	log.Info("hetty - TCP listener service")
	log.Info("Log level set to: %s", cfg.Logging.Level)

	metricsResult := config.InitializeMetrics(cfg, log.Named("metrics"))

	svc, err := config.CreateListener(cfg, log, metricsResult.ListenerMetrics)
	if err != nil {
		return err
	}

	serverCfg := server.Config{ShutdownTimeout: cfg.Server.ShutdownTimeout}
	if metricsResult.Server != nil {
		serverCfg.Metrics = metricsResult.Server
		log.Info("Metrics enabled on port %d", metricsResult.Server.Port())
	}
	srv := server.New(svc, serverCfg, log.Named("server"))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// SIGHUP restarts the listener in place
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)
	go func() {
		for {
			select {
			case <-hup:
				log.Info("SIGHUP received")
				srv.Reload()
			case <-ctx.Done():
				return
			}
		}
	}()

	log.Info("Server is running. Press Ctrl+C to stop.")

	if err := srv.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}
