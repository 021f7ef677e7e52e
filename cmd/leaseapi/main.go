package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v2"

	"leaseapi/internal/config"
	"leaseapi/internal/lease"
	"leaseapi/internal/logger"
	"leaseapi/internal/monitor"
	"leaseapi/internal/web"
)

const (
	configFile = "leaseapi.ini"
)

var (
	sha1ver   string
	buildTime string
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	app := &cli.App{
		Name:    "leaseapi",
		Usage:   "Serve dnsmasq DHCP leases as JSON",
		Version: fmt.Sprintf("%s (built %s)", sha1ver, buildTime),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "ini configuration file",
				Value:   configFile,
			},
			&cli.StringFlag{
				Name:    "leases-file",
				Aliases: []string{"f"},
				Usage:   "lease file tried before the default locations",
			},
			&cli.StringFlag{
				Name:    "listen",
				Aliases: []string{"l"},
				Usage:   "HTTP listen address",
			},
			&cli.BoolFlag{
				Name:  "lax",
				Usage: "skip malformed lease lines instead of failing the listing",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "debug|info|warn|error",
			},
		},
		Action: serve,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API",
				Action: serve,
			},
			{
				Name:    "list",
				Aliases: []string{"ls"},
				Usage:   "Print the current leases and exit",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "format",
						Usage: "output format: json|yaml",
						Value: "json",
					},
				},
				Action: list,
			},
		},
	}
	return app
}

// loadConfig builds the configuration: defaults, ini file, environment, flags
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, warn := config.New(c.String("config"))

	if c.IsSet("leases-file") {
		cfg.LeasesFile = c.String("leases-file")
	}
	if c.IsSet("listen") {
		cfg.HTTPListen = c.String("listen")
	}
	if c.Bool("lax") {
		cfg.Strict = false
	}
	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}

	if err := logger.Init(cfg.LogLevel); err != nil {
		return nil, err
	}
	if warn != nil {
		logger.Logger.Infof("Skipping config file: %v", warn)
	}
	return cfg, nil
}

func newService(cfg *config.Config) *lease.Service {
	reader := lease.NewReader(cfg.ReadTimeout, logger.Logger)
	return lease.NewService(cfg.Candidates(), reader, cfg.Strict, logger.Logger)
}

func serve(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	log := logger.Logger
	log.Infof("leaseapi: Build %s, Time %s", sha1ver, buildTime)
	log.Infof("Lease file candidates: %v", cfg.Candidates())

	service := newService(cfg)
	metrics := web.NewMetrics()

	if cfg.Watch {
		mon := monitor.New(service.Paths(), metrics.LeaseFileEvent, log)
		if err := mon.Start(); err != nil {
			log.Warnf("Failed to start lease file monitor: %v", err)
		} else {
			defer mon.Stop()
		}
	}

	server := web.NewServer(cfg.HTTPListen, service, metrics, log)
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
		return nil
	case sig := <-sigChan:
		log.Infof("Received %s, shutting down...", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(ctx)
}

func list(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	result, err := newService(cfg).List(c.Context)
	if err != nil {
		return err
	}
	return writeLeases(c.App.Writer, lease.SerializeAll(result.Records), c.String("format"))
}

func writeLeases(w io.Writer, data []map[string]string, format string) error {
	var (
		out []byte
		err error
	)
	switch format {
	case "yaml":
		out, err = yaml.Marshal(data)
	case "json", "":
		out, err = json.MarshalIndent(data, "", "  ")
		out = append(out, '\n')
	default:
		return fmt.Errorf("unknown format %q", format)
	}
	if err != nil {
		return err
	}
	_, err = w.Write(out)
	return err
}
