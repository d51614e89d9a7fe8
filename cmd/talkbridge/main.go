package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"talkbridge/internal/app"
	"talkbridge/pkg/config"
	"talkbridge/pkg/logger"
	"talkbridge/pkg/shutdown"
)

// version is set via ldflags during release builds.
var version = "dev"

func main() {
	_ = godotenv.Load(".env")

	var (
		cfgPath = flag.String("config", "talkbridge.yaml", "path to the YAML config file")
		dbPath  = flag.String("db", "", "path to the messenger sqlite database (overrides config)")
		addr    = flag.String("addr", "", "listen address (overrides config)")
		showVer = flag.Bool("version", false, "print version and exit")
	)
	flag.Parse()

	if *showVer {
		fmt.Println(version)
		return
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *dbPath != "" {
		cfg.Source.DBPath = *dbPath
	}
	if *addr != "" {
		host, port, err := net.SplitHostPort(*addr)
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid -addr %q: %v\n", *addr, err)
			os.Exit(1)
		}
		p, err := strconv.Atoi(port)
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid -addr port %q: %v\n", port, err)
			os.Exit(1)
		}
		cfg.Server.Address = host
		cfg.Server.Port = p
	}

	logger.InitWithLevel(cfg.Logging.Level)

	a, err := app.New(cfg, version)
	if err != nil {
		shutdown.Abort("bridge startup failed", err, cfg.Source.StatePath)
	}

	ctx, cancel := shutdown.SetupSignalHandler(context.Background())
	defer cancel()

	if err := a.Run(ctx); err != nil {
		shutdown.Abort("bridge terminated", err, cfg.Source.StatePath)
	}
}
