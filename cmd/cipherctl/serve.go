package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/RowanDark/cipherkit/internal/api"
	"github.com/RowanDark/cipherkit/internal/logging"
)

func runServe(args []string) int {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	addr := fs.String("addr", "", "listen address (default from config)")
	token := fs.String("token", "", "API token (default from config)")
	timeout := fs.Duration("timeout", 30*time.Second, "per-request timeout")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	env, err := loadEnvironment("cipherctl-api")
	if err != nil {
		reportError("serve", err)
		return 1
	}
	defer env.close()

	cfg := env.cfg
	if *addr != "" {
		cfg.ServerAddr = *addr
	}
	if *token != "" {
		cfg.AuthToken = *token
	}
	if cfg.AuthToken == "" {
		fmt.Fprintln(os.Stderr, "an API token is required: set auth_token, CIPHERKIT_AUTH_TOKEN or -token")
		return 2
	}

	logger := env.logger
	if logger == nil {
		// Without an audit file the server still logs to stdout.
		logger, err = logging.NewAuditLogger("cipherctl-api")
		if err != nil {
			reportError("serve", err)
			return 1
		}
		defer logger.Close()
	}

	server, err := api.NewServer(api.Config{
		Addr:           cfg.ServerAddr,
		StaticToken:    cfg.AuthToken,
		RecipesDir:     cfg.RecipesDir,
		Logger:         logger,
		RequestTimeout: *timeout,
	})
	if err != nil {
		reportError("serve", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(os.Stderr, "cipherkit API listening on %s\n", cfg.ServerAddr)
	if err := server.Run(ctx); err != nil {
		reportError("serve", err)
		return 1
	}
	return 0
}
