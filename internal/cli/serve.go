// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-keyauth.
//
// go-keyauth is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jeremyhahn/go-keyauth/internal/config"
	"github.com/jeremyhahn/go-keyauth/internal/rest"
	"github.com/jeremyhahn/go-keyauth/pkg/enforcement"
	"github.com/jeremyhahn/go-keyauth/pkg/logging"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the authorization decision service",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(flagConfig)
		if err != nil {
			return err
		}

		debug := flagVerbose || cfg.Logging.Level == "debug"
		var logger *logging.Logger
		if cfg.Logging.Format == "json" {
			logger = logging.NewJSONLogger(debug)
		} else {
			logger = logging.NewLogger(debug)
		}

		tokenKey, err := cfg.TokenHMACKey()
		if err != nil {
			return err
		}
		engineCfg := &enforcement.Config{
			AccessTimeTableSize:  cfg.Enforcement.AccessTimeTableSize,
			AccessCountTableSize: cfg.Enforcement.AccessCountTableSize,
			Logger:               logger.WithComponent("enforcement"),
		}
		if tokenKey != nil {
			engineCfg.Verifier = enforcement.NewHMACVerifier(tokenKey)
		} else {
			logger.Warn("no auth-token HMAC key configured; authentication-gated keys will be denied")
		}
		enforcer := enforcement.New(engineCfg)

		server, err := rest.NewServer(&rest.Config{
			Config:   cfg,
			Enforcer: enforcer,
			Logger:   logger,
			Version:  Version,
		})
		if err != nil {
			return err
		}

		errCh := make(chan error, 1)
		go func() {
			errCh <- server.Start()
		}()

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

		select {
		case err := <-errCh:
			return err
		case sig := <-sigCh:
			logger.Info("shutting down", "signal", sig.String())
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return server.Shutdown(ctx)
		}
	},
}
