package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/loykin/graphauth/internal/common"
	"github.com/loykin/graphauth/internal/provider"
	"github.com/loykin/graphauth/internal/server"
	"github.com/loykin/graphauth/internal/store"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve tokens and provider status over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadConfig()
		if err != nil {
			return err
		}
		logger := common.GetLogger().WithComponent("serve")
		if common.GetLogger().Level() != common.LogLevelDebug {
			gin.SetMode(gin.ReleaseMode)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		var (
			journal store.Journal
			opts    []provider.Option
		)
		if !c.Store.Disabled {
			st, err := store.Open(ctx, c.Store)
			if err != nil {
				return err
			}
			defer func() { _ = st.Close() }()
			journal = st
			opts = append(opts, provider.WithListener(store.Listener(context.WithoutCancel(ctx), st)))
		}

		p, err := startProvider(ctx, c, opts...)
		if err != nil {
			// Keep serving: /status reports signed_out and /token the cause.
			logger.Warn("provider initialization failed", "error", err)
		}

		srv := server.New(p, journal, server.Options{Secret: c.Server.Secret, Audience: c.Server.Audience})
		return srv.Run(ctx, c.Server.Addr)
	},
}
