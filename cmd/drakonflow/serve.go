package main

import (
	"github.com/spf13/cobra"

	"drakonflow/internal/server"
)

func newServeCmd(a *app) *cobra.Command {
	var cacheSize int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the drakonflow tools over MCP on stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cacheSize <= 0 {
				cacheSize = a.cfg.Server.CacheSize
			}
			s, err := server.New(a.conv, cacheSize, a.logger)
			if err != nil {
				return err
			}
			return s.Run(cmd.Context())
		},
	}
	cmd.Flags().IntVar(&cacheSize, "cache-size", 0, "results kept by the pure tools (default from config)")
	return cmd
}
