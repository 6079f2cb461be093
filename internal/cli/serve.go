package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/stippler/internal/server"
)

// serveCommand creates the serve command for the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		cfg     server.Config
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the stippling HTTP API",
		Long: `Serve the stippling HTTP API.

POST an image to /v1/stipple and get one rendered artifact back. Query
parameters mirror the relax flags, e.g.

  curl --data-binary @portrait.jpg 'localhost:8080/v1/stipple?points=3000&format=png'

Set [cache] redis_url in the config file to share results between several
server instances.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			fileCfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			runner, err := c.newRunner(ctx, fileCfg, noCache)
			if err != nil {
				return fmt.Errorf("initialize runner: %w", err)
			}
			defer runner.Close()

			server.LogHooks{Logger: c.Logger}.Register()

			backend := "file"
			switch {
			case noCache || fileCfg.Cache.Disabled:
				backend = "off"
			case fileCfg.Cache.RedisURL != "":
				backend = "redis"
			}
			printInfo("Serving on %s", StyleHighlight.Render(cfg.Addr))
			printKeyValue("cache", backend)
			printKeyValue("timeout", cfg.Timeout.String())
			printKeyValue("max points", fmt.Sprint(cfg.MaxPoints))
			return server.New(runner, c.Logger, cfg).ListenAndServe(ctx)
		},
	}

	f := cmd.Flags()
	f.StringVar(&cfg.Addr, "addr", server.DefaultAddr, "listen address")
	f.Int64Var(&cfg.MaxBodyBytes, "max-body", server.DefaultMaxBodyBytes, "largest accepted upload in bytes")
	f.DurationVar(&cfg.Timeout, "timeout", server.DefaultTimeout, "per-request time limit")
	f.IntVar(&cfg.MaxPoints, "max-points", server.DefaultMaxPoints, "largest point count per request")
	f.IntVar(&cfg.MaxPasses, "max-passes", server.DefaultMaxPasses, "largest pass count per request")
	f.BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}
