package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kiesman99/cosmoview/internal/catalog"
	"github.com/kiesman99/cosmoview/internal/highlight"
	"github.com/kiesman99/cosmoview/internal/metrics"
	"github.com/kiesman99/cosmoview/internal/server"
	"github.com/kiesman99/cosmoview/internal/viewer"
	"github.com/kiesman99/cosmoview/pkg/tile"
	"github.com/kiesman99/cosmoview/pkg/viewport"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the viewer API server",
	Long: `Start an HTTP server that hosts viewer and comparison sessions.

The API lives under /api/v1, session events stream over websockets at
/api/v1/viewers/{id}/events and /api/v1/comparisons/{id}/events, and
Prometheus metrics are served at /metrics.

Examples:
  # Start server on default port 8080
  cosmoview serve

  # Serve a catalog whose descriptor paths live on a tile host
  cosmoview serve --catalog catalog.yaml --catalog-base-url https://tiles.example.com

  # Start server with custom bind address
  cosmoview serve --bind 0.0.0.0 --port 8080`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	def := viewer.DefaultOptions()

	// Server configuration
	serveCmd.Flags().StringP("bind", "b", "localhost", "bind address")
	serveCmd.Flags().IntP("port", "p", 8080, "port to listen on")
	serveCmd.Flags().Duration("timeout", 30*time.Second, "request timeout")
	serveCmd.Flags().StringSlice("origin", nil, "origin patterns allowed to open event streams")
	serveCmd.Flags().Bool("runtime-metrics", true, "export Go runtime and process metrics")

	// Viewer configuration
	serveCmd.Flags().Float64("min-zoom", def.MinZoom, "lowest zoom level")
	serveCmd.Flags().Float64("zoom-factor", def.ZoomFactor, "zoom step of zoom_in and zoom_out")
	serveCmd.Flags().Duration("animation-time", def.AnimationTime, "length of animated transitions (0 disables animation)")
	serveCmd.Flags().Duration("frame-interval", def.FrameInterval, "delay between animation frames")
	serveCmd.Flags().Float64("container-width", def.Container.Width, "default viewer width in pixels")
	serveCmd.Flags().Float64("container-height", def.Container.Height, "default viewer height in pixels")
	serveCmd.Flags().Duration("highlight-duration", highlight.DefaultDuration, "how long a highlight stays visible")
	serveCmd.Flags().Float64("highlight-zoom", server.DefaultHighlightZoom, "zoom used by highlights without one")

	// Tile sources
	serveCmd.Flags().String("user-agent", "cosmoview/"+Version, "HTTP User-Agent for descriptor requests")
	serveCmd.Flags().Duration("tile-timeout", 30*time.Second, "descriptor request timeout")
	serveCmd.Flags().String("catalog", "", "catalog YAML file")
	serveCmd.Flags().String("catalog-base-url", "", "prefix for catalog descriptor paths starting with /")
	serveCmd.Flags().StringSlice("allow-source", nil, "URL prefixes clients may open descriptors from (default: any http(s) URL)")

	// Bind flags to viper
	viper.BindPFlag("server.bind", serveCmd.Flags().Lookup("bind"))
	viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
	viper.BindPFlag("server.timeout", serveCmd.Flags().Lookup("timeout"))
	viper.BindPFlag("server.origins", serveCmd.Flags().Lookup("origin"))
	viper.BindPFlag("metrics.runtime", serveCmd.Flags().Lookup("runtime-metrics"))
	viper.BindPFlag("viewer.min-zoom", serveCmd.Flags().Lookup("min-zoom"))
	viper.BindPFlag("viewer.zoom-factor", serveCmd.Flags().Lookup("zoom-factor"))
	viper.BindPFlag("viewer.animation-time", serveCmd.Flags().Lookup("animation-time"))
	viper.BindPFlag("viewer.frame-interval", serveCmd.Flags().Lookup("frame-interval"))
	viper.BindPFlag("viewer.container-width", serveCmd.Flags().Lookup("container-width"))
	viper.BindPFlag("viewer.container-height", serveCmd.Flags().Lookup("container-height"))
	viper.BindPFlag("highlight.duration", serveCmd.Flags().Lookup("highlight-duration"))
	viper.BindPFlag("highlight.zoom", serveCmd.Flags().Lookup("highlight-zoom"))
	viper.BindPFlag("tile.user-agent", serveCmd.Flags().Lookup("user-agent"))
	viper.BindPFlag("tile.timeout", serveCmd.Flags().Lookup("tile-timeout"))
	viper.BindPFlag("catalog.path", serveCmd.Flags().Lookup("catalog"))
	viper.BindPFlag("catalog.base-url", serveCmd.Flags().Lookup("catalog-base-url"))
	viper.BindPFlag("tile.allowed-sources", serveCmd.Flags().Lookup("allow-source"))
}

// serverConfig builds the server configuration from viper
func serverConfig(log *slog.Logger) (server.Config, error) {
	cfg := server.Config{
		Version: Version,
		Timeout: viper.GetDuration("server.timeout"),
		Viewer: viewer.Options{
			MinZoom:       viper.GetFloat64("viewer.min-zoom"),
			ZoomFactor:    viper.GetFloat64("viewer.zoom-factor"),
			AnimationTime: viper.GetDuration("viewer.animation-time"),
			FrameInterval: viper.GetDuration("viewer.frame-interval"),
			Container: viewport.Size{
				Width:  viper.GetFloat64("viewer.container-width"),
				Height: viper.GetFloat64("viewer.container-height"),
			},
		},
		HighlightDuration: viper.GetDuration("highlight.duration"),
		HighlightZoom:     viper.GetFloat64("highlight.zoom"),
		Resolver:          tile.NewProcessor(viper.GetString("tile.user-agent"), viper.GetDuration("tile.timeout")),
		CatalogBaseURL:    viper.GetString("catalog.base-url"),
		AllowedSources:    viper.GetStringSlice("tile.allowed-sources"),
		Metrics:           metrics.New(viper.GetBool("metrics.runtime")),
		Logger:            log,
		OriginPatterns:    viper.GetStringSlice("server.origins"),
	}

	if path := viper.GetString("catalog.path"); path != "" {
		cat, err := catalog.Load(path)
		if err != nil {
			return cfg, fmt.Errorf("loading catalog: %w", err)
		}
		cfg.Catalog = cat
		log.Info("catalog loaded", "path", path, "images", len(cat.Images()))
	}
	return cfg, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	bind := viper.GetString("server.bind")
	port := viper.GetInt("server.port")
	timeout := viper.GetDuration("server.timeout")

	addr := fmt.Sprintf("%s:%d", bind, port)
	log := slog.Default()

	cfg, err := serverConfig(log)
	if err != nil {
		return err
	}
	apiServer := server.NewServer(cfg)
	defer apiServer.Close()

	// WriteTimeout stays unset: event streams are long lived and API
	// requests are bounded by the timeout middleware
	httpServer := &http.Server{
		Addr:        addr,
		Handler:     apiServer.Handler(),
		ReadTimeout: timeout,
	}

	// Graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()

		log.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Error("server shutdown error", "error", err)
		}
	}()

	log.Info("starting cosmoview server", "addr", addr, "version", Version)
	fmt.Fprintf(cmd.ErrOrStderr(), "Health check: http://%s/api/v1/health\n", addr)
	fmt.Fprintf(cmd.ErrOrStderr(), "Viewer sessions: http://%s/api/v1/viewers\n", addr)
	fmt.Fprintf(cmd.ErrOrStderr(), "Metrics: http://%s/metrics\n", addr)

	if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
		return fmt.Errorf("server error: %v", err)
	}

	return nil
}
