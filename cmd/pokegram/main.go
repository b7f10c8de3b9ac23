package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/camy47/pokesocial/internal/app"
	"github.com/camy47/pokesocial/internal/brain"
	"github.com/camy47/pokesocial/internal/camera"
	"github.com/camy47/pokesocial/internal/config"
	"github.com/camy47/pokesocial/internal/core/ports"
	"github.com/camy47/pokesocial/internal/logging"
	"github.com/camy47/pokesocial/internal/sources/ipgeo"
	"github.com/camy47/pokesocial/internal/sources/nominatim"
	"github.com/camy47/pokesocial/internal/sources/pokeapi"
	"github.com/camy47/pokesocial/internal/sources/randomuser"
	"github.com/camy47/pokesocial/internal/storage"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Global flags
	verbose bool
	envFile string

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "pokegram",
	Short: "PokéGram - catch Pokémon and share them on a social feed",
	Long: `PokéGram lets you encounter random Pokémon, catch them into your
collection and scroll a feed mixing your catches with posts from other
trainers.

Run without arguments to start the interactive encounter loop.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if envFile != "" {
			cfg = config.Load(envFile)
		} else {
			cfg = config.Load()
		}
		var err error
		logger, err = logging.New(verbose || cfg.Verbose)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: runLoop,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&envFile, "env", "", "Path to a .env file (default: ./.env)")

	registerCommands(rootCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// openStore picks PostgreSQL, then SQLite, then the JSON file.
func openStore(ctx context.Context) (ports.KeyValueStore, error) {
	if cfg.DatabaseURL != "" {
		store, err := storage.NewPostgresStorage(ctx, cfg.DatabaseURL)
		if err == nil {
			logger.Info("Storage: PostgreSQL connected")
			return store, nil
		}
		logger.Warn("PostgreSQL unavailable, falling back", zap.Error(err))
	}
	if cfg.SQLitePath != "" {
		store, err := storage.NewSQLiteStorage(cfg.SQLitePath)
		if err == nil {
			logger.Info("Storage: SQLite", zap.String("path", cfg.SQLitePath))
			return store, nil
		}
		logger.Warn("SQLite unavailable, falling back", zap.Error(err))
	}
	store, err := storage.NewJSONStorage(cfg.DataFile, cfg.StoreQuota)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.DataFile, err)
	}
	if store.Recovered != "" {
		logger.Warn("Store file was corrupt, starting empty", zap.String("moved_to", store.Recovered))
	}
	logger.Info("Storage: JSON file", zap.String("path", cfg.DataFile))
	return store, nil
}

func positionSource() ports.PositionSource {
	switch {
	case cfg.DisableGeo:
		return ipgeo.Denied{}
	case cfg.HasStaticPosition():
		return ipgeo.Static{Latitude: *cfg.Latitude, Longitude: *cfg.Longitude}
	default:
		return ipgeo.NewClient(cfg.IPGeoBaseURL)
	}
}

// openSession wires a session from cfg. cameraImage overrides the configured
// camera source when non-empty.
func openSession(ctx context.Context, cameraImage string) (*app.Session, error) {
	kv, err := openStore(ctx)
	if err != nil {
		return nil, err
	}

	deps := app.Deps{
		KV:              kv,
		Creatures:       pokeapi.NewClient(cfg.PokeAPIBaseURL, logger.Named("pokeapi")),
		People:          randomuser.NewClient(cfg.RandomUserBaseURL),
		Positions:       positionSource(),
		Geocoder:        nominatim.NewClient(cfg.NominatimBaseURL),
		Logger:          logger,
		BatchSize:       cfg.BatchSize,
		RefreshInterval: cfg.RefreshInterval,
	}

	if cfg.GeminiAPIKey != "" {
		b, err := brain.NewGeminiBrain(ctx, cfg.GeminiAPIKey, logger.Named("brain"))
		if err != nil {
			logger.Warn("Caption writer disabled", zap.Error(err))
		} else {
			deps.Captioner = b
		}
	}

	if cameraImage == "" {
		cameraImage = cfg.CameraImage
	}
	if cameraImage != "" {
		deps.Camera = &camera.FileDevice{Path: cameraImage}
	}

	return app.NewSession(deps), nil
}
