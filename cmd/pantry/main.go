package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"pantrypal/internal/app"
	"pantrypal/internal/config"
	"pantrypal/internal/donation"
	"pantrypal/internal/gemini"
	"pantrypal/internal/intake"
	"pantrypal/internal/inventory"
	"pantrypal/internal/notify"
	"pantrypal/internal/policy"
	"pantrypal/internal/retry"
	"pantrypal/internal/scheduler"
	"pantrypal/internal/server"
	"pantrypal/internal/vision"
	"pantrypal/internal/weather"
)

var (
	// Global flags
	verbose    bool
	configPath string

	// Logger
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "pantry",
	Short: "PantryPal - household food inventory assistant",
	Long: `PantryPal tracks a household food ledger with expiry dates, adjusts
expiries when hot weather is forecast, alerts you over WhatsApp about food
nearing expiry, ingests photographed groceries via image recognition, and
finds nearby donation centers for food you cannot finish in time.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zapCfg := zap.NewProductionConfig()
		if verbose {
			zapCfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zapCfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// serveCmd runs the webhook server plus the daily scheduler.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the webhook server and the daily spoilage scheduler",
	RunE:  runServe,
}

// checkCmd runs one spoilage pass immediately.
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Run one weather-gated spoilage pass and alert on flagged items",
	RunE:  runCheck,
}

// donateCmd looks up donation centers for the currently flagged items.
var donateCmd = &cobra.Command{
	Use:   "donate",
	Short: "Find donation centers for currently flagged items",
	RunE:  runDonate,
}

// intakeCmd classifies an image file and merges the items into the ledger.
var intakeCmd = &cobra.Command{
	Use:   "intake [image]",
	Short: "Recognize food items in an image and add them to the ledger",
	Args:  cobra.ExactArgs(1),
	RunE:  runIntake,
}

// configCmd groups configuration subcommands.
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default configuration to the config path",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.DefaultConfig()
		if err := cfg.Save(configPath); err != nil {
			return err
		}
		fmt.Printf("wrote default config to %s\n", configPath)
		return nil
	},
}

func buildApp(ctx context.Context, cfg *config.Config) (*app.App, error) {
	store := inventory.NewStore(cfg.Inventory.LedgerPath, logger.Named("inventory"))

	weatherClient := weather.NewClient(weather.Config{
		BaseURL:       cfg.Weather.BaseURL,
		APIKey:        cfg.Weather.APIKey,
		Lat:           cfg.Weather.Lat,
		Lon:           cfg.Weather.Lon,
		Timeout:       cfg.GetWeatherTimeout(),
		WindowEntries: cfg.Weather.WindowEntries,
	}, logger.Named("weather"))

	engine := policy.NewEngine(store, weatherClient, policy.Config{
		HorizonDays:    cfg.Policy.HorizonDays,
		HeatShiftDays:  cfg.Policy.HeatShiftDays,
		HeatThresholdC: cfg.Policy.HeatThresholdC,
	}, logger.Named("policy"))

	intakeService := intake.NewService(store, cfg.Inventory.ReferencePath, intake.Defaults{
		ShelfLifeDays: cfg.Policy.DefaultShelfLifeDays,
		Storage:       inventory.StorageCounter,
	}, logger.Named("intake"))

	classifier, err := vision.NewClassifier(ctx, vision.Config{
		APIKey:  cfg.Gemini.APIKey,
		Model:   cfg.Gemini.VisionModel,
		Timeout: cfg.GetGeminiTimeout(),
	}, logger.Named("vision"))
	if err != nil {
		return nil, err
	}

	generator := gemini.NewClient(gemini.Config{
		APIKey:             cfg.Gemini.APIKey,
		BaseURL:            cfg.Gemini.BaseURL,
		Model:              cfg.Gemini.Model,
		Timeout:            cfg.GetDonationTimeout(),
		EnableGoogleSearch: true,
	}, logger.Named("gemini"))

	finder := donation.NewFinder(generator, cfg.Donation.Location, retry.Policy{
		MaxAttempts: cfg.Donation.MaxAttempts,
		BaseDelay:   retry.Default.BaseDelay,
	}, logger.Named("donation"))

	notifier := notify.NewNotifier(notify.Config{
		AccountSID: cfg.Twilio.AccountSID,
		AuthToken:  cfg.Twilio.AuthToken,
		BaseURL:    cfg.Twilio.BaseURL,
		FromNumber: cfg.Twilio.FromNumber,
		ToNumber:   cfg.Twilio.ToNumber,
		Timeout:    cfg.GetTwilioTimeout(),
	}, logger.Named("notify"))

	return &app.App{
		Store:       store,
		Engine:      engine,
		Intake:      intakeService,
		Classifier:  classifier,
		Donations:   finder,
		Messenger:   notifier,
		HorizonDays: cfg.Policy.HorizonDays,
		Logger:      logger,
	}, nil
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := buildApp(ctx, cfg)
	if err != nil {
		return err
	}

	srv := server.New(cfg.Server.Addr, application, logger.Named("server"))

	sched, err := scheduler.New(cfg.Schedule.At, func(ctx context.Context) error {
		_, err := application.RunRoutine(ctx)
		return err
	}, logger.Named("scheduler"))
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Run(ctx) })
	g.Go(func() error { return sched.Run(ctx) })
	g.Go(func() error {
		// Best-effort: surfaces external edits racing the single writer.
		err := inventory.WatchLedger(ctx, cfg.Inventory.LedgerPath, logger.Named("inventory"))
		if err == context.Canceled {
			return err
		}
		return nil
	})

	if err := g.Wait(); err != nil && err != context.Canceled {
		return err
	}
	return nil
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	application, err := buildApp(cmd.Context(), cfg)
	if err != nil {
		return err
	}

	report, err := application.RunRoutine(cmd.Context())
	if err != nil {
		return err
	}

	if report.Updated {
		fmt.Printf("inventory updated (avg max temp %.1f°C); flagged: %v\n",
			report.AvgMaxTempC, report.FlaggedNames)
	} else {
		fmt.Printf("no inventory update needed (avg max temp %.1f°C)\n", report.AvgMaxTempC)
	}
	return nil
}

func runDonate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	application, err := buildApp(cmd.Context(), cfg)
	if err != nil {
		return err
	}

	listing, err := application.Donate(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Println(listing)
	return nil
}

func runIntake(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	application, err := buildApp(cmd.Context(), cfg)
	if err != nil {
		return err
	}

	image, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read image: %w", err)
	}

	added, err := application.IngestImage(cmd.Context(), image, "")
	if err != nil {
		return err
	}
	fmt.Printf("inventory updated: %d item(s) added\n", added)
	return nil
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "pantry.yaml", "path to config file")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(donateCmd)
	rootCmd.AddCommand(intakeCmd)
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
