package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/ferndale-labs/gatehouse/internal/config"
	"github.com/ferndale-labs/gatehouse/internal/domain/services"
	"github.com/ferndale-labs/gatehouse/internal/infrastructure/database/postgres"
	"github.com/ferndale-labs/gatehouse/internal/pkg/logger"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const cliContextKey contextKey = "cliContext"

// CliContext holds shared CLI context
type CliContext struct {
	Config    *config.Config
	Conn      *postgres.Connection
	Admin     *services.Admin
	Directory *services.Directory
	Actor     string
	Logger    *slog.Logger
}

// Global logging flags
var (
	configPath  string
	logLevel    string
	logFile     string
	logToStderr bool
	logFormat   string
)

// NewRootCommand creates the root cobra command
func NewRootCommand() *cobra.Command {
	var ctx CliContext

	rootCmd := &cobra.Command{
		Use:           "gatehousectl",
		Short:         "Operator CLI for Gatehouse user and role administration",
		Long:          `A command line interface for administering Gatehouse users and roles against the database directly.`,
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors (main.go handles it)
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Setup logging first
			if err := setupLogging(); err != nil {
				return fmt.Errorf("failed to setup logging: %w", err)
			}

			ctx.Logger = slog.Default().With("component", "cli")
			ctx.Logger.Debug("CLI started", "command", cmd.Name())

			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			ctx.Config = cfg

			conn, err := postgres.NewConnection(cfg.Database.Postgres.ConnectionString())
			if err != nil {
				return fmt.Errorf("failed to connect to database: %w", err)
			}
			ctx.Conn = conn

			users := postgres.NewUserStore(conn.DB)
			roles := postgres.NewRoleStore(conn.DB)
			memberships := postgres.NewMembershipStore(conn.DB)
			ctx.Admin = services.NewAdmin(users, roles, memberships, ctx.Logger)
			ctx.Directory = services.NewDirectory(users, roles, memberships, ctx.Logger)

			// Audit fields name the operating-system user
			ctx.Actor = "cli:" + osUser()

			cmd.SetContext(context.WithValue(cmd.Context(), cliContextKey, &ctx))
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if ctx.Conn != nil {
				return ctx.Conn.Close()
			}
			return nil
		},
	}

	// Add subcommands
	rootCmd.AddCommand(newRoleCommand())
	rootCmd.AddCommand(newUserCommand())

	// Add flags
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"Path to config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn",
		"Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "",
		"Log file path (if specified, logs to file instead of stderr)")
	rootCmd.PersistentFlags().BoolVar(&logToStderr, "logtostderr", false,
		"Log to stderr (default behavior unless --log-file specified)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text",
		"Log format (text, json)")

	return rootCmd
}

// setupLogging configures the global logger based on CLI flags
func setupLogging() error {
	// Default to stderr logging unless file is specified
	if logFile == "" {
		logToStderr = true
	}

	cfg := logger.Config{
		Level:       logger.ParseLevel(logLevel),
		LogFile:     logFile,
		LogToStderr: logToStderr,
		Format:      logFormat,
	}

	globalLogger, err := logger.SetupLogger(cfg)
	if err != nil {
		return err
	}

	// Set as default logger
	slog.SetDefault(globalLogger)
	return nil
}

// getCliContext extracts the CLI context from the command context
func getCliContext(cmd *cobra.Command) *CliContext {
	return cmd.Context().Value(cliContextKey).(*CliContext)
}

// osUser names the invoking user for audit fields
func osUser() string {
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	return "unknown"
}
