package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/jwalitptl/docbook-api/internal/config"
	"github.com/jwalitptl/docbook-api/internal/repository/postgres"
	"github.com/jwalitptl/docbook-api/internal/seed"
	"github.com/jwalitptl/docbook-api/pkg/logger"
	"github.com/jwalitptl/docbook-api/pkg/security"
)

var configDir string

func main() {
	rootCmd := &cobra.Command{
		Use:           "docbookctl",
		Short:         "Operator commands for the docbook API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "directory holding config.yaml")

	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(seedCmd())
	rootCmd.AddCommand(createAdminCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

// connect loads configuration and opens the database.
func connect(ctx context.Context) (*config.Config, *sqlx.DB, error) {
	var paths []string
	if configDir != "" {
		paths = append(paths, configDir)
	}
	cfg, err := config.Load(paths...)
	if err != nil {
		return nil, nil, err
	}
	logger.Setup(cfg.Log.ToLoggerConfig())

	db, err := postgres.NewDB(ctx, postgres.DBConfig{DSN: cfg.Database.DSN()})
	if err != nil {
		return nil, nil, err
	}
	return cfg, db, nil
}

func migrateCmd() *cobra.Command {
	var printOnly bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			if printOnly {
				fmt.Fprint(cmd.OutOrStdout(), postgres.Schema())
				return nil
			}

			_, db, err := connect(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			if err := postgres.Migrate(cmd.Context(), db); err != nil {
				return err
			}
			log.Info().Msg("schema applied")
			return nil
		},
	}
	cmd.Flags().BoolVar(&printOnly, "print", false, "print the schema instead of applying it")
	return cmd
}

func seedCmd() *cobra.Command {
	var opts seed.Options
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Fill the database with fake doctors and patients",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, db, err := connect(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			base := postgres.NewBaseRepository(db)
			seeder := seed.NewSeeder(
				postgres.NewUserRepository(base),
				postgres.NewAvailabilityRepository(base),
				&base,
				security.NewBcryptHasher(cfg.Security.BcryptCost),
				logger.NewLogger(cfg.Log.ToLoggerConfig()),
			)
			res, err := seeder.Run(cmd.Context(), opts)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d doctors, %d patients, %d availability windows (password %q)\n",
				res.Doctors, res.Patients, res.Availability, opts.Password)
			return nil
		},
	}
	cmd.Flags().IntVar(&opts.Doctors, "doctors", 10, "number of doctors")
	cmd.Flags().IntVar(&opts.Patients, "patients", 20, "number of patients")
	cmd.Flags().IntVar(&opts.Days, "days", 10, "workdays of availability per doctor")
	cmd.Flags().StringVar(&opts.Password, "password", seed.DefaultPassword, "password of every seeded account")
	cmd.Flags().Uint64Var(&opts.Seed, "seed", 0, "random seed, 0 for a random one")
	return cmd
}

func createAdminCmd() *cobra.Command {
	var name, email, password string
	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an administrator account",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, db, err := connect(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			base := postgres.NewBaseRepository(db)
			u, err := seed.CreateAdmin(cmd.Context(), postgres.NewUserRepository(base),
				security.NewBcryptHasher(cfg.Security.BcryptCost), name, email, password)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created admin %s (%s)\n", u.Email, u.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "Administrator", "display name")
	cmd.Flags().StringVar(&email, "email", "", "login email")
	cmd.Flags().StringVar(&password, "password", "", "login password, at least 8 characters")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}
