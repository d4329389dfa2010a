package sweep

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/moveout-labs/moveout-backend/internal/config"
	"github.com/moveout-labs/moveout-backend/internal/database"
	"github.com/moveout-labs/moveout-backend/internal/mailer"
	"github.com/moveout-labs/moveout-backend/internal/observability"
	"github.com/moveout-labs/moveout-backend/internal/repository"
	sweeppkg "github.com/moveout-labs/moveout-backend/internal/sweep"
	"github.com/moveout-labs/moveout-backend/internal/tools/common"
	"github.com/moveout-labs/moveout-backend/internal/tools/ui"
)

type options struct {
	envFile string
	ci      bool
}

func NewRootCommand() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{Use: "sweeper", Short: "Inactivity sweep tooling"}
	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "path to env file")
	cmd.PersistentFlags().BoolVar(&opts.ci, "ci", false, "non-interactive machine-readable output")
	cmd.AddCommand(newRunCommand(opts), newWatchCommand(opts))
	return cmd
}

func newRunCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Execute a single sweep and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			details, err := runAction(opts, "sweep run", func(ctx context.Context) ([]string, error) {
				cfg, sweeper, cleanup, err := buildSweeper(opts.envFile)
				if err != nil {
					return nil, err
				}
				defer cleanup()

				runCtx := ctx
				if cfg.SweepTimeout > 0 {
					var cancel context.CancelFunc
					runCtx, cancel = context.WithTimeout(ctx, cfg.SweepTimeout)
					defer cancel()
				}
				res, err := sweeper.Run(runCtx)
				if err != nil {
					return nil, err
				}
				if res.Skipped {
					return []string{"sweep skipped, another replica holds the lease"}, nil
				}
				return []string{
					fmt.Sprintf("examined: %d", res.Examined),
					fmt.Sprintf("deactivated: %d", res.Deactivated),
					fmt.Sprintf("warned: %d", res.Warned),
				}, nil
			})
			if opts.ci {
				common.PrintCIResult(err == nil, "sweep run", details, err)
			}
			if err != nil {
				os.Exit(3)
			}
			return nil
		},
	}
}

func newWatchCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Run the sweep loop until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, sweeper, cleanup, err := buildSweeper(opts.envFile)
			if err != nil {
				return err
			}
			defer cleanup()

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			fmt.Printf("sweeping every %s, ctrl+c to stop\n", cfg.SweepInterval)
			sweeper.Start(ctx)
			return nil
		},
	}
}

func runAction(opts *options, title string, fn func(context.Context) ([]string, error)) ([]string, error) {
	if opts.ci {
		return fn(context.Background())
	}
	return ui.Run(title, fn)
}

// buildSweeper assembles the sweeper from environment config without the full
// application graph: the tool needs the database, a mailer, and optionally the
// redis lease, nothing else.
func buildSweeper(envFile string) (*config.Config, *sweeppkg.Sweeper, func(), error) {
	if err := common.LoadEnvFile(envFile); err != nil {
		return nil, nil, nil, err
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, err
	}
	logger := observability.NewBootstrapLogger(cfg)

	db, err := database.Open(cfg)
	if err != nil {
		return nil, nil, nil, err
	}
	cleanup := func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}

	var mail mailer.Mailer
	if cfg.SMTPEnabled {
		mail = mailer.NewSMTPMailer(cfg)
	} else {
		mail = mailer.NewDevMailer(logger)
	}

	var lease sweeppkg.Lease
	if cfg.RedisEnabled {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		lease = sweeppkg.NewRedisLease(client, cfg.RedisKeyPrefix+":sweep:lease", cfg.SweepTimeout+time.Minute)
		prev := cleanup
		cleanup = func() {
			_ = client.Close()
			prev()
		}
	}

	sweeper := sweeppkg.NewSweeper(repository.NewUserRepository(db), mail, lease, sweeppkg.Config{
		InactivityThreshold: cfg.InactivityThreshold,
		WarnLeadTime:        cfg.WarnLeadTime,
		Interval:            cfg.SweepInterval,
		Timeout:             cfg.SweepTimeout,
	})
	return cfg, sweeper, cleanup, nil
}
