package interfaces

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/subcommands"
	"github.com/robfig/cron/v3"
	database "github.com/sebuszqo/FinanceSync/db"
	"github.com/sebuszqo/FinanceSync/internal/config"
	"github.com/sebuszqo/FinanceSync/internal/ledger/application"
	"github.com/sebuszqo/FinanceSync/internal/logger"
)

// Commands are registered by main with the default commander.
var Commands = []subcommands.Command{
	&syncCmd{},
	&scheduleCmd{},
	&migrateCmd{},
}

type syncCmd struct {
	configPath string
	months     int
	dryRun     bool
}

func (*syncCmd) Name() string     { return "sync" }
func (*syncCmd) Synopsis() string { return "pulls accounts and transactions into the ledger database" }
func (*syncCmd) Usage() string {
	return `financesync sync [-config path] [-months n] [-dry-run]

Fetches categories, then accounts and settled transactions for every
institution in the config, and upserts them into the database in order:
categories, institutions, accounts, transactions.

An institution whose accounts cannot be fetched is logged and skipped.
With -dry-run the database is neither opened nor checked, and no table
artifacts are saved.
Any other failure stops the run with a non-zero exit status.
`
}

func (c *syncCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.configPath, "config", config.DefaultPath, "Path to the config document.")
	f.IntVar(&c.months, "months", 0, "Months of history to fetch. Overrides sync.historyMonths.")
	f.BoolVar(&c.dryRun, "dry-run", false, "Fetch and normalize only. Nothing is written.")
}

func (c *syncCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	ctx, cfg, err := loadConfig(ctx, c.configPath)
	log := logger.FromContext(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Could not load configuration")
		return subcommands.ExitFailure
	}

	app, err := NewApp(ctx, cfg, application.SyncOptions{
		RefreshTransactions: cfg.Sync.RefreshTransactions,
		DryRun:              c.dryRun,
	})
	if err != nil {
		log.Error().Err(err).Msg("Could not initialize sync")
		return subcommands.ExitFailure
	}
	defer app.Close()

	months := cfg.Sync.HistoryMonths
	if c.months > 0 {
		months = c.months
	}
	if _, err := app.RunSync(ctx, application.Months(months)); err != nil {
		log.Error().Err(err).Msg("Sync failed")
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

type scheduleCmd struct {
	configPath string
	now        bool
}

func (*scheduleCmd) Name() string     { return "schedule" }
func (*scheduleCmd) Synopsis() string { return "runs sync on the configured cron schedule" }
func (*scheduleCmd) Usage() string {
	return `financesync schedule [-config path] [-now]

Runs a sync every time sync.schedule fires (default "@daily") until the
process is interrupted. A failed run is logged and the next one still runs.
`
}

func (c *scheduleCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.configPath, "config", config.DefaultPath, "Path to the config document.")
	f.BoolVar(&c.now, "now", false, "Also run once immediately.")
}

func (c *scheduleCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	ctx, cfg, err := loadConfig(ctx, c.configPath)
	log := logger.FromContext(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Could not load configuration")
		return subcommands.ExitFailure
	}

	app, err := NewApp(ctx, cfg, application.SyncOptions{RefreshTransactions: cfg.Sync.RefreshTransactions})
	if err != nil {
		log.Error().Err(err).Msg("Could not initialize sync")
		return subcommands.ExitFailure
	}
	defer app.Close()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	run := func() {
		if _, err := app.RunSync(ctx, application.Months(cfg.Sync.HistoryMonths)); err != nil {
			log.Error().Err(err).Msg("Scheduled sync failed")
			return
		}
		log.Info().Msg("Scheduled sync completed")
	}

	scheduler, err := StartScheduler(cfg.Sync.Schedule, run)
	if err != nil {
		log.Error().Err(err).Str("schedule", cfg.Sync.Schedule).Msg("Scheduler didn't start")
		return subcommands.ExitFailure
	}
	log.Info().Str("schedule", cfg.Sync.Schedule).Msg("Scheduler started")
	if c.now {
		run()
	}

	<-ctx.Done()
	log.Info().Msg("Stopping scheduler")
	<-scheduler.Stop().Done()
	return subcommands.ExitSuccess
}

// StartScheduler runs job on a cron schedule. Runs never overlap: a tick that fires while
// the previous run is still going is skipped.
func StartScheduler(schedule string, job func()) (*cron.Cron, error) {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddFunc(schedule, job); err != nil {
		return nil, err
	}
	c.Start()
	return c, nil
}

type migrateCmd struct {
	configPath string
}

func (*migrateCmd) Name() string     { return "migrate" }
func (*migrateCmd) Synopsis() string { return "creates the ledger tables if they are missing" }
func (*migrateCmd) Usage() string {
	return `financesync migrate [-config path]

Creates the categories, institutions, accounts and transactions tables in
the configured database. Existing tables are left untouched.
`
}

func (c *migrateCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.configPath, "config", config.DefaultPath, "Path to the config document.")
}

func (c *migrateCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	ctx, cfg, err := loadConfig(ctx, c.configPath)
	log := logger.FromContext(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Could not load configuration")
		return subcommands.ExitFailure
	}

	dbService, err := database.NewDBService(ctx, cfg.DB)
	if err != nil {
		log.Error().Err(err).Msg("Could not initialize database")
		return subcommands.ExitFailure
	}
	defer dbService.Close()

	if err := dbService.Migrate(ctx); err != nil {
		log.Error().Err(err).Msg("Migration failed")
		return subcommands.ExitFailure
	}
	log.Info().Str("driver", dbService.Driver).Msg("Schema is up to date")
	return subcommands.ExitSuccess
}
