package app

import (
	"context"
	"os"
	"path/filepath"

	"github.com/bnema/zerowrap"

	"github.com/stackkeeper/stackkeeper/internal/adapters/out/compose"
	"github.com/stackkeeper/stackkeeper/internal/adapters/out/docker"
	"github.com/stackkeeper/stackkeeper/internal/adapters/out/filesystem"
	"github.com/stackkeeper/stackkeeper/internal/adapters/out/lock"
	"github.com/stackkeeper/stackkeeper/internal/adapters/out/logwriter"
	"github.com/stackkeeper/stackkeeper/internal/adapters/out/secrets"
	"github.com/stackkeeper/stackkeeper/internal/adapters/out/sevenzip"
	"github.com/stackkeeper/stackkeeper/internal/boundaries/in"
	"github.com/stackkeeper/stackkeeper/internal/boundaries/out"
	"github.com/stackkeeper/stackkeeper/internal/domain"
	"github.com/stackkeeper/stackkeeper/internal/usecase/apps"
	"github.com/stackkeeper/stackkeeper/internal/usecase/archive"
	"github.com/stackkeeper/stackkeeper/internal/usecase/backup"
	"github.com/stackkeeper/stackkeeper/internal/usecase/dispatch"
	"github.com/stackkeeper/stackkeeper/internal/usecase/rollback"
	"github.com/stackkeeper/stackkeeper/internal/usecase/update"
)

// Kernel holds the wired services for one CLI invocation.
type Kernel struct {
	cfg         Config
	log         zerowrap.Logger
	engine      *docker.Engine
	compose     *compose.Runner
	appSvc      *apps.Service
	updateSvc   *update.Service
	rollbackSvc *rollback.Service
	backupSvc   *backup.Service
	archiveSvc  *archive.Service
	dispatcher  *dispatch.Handler
	cleanup     []func()
}

// NewKernel loads configuration and wires every adapter and use case.
// The Docker daemon is not contacted until Preflight or a service call.
func NewKernel(configPath string, prompter out.Prompter) (*Kernel, error) {
	v, cfg, err := initConfig(configPath)
	if err != nil {
		return nil, err
	}

	log, logCleanup, err := initLogger(cfg)
	if err != nil {
		return nil, err
	}
	k := &Kernel{cfg: cfg, log: log}
	if logCleanup != nil {
		k.cleanup = append(k.cleanup, logCleanup)
	}

	engine, err := docker.NewEngine(cfg.Backup.HelperImage)
	if err != nil {
		k.Close()
		return nil, log.WrapErr(err, "failed to create Docker client")
	}
	k.engine = engine
	k.cleanup = append(k.cleanup, func() { _ = engine.Close() })

	runLog, err := logwriter.New(logwriter.Config{
		Dir:        cfg.LogsDir(),
		MaxSize:    cfg.Logging.File.MaxSize,
		MaxBackups: cfg.Logging.File.MaxBackups,
		MaxAge:     cfg.Logging.File.MaxAge,
	})
	if err != nil {
		k.Close()
		return nil, log.WrapErr(err, "failed to create run log")
	}
	k.cleanup = append(k.cleanup, func() { _ = runLog.Close() })

	registry := filesystem.NewRegistry(cfg.Apps.Root, cfg.Apps.ManagedDir, log)
	history := filesystem.NewHistoryStore(log)
	locker := lock.NewFileLocker(cfg.LocksDir(), log)
	k.compose = compose.NewRunner(cfg.Tools.Compose, log)
	archiver := sevenzip.NewArchiver(cfg.Tools.SevenZip, log)
	cipher := secrets.NewKeyFileStore(cfg.DataDir, log)
	settings := newSettingsWriter(v, defaultConfigFile())

	k.appSvc = apps.NewService(registry, k.compose, locker, log)
	k.updateSvc = update.NewService(registry, k.compose, engine, history, locker, runLog,
		update.Config{IgnoreImages: cfg.Update.IgnoreImages}, log)
	k.rollbackSvc = rollback.NewService(registry, k.compose, engine, history, locker, log)
	k.backupSvc = backup.NewService(engine, engine, k.compose, registry, locker, archiver, prompter,
		backup.Config{
			TargetRoot: cfg.Backup.TargetRoot,
			Compressor: domain.Compressor(cfg.Backup.Compressor),
		}, log)
	k.archiveSvc = archive.NewService(archiver, cipher, settings, prompter, runLog,
		archive.Config{
			SplitSize:      cfg.Archive.SplitSize,
			StoredPassword: cfg.Archive.Password,
		}, log)
	k.dispatcher = dispatch.NewHandler(k.appSvc, k.updateSvc, k.rollbackSvc, k.backupSvc, k.archiveSvc)

	return k, nil
}

// Preflight checks the Docker daemon and, when requireCompose is set, the
// compose plugin version. Both failures are fatal.
func (k *Kernel) Preflight(ctx context.Context, requireCompose bool) error {
	ctx = zerowrap.CtxWithFields(ctx, map[string]any{
		zerowrap.FieldLayer:  "app",
		zerowrap.FieldAction: "Preflight",
	})
	log := zerowrap.FromCtx(ctx)

	if err := k.engine.Ping(ctx); err != nil {
		return err
	}
	if !requireCompose {
		return nil
	}
	version, err := k.compose.CheckVersion(ctx)
	if err != nil {
		return err
	}
	log.Debug().Str("compose_version", version).Msg("docker compose available")
	return nil
}

// Close releases every resource opened by NewKernel, in reverse order.
func (k *Kernel) Close() error {
	if k == nil {
		return nil
	}
	for i := len(k.cleanup) - 1; i >= 0; i-- {
		k.cleanup[i]()
	}
	k.cleanup = nil
	return nil
}

// Context returns ctx carrying the kernel logger.
func (k *Kernel) Context(ctx context.Context) context.Context {
	return zerowrap.WithCtx(ctx, k.log)
}

// StopHelpers removes helper containers left by an interrupted run.
func (k *Kernel) StopHelpers(ctx context.Context) error {
	return k.engine.StopHelpers(ctx)
}

// OnArchiveOutput registers the display callback for archiver output.
func (k *Kernel) OnArchiveOutput(fn func(domain.OutputLine)) {
	k.archiveSvc.OnOutput(fn)
}

func (k *Kernel) Config() Config { return k.cfg }

func (k *Kernel) Apps() in.AppService { return k.appSvc }

func (k *Kernel) Updates() in.UpdateService { return k.updateSvc }

func (k *Kernel) Rollback() in.RollbackService { return k.rollbackSvc }

func (k *Kernel) Backup() in.BackupService { return k.backupSvc }

func (k *Kernel) Archive() in.ArchiveService { return k.archiveSvc }

func (k *Kernel) Dispatcher() in.Dispatcher { return k.dispatcher }

// defaultConfigFile is where settings are written when no config file exists.
func defaultConfigFile() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "stackkeeper", "stackkeeper.toml")
	}
	return "/etc/stackkeeper/stackkeeper.toml"
}
