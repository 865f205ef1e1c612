// Package node contains the main executable for go-sessionmesh node
package node

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/jonboulle/clockwork"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spacemeshos/go-sessionmesh/cmd"
	"github.com/spacemeshos/go-sessionmesh/common/types"
	"github.com/spacemeshos/go-sessionmesh/config"
	"github.com/spacemeshos/go-sessionmesh/config/presets"
	"github.com/spacemeshos/go-sessionmesh/content"
	"github.com/spacemeshos/go-sessionmesh/database"
	"github.com/spacemeshos/go-sessionmesh/lease"
	"github.com/spacemeshos/go-sessionmesh/log"
	"github.com/spacemeshos/go-sessionmesh/metrics"
	"github.com/spacemeshos/go-sessionmesh/p2p"
	"github.com/spacemeshos/go-sessionmesh/p2p/server"
	"github.com/spacemeshos/go-sessionmesh/session"
	"github.com/spacemeshos/go-sessionmesh/store"
)

const (
	// JoinProtocol serves fragments to characters joining a session.
	JoinProtocol = "/sm/join/1"

	storeDir = "characters.ldb"
	p2pDir   = "p2p"
)

// Logger names.
const (
	AppLogger   = "app"
	P2PLogger   = "p2p"
	LeaseLogger = "lease"
	StateLogger = "state"
	ActorLogger = "actor"
	StoreLogger = "store"
)

var versionGauge = metrics.NewGauge(
	"version",
	"node",
	"running version of the node",
	[]string{"version"},
)

// GetCommand returns the command that starts a node.
func GetCommand() *cobra.Command {
	conf := config.DefaultConfig()
	var configPath *string
	c := &cobra.Command{
		Use:   "node",
		Short: "start node",
		RunE: func(c *cobra.Command, args []string) error {
			if err := configure(c, *configPath, &conf); err != nil {
				return err
			}

			app := New(
				WithConfig(&conf),
				// NOTE: root logger is at debug level, every module is restricted with its own level.
				WithLog(log.NewWithLevel("node", zap.NewAtomicLevelAt(zap.DebugLevel), log.NewEncoder(conf.LOGGING.Encoder))),
			)

			// os.Interrupt for all systems, syscall.SIGTERM is mainly for docker.
			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			if err := os.MkdirAll(app.Config.DataDir(), 0o700); err != nil {
				return fmt.Errorf("ensure folders exist: %w", err)
			}
			if err := app.Lock(); err != nil {
				return fmt.Errorf("getting exclusive file lock: %w", err)
			}
			defer app.Unlock()

			// Don't print usage on error from this point forward
			c.SilenceUsage = true

			// This blocks until the context is finished or until an error is produced
			err := app.Start(ctx)
			cleanupCtx, cleanupCancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cleanupCancel()
			done := make(chan struct{}, 1)
			go func() {
				app.Cleanup(cleanupCtx)
				close(done)
			}()
			select {
			case <-done:
			case <-cleanupCtx.Done():
				app.log.Error("app failed to clean up in time")
			}
			return err
		},
	}

	configPath = cmd.AddFlags(c.PersistentFlags(), &conf)

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Show version info",
		Run: func(c *cobra.Command, args []string) {
			fmt.Print(cmd.Version)
			fmt.Println()
		},
	}
	c.AddCommand(versionCmd)

	charactersCmd := &cobra.Command{
		Use:          "characters",
		Short:        "List characters saved in the data folder",
		SilenceUsage: true,
		RunE: func(c *cobra.Command, args []string) error {
			if err := configure(c, *configPath, &conf); err != nil {
				return err
			}
			app := New(WithConfig(&conf))
			if err := app.Lock(); err != nil {
				return fmt.Errorf("getting exclusive file lock: %w", err)
			}
			defer app.Unlock()
			names, err := app.Characters()
			if err != nil {
				return err
			}
			for _, name := range names {
				fmt.Fprintln(c.OutOrStdout(), name)
			}
			return nil
		},
	}
	c.AddCommand(charactersCmd)

	return c
}

func configure(c *cobra.Command, configPath string, conf *config.Config) error {
	preset := conf.Preset // might be set via CLI flag
	if err := loadConfig(conf, preset, configPath); err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	// apply CLI args to config
	if err := c.ParseFlags(os.Args[1:]); err != nil {
		return fmt.Errorf("parsing flags: %w", err)
	}
	return nil
}

// loadConfig loads config and preset (if provided) into the provided config.
// It first loads the preset and then overrides it with values from the config file.
func loadConfig(cfg *config.Config, preset, path string) error {
	v := viper.New()
	// read in config from file
	if err := config.LoadConfig(path, v); err != nil {
		return err
	}

	// override default config with preset if provided
	if len(preset) == 0 && v.IsSet("preset") {
		preset = v.GetString("preset")
	}
	if len(preset) > 0 {
		p, err := presets.Get(preset)
		if err != nil {
			return err
		}
		*cfg = p
	}

	// Unmarshall config file into config struct
	hook := mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
		mapstructure.TextUnmarshallerHookFunc(),
	)

	opts := []viper.DecoderConfigOption{
		viper.DecodeHook(hook),
		WithZeroFields(),
		WithIgnoreUntagged(),
		WithErrorUnused(),
	}

	// load config if it was loaded to the viper
	if err := v.Unmarshal(cfg, opts...); err != nil {
		return fmt.Errorf("unmarshal config: %w", err)
	}
	return nil
}

func WithZeroFields() viper.DecoderConfigOption {
	return func(cfg *mapstructure.DecoderConfig) {
		cfg.ZeroFields = true
	}
}

func WithIgnoreUntagged() viper.DecoderConfigOption {
	return func(cfg *mapstructure.DecoderConfig) {
		cfg.IgnoreUntaggedFields = true
	}
}

func WithErrorUnused() viper.DecoderConfigOption {
	return func(cfg *mapstructure.DecoderConfig) {
		cfg.ErrorUnused = true
	}
}

// Option to modify an App instance.
type Option func(app *App)

// WithLog enables logger for an App.
func WithLog(logger *zap.Logger) Option {
	return func(app *App) {
		app.log = logger
	}
}

// WithConfig overrides default config for an App.
func WithConfig(conf *config.Config) Option {
	return func(app *App) {
		app.Config = conf
	}
}

// WithHost uses an already created host instead of creating one from config.
func WithHost(h *p2p.Host) Option {
	return func(app *App) {
		app.host = h
	}
}

// WithClock overrides the real clock.
func WithClock(clock clockwork.Clock) Option {
	return func(app *App) {
		app.clock = clock
	}
}

// New creates an instance of the sessionmesh app.
func New(opts ...Option) *App {
	defaultConfig := config.DefaultConfig()
	app := &App{
		Config:  &defaultConfig,
		log:     zap.NewNop(),
		clock:   clockwork.NewRealClock(),
		started: make(chan struct{}),
		errCh:   make(chan error, 4),
	}
	for _, opt := range opts {
		opt(app)
	}
	app.root = app.log
	app.log = app.addLogger(AppLogger)
	return app
}

// App is the cli app singleton.
type App struct {
	*config.Config

	root     *zap.Logger
	log      *zap.Logger
	clock    clockwork.Clock
	fileLock *flock.Flock

	db      *database.LDBDatabase
	store   *store.Store
	catalog *content.Catalog
	host    *p2p.Host
	ownHost bool
	server  *server.Server
	actor   *session.Actor

	cancel  context.CancelFunc
	eg      errgroup.Group
	errCh   chan error
	started chan struct{}
}

// Lock locks the app for exclusive use. It returns an error if the app is
// already locked.
func (app *App) Lock() error {
	lockDir := filepath.Dir(app.Config.FileLock)
	if _, err := os.Stat(lockDir); errors.Is(err, fs.ErrNotExist) {
		err := os.MkdirAll(lockDir, os.ModePerm)
		if err != nil {
			return fmt.Errorf("creating dir %s for lock %s: %w", lockDir, app.Config.FileLock, err)
		}
	}
	fl := flock.New(app.Config.FileLock)
	locked, err := fl.TryLock()
	if err != nil {
		return fmt.Errorf("flock %s: %w", app.Config.FileLock, err)
	} else if !locked {
		return fmt.Errorf("only one sessionmesh instance should be running (locking file %s)", fl.Path())
	}
	app.fileLock = fl
	return nil
}

// Unlock unlocks the app. It is a no-op if the app is not locked.
func (app *App) Unlock() {
	if app.fileLock == nil {
		return
	}
	if err := app.fileLock.Unlock(); err != nil {
		app.log.Error("failed to unlock file",
			zap.String("path", app.fileLock.Path()),
			zap.Error(err),
		)
	}
}

// addLogger returns a child of the root logger restricted to the level
// configured for name.
func (app *App) addLogger(name string) *zap.Logger {
	return log.Child(app.root, name, app.Config.LOGGING.Level(name))
}

// Started is closed once the app finished starting, successfully or not.
func (app *App) Started() <-chan struct{} {
	return app.started
}

// Actor returns the session actor. It is nil before the app started.
func (app *App) Actor() *session.Actor {
	return app.actor
}

// Host returns the p2p host. It is nil before the app started.
func (app *App) Host() *p2p.Host {
	return app.host
}

// Characters lists the characters saved in the local store.
func (app *App) Characters() ([]string, error) {
	if err := app.openStore(); err != nil {
		return nil, err
	}
	defer app.closeStore()
	return app.store.Names()
}

func (app *App) openStore() error {
	if err := os.MkdirAll(app.Config.DataDir(), 0o700); err != nil {
		return fmt.Errorf("ensure folders exist: %w", err)
	}
	logger := app.addLogger(StoreLogger)
	db, err := database.NewLDBDatabase(
		filepath.Join(app.Config.DataDir(), storeDir),
		app.Config.Database.Cache,
		app.Config.Database.Handles,
		logger,
	)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	app.db = db
	app.store = store.New(db, store.WithLogger(logger))
	return nil
}

func (app *App) closeStore() {
	if app.db == nil {
		return
	}
	if err := app.db.Close(); err != nil {
		app.log.Error("failed to close store", zap.Error(err))
	}
	app.db = nil
}

func (app *App) loadContent() error {
	var (
		catalog *content.Catalog
		err     error
	)
	if app.Config.Content == "" {
		catalog, err = content.Load(content.Builtin(), ".")
	} else {
		catalog, err = content.Load(afero.NewOsFs(), app.Config.Content)
	}
	if err != nil {
		return fmt.Errorf("load content: %w", err)
	}
	app.catalog = catalog
	return nil
}

// Start starts the node and blocks until ctx is canceled or a component fails.
func (app *App) Start(ctx context.Context) error {
	err := app.startSynchronous(ctx)
	if err != nil {
		app.log.Error("failed to start App", zap.Error(err))
		return err
	}

	// app blocks until it receives a signal to exit
	// this signal may come from the node or from sig-abort (ctrl-c)
	select {
	case <-ctx.Done():
		return nil
	case err = <-app.errCh:
		return err
	}
}

func (app *App) startSynchronous(ctx context.Context) (err error) {
	// notify anyone who might be listening that the app has finished starting.
	// this can be used by, e.g., app tests.
	defer close(app.started)

	ctx, app.cancel = context.WithCancel(ctx)
	app.log.Info("starting sessionmesh",
		zap.String("data-dir", app.Config.DataDir()),
		zap.String("character", app.Config.Character),
		zap.String("version", cmd.Version),
	)
	versionGauge.WithLabelValues(cmd.Version).Set(1)

	if err := app.loadContent(); err != nil {
		return err
	}
	if err := app.openStore(); err != nil {
		return err
	}
	character, houses, err := session.LoadCharacter(
		app.store,
		app.Config.Character,
		app.Config.Class,
		app.catalog.World.Start.Location(),
	)
	if err != nil {
		return err
	}

	if app.host == nil {
		p2pCfg := app.Config.P2P
		p2pCfg.DataDir = filepath.Join(app.Config.DataDir(), p2pDir)
		p2pCfg.LogLevel = app.Config.LOGGING.Level(P2PLogger)
		app.host, err = p2p.New(ctx, app.addLogger(P2PLogger), p2pCfg)
		if err != nil {
			return fmt.Errorf("initialize p2p host: %w", err)
		}
		app.ownHost = true
	}

	var actor *session.Actor
	app.server = server.New(app.host, JoinProtocol,
		func(ctx context.Context, req []byte) ([]byte, error) {
			return actor.HandleJoin(ctx, req)
		},
		server.WithLog(app.addLogger(P2PLogger)),
		server.WithTimeout(app.Config.Session.JoinTimeout),
	)
	actorLog := app.addLogger(ActorLogger)
	actor = session.New(character, app.host, app.server, app.store, app.catalog,
		session.WithConfig(app.Config.Session),
		session.WithLogger(actorLog),
		session.WithStateLogger(app.addLogger(StateLogger)),
		session.WithLeaseLogger(app.addLogger(LeaseLogger)),
		session.WithScheduler(lease.NewScheduler(lease.WithClock(app.clock))),
		session.WithContact(app.host.ID()),
		session.WithHouses(houses),
	)
	app.actor = actor

	app.run(func() error { return app.server.Run(ctx) })
	app.run(func() error { return actor.Run(ctx) })
	if err := app.host.Start(); err != nil {
		return fmt.Errorf("start p2p host: %w", err)
	}

	if app.Config.Metrics.Enabled {
		srv := metrics.NewServer(app.addLogger(AppLogger), app.Config.Metrics.Port)
		app.run(func() error { return srv.Run(ctx) })
	}
	if app.Config.Metrics.PushURL != "" {
		app.eg.Go(func() error {
			metrics.PushMetrics(ctx, app.log, app.clock,
				app.Config.Metrics.PushURL,
				app.Config.Metrics.PushPeriod,
				app.host.ID().String(),
				app.Config.Session.Partition,
			)
			return nil
		})
	}

	switch {
	case app.Config.JoinSession != "":
		group, err := types.ParseStamp(app.Config.JoinSession)
		if err != nil {
			return fmt.Errorf("join session %q: %w", app.Config.JoinSession, err)
		}
		app.eg.Go(func() error {
			app.joinOnStart(ctx, group)
			return nil
		})
	case app.Config.CreateSession != "":
		group, err := actor.Create(ctx, app.Config.CreateSession)
		if err != nil {
			return fmt.Errorf("create session %q: %w", app.Config.CreateSession, err)
		}
		app.log.Info("session ready", zap.Stringer("group", group))
	}
	return nil
}

// run starts a component and reports its failure to Start.
func (app *App) run(fn func() error) {
	app.eg.Go(func() error {
		if err := fn(); err != nil {
			select {
			case app.errCh <- err:
			default:
			}
		}
		return nil
	})
}

// joinOnStart queries the partition until the session is announced and
// joined, or ctx is canceled.
func (app *App) joinOnStart(ctx context.Context, group types.Stamp) {
	retry := app.Config.Session.LeaseTime / 4
	for {
		if err := app.actor.Discover(ctx); err != nil && ctx.Err() == nil {
			app.log.Debug("failed to query sessions", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return
		case <-app.clock.After(retry):
		}
		err := app.actor.Join(ctx, group)
		switch {
		case err == nil:
			return
		case errors.Is(err, session.ErrJoined), errors.Is(err, session.ErrStopped):
			return
		case ctx.Err() != nil:
			return
		default:
			app.log.Info("waiting for session",
				zap.Stringer("group", group),
				zap.Duration("retry", retry),
				zap.Error(err),
			)
		}
	}
}

// Cleanup stops all app services.
func (app *App) Cleanup(ctx context.Context) {
	app.log.Info("app cleanup starting...")
	if app.cancel != nil {
		app.cancel()
	}
	// the actor leaves its session on shutdown, the host must still be up
	app.eg.Wait()
	if app.host != nil && app.ownHost {
		if err := app.host.Stop(); err != nil {
			app.log.Warn("failed to stop p2p host", zap.Error(err))
		}
	}
	app.closeStore()
	app.log.Info("app cleanup completed")
}
