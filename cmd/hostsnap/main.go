// Package main is the hostsnap command. It takes system snapshots once or
// periodically, runs plugins alongside them and optionally serves both over
// a local HTTP API.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Guliveer/hostsnap/internal/autostart"
	"github.com/Guliveer/hostsnap/internal/collector"
	"github.com/Guliveer/hostsnap/internal/config"
	"github.com/Guliveer/hostsnap/internal/models"
	"github.com/Guliveer/hostsnap/internal/plugin"
	"github.com/Guliveer/hostsnap/internal/scheduler"
	"github.com/Guliveer/hostsnap/internal/server"
	"github.com/Guliveer/hostsnap/internal/service"
	"github.com/Guliveer/hostsnap/internal/system"
)

var (
	// version is set at build time via -ldflags.
	version = "dev"

	configPath  = flag.String("config", "", "Path to configuration file (default: search standard locations)")
	showVersion = flag.Bool("version", false, "Show version and exit")
	once        = flag.Bool("once", false, "Take one snapshot, print it as JSON and exit")
	serve       = flag.Bool("serve", false, "Serve snapshots and plugin data over HTTP while watching")
	listen      = flag.String("listen", "", "HTTP listen address (overrides config)")
	logLevel    = flag.String("log-level", "", "Log level: debug, info, warn or error (overrides config)")
	listPlugins = flag.Bool("list-plugins", false, "List discoverable plugins as JSON and exit")
	install     = flag.String("install-autostart", "", "Register the daemon with the service manager (\"system\" or \"user\") and exit")
	uninstall   = flag.String("uninstall-autostart", "", "Remove a registration made by -install-autostart and exit")

	pluginPaths []string
)

func init() {
	flag.Func("plugin-path", "Additional plugin search directory (repeatable)", func(dir string) error {
		pluginPaths = append(pluginPaths, dir)
		return nil
	})
}

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("hostsnap %s\n", version)
		os.Exit(0)
	}

	cli := config.CLIOverrides{
		LogLevel:    *logLevel,
		Listen:      *listen,
		PluginPaths: pluginPaths,
	}
	var (
		cfg *config.Config
		err error
	)
	if flagSet("config") {
		cfg, err = config.LoadLayered(cli, embeddedConfig, *configPath)
	} else {
		cfg, err = config.LoadLayered(cli, embeddedConfig)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	if *install != "" || *uninstall != "" {
		if err := manageAutostart(*install, *uninstall); err != nil {
			fmt.Fprintf(os.Stderr, "Autostart: %v\n", err)
			os.Exit(1)
		}
		return
	}

	// Machine-readable output goes to stdout; keep logs out of its way.
	console := io.Writer(os.Stdout)
	if *once || *listPlugins {
		console = os.Stderr
	}
	logger := initLogger(cfg, console)
	defer logger.Sync()

	rt := newApp(cfg, logger)

	switch {
	case *listPlugins:
		printJSON(rt.loader.Discover())
		return
	case *once:
		ctx, cancel := signalContext(logger)
		defer cancel()
		rt.loadPlugins(ctx)
		defer rt.manager.UnloadAll()
		printJSON(rt.scheduler.Collect(ctx))
		return
	}

	logger.Info("Starting hostsnap",
		zap.String("version", version),
		zap.Duration("interval", cfg.Watch.Interval.Duration),
		zap.Bool("serve", *serve))

	if service.IsWindowsService() {
		logger.Info("Running as Windows service")
		svc := service.New(logger, func(ctx context.Context) { rt.run(ctx, *serve) })
		if err := svc.Run(); err != nil {
			logger.Fatal("Service failed", zap.Error(err))
		}
		return
	}

	ctx, cancel := signalContext(logger)
	defer cancel()
	rt.run(ctx, *serve)
	logger.Info("hostsnap stopped")
}

// app wires the snapshot pipeline and the plugin system together.
type app struct {
	cfg        *config.Config
	logger     *zap.Logger
	dispatcher *system.Dispatcher
	loader     *plugin.Loader
	manager    *plugin.Manager
	scheduler  *scheduler.Scheduler
}

func newApp(cfg *config.Config, logger *zap.Logger) *app {
	dispatcher := system.New(collector.NewSystem(collector.WithLogger(logger)), logger)

	dirs := plugin.DefaultDirs()
	if cfg.Plugins.StoreDir != "" {
		dirs.Cache = cfg.Plugins.StoreDir
	}
	loader := plugin.NewLoader(
		plugin.WithLogger(logger),
		plugin.WithHostBinder(dispatcher.Host),
		plugin.WithEnv(plugin.DirEnv(dirs, cfg.Plugins.StoreMaxSizeMB, logger)),
	)
	for _, dir := range cfg.Plugins.SearchPaths {
		loader.AddSearchPath(dir)
	}
	if cfg.Plugins.UseDefaultPaths {
		for _, dir := range plugin.DefaultSearchPaths() {
			loader.AddSearchPath(dir)
		}
	}
	n := loader.InitStatic()
	logger.Debug("Plugin loader ready",
		zap.Int("static", n),
		zap.Strings("search_paths", loader.SearchPaths()))

	manager := plugin.NewManager(loader, logger)
	return &app{
		cfg:        cfg,
		logger:     logger,
		dispatcher: dispatcher,
		loader:     loader,
		manager:    manager,
		scheduler:  scheduler.New(dispatcher, manager, cfg.Watch, logger),
	}
}

// loadPlugins loads the autoload list. Failures are logged; the remaining
// plugins still load.
func (rt *app) loadPlugins(ctx context.Context) {
	if err := rt.manager.LoadAll(ctx, rt.cfg.Plugins.Autoload, rt.cfg.AllPluginSettings()); err != nil {
		rt.logger.Warn("Some plugins failed to load", zap.Error(err))
	}
}

// run watches until ctx is cancelled, optionally serving the HTTP API.
func (rt *app) run(ctx context.Context, withServer bool) {
	rt.loadPlugins(ctx)
	defer rt.manager.UnloadAll()

	if rt.cfg.Watch.HotReload {
		reloader, err := scheduler.NewReloader(rt.manager, rt.loader.SearchPaths(), rt.settings, rt.logger)
		if err != nil {
			rt.logger.Warn("Plugin hot reload disabled", zap.Error(err))
		} else {
			reloader.Start(ctx)
			defer reloader.Stop()
		}
	}

	// Report each metric that starts or stops failing once, not every tick.
	var failingMu sync.Mutex
	failing := map[string]bool{}
	rt.scheduler.OnSnapshot(func(snap models.Snapshot) {
		failingMu.Lock()
		defer failingMu.Unlock()
		for key, msg := range snap.Errors {
			if !failing[key] {
				rt.logger.Info("Metric unavailable", zap.String("metric", key), zap.String("error", msg))
				failing[key] = true
			}
		}
		for key := range failing {
			if _, ok := snap.Errors[key]; !ok {
				rt.logger.Info("Metric available again", zap.String("metric", key))
				delete(failing, key)
			}
		}
	})

	var wg sync.WaitGroup
	if withServer {
		srv := server.New(rt.scheduler, rt.manager, rt.loader.Discover, rt.logger)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := srv.ListenAndServe(ctx, rt.cfg.Serve.Listen); err != nil {
				rt.logger.Error("HTTP API failed", zap.Error(err))
			}
		}()
	}

	rt.scheduler.Start(ctx)
	wg.Wait()
}

func (rt *app) settings(name string) string {
	text, _ := rt.cfg.PluginSettings(name)
	return text
}

func manageAutostart(installMode, uninstallMode string) error {
	modeName := installMode
	if modeName == "" {
		modeName = uninstallMode
	}
	mode, err := autostart.ParseMode(modeName)
	if err != nil {
		return err
	}
	mgr := autostart.New(mode)

	if installMode == "" {
		if err := mgr.Uninstall(); err != nil {
			return err
		}
		fmt.Printf("Removed %s (%s)\n", mgr.ServiceName(), mode)
		return nil
	}

	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("locating executable: %w", err)
	}
	if installed, err := mgr.IsInstalled(); err != nil {
		return err
	} else if installed {
		return fmt.Errorf("%s is already installed; uninstall it first", mgr.ServiceName())
	}
	args := []string{"-serve"}
	if flagSet("config") {
		args = append(args, "-config", *configPath)
	}
	if err := mgr.Install(exe, args...); err != nil {
		return err
	}
	fmt.Printf("Installed %s (%s)\n", mgr.ServiceName(), mode)
	return nil
}

func signalContext(logger *zap.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigCh:
			logger.Info("Received signal, shutting down",
				zap.String("signal", sig.String()))
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()
	return ctx, cancel
}

func flagSet(name string) bool {
	set := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}

func printJSON(v interface{}) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "Encoding output: %v\n", err)
		os.Exit(1)
	}
}

// initLogger creates a zap logger writing human-readable output to console
// and, if configured, structured JSON to a log file.
func initLogger(cfg *config.Config, console io.Writer) *zap.Logger {
	var level zapcore.Level
	switch cfg.Logging.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "time"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	cores := []zapcore.Core{
		zapcore.NewCore(
			zapcore.NewConsoleEncoder(encoderConfig),
			zapcore.AddSync(console),
			level,
		),
	}

	if cfg.Logging.File != "" {
		file, err := os.OpenFile(cfg.Logging.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0640)
		if err == nil {
			cores = append(cores, zapcore.NewCore(
				zapcore.NewJSONEncoder(encoderConfig),
				zapcore.AddSync(file),
				level,
			))
		}
	}

	return zap.New(zapcore.NewTee(cores...))
}
