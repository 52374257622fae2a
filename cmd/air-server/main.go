// air-server replays mouse and keyboard input received from air-client
// onto the local display.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/pflag"

	"airkvm/internal/autostart"
	"airkvm/internal/clipboard"
	"airkvm/internal/config"
	"airkvm/internal/input"
	"airkvm/internal/logging"
	"airkvm/internal/network"
	"airkvm/internal/osutils"
	"airkvm/internal/replay"
	"airkvm/internal/server"
	"airkvm/internal/tray"
)

var version = "0.3.0"

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

type flags struct {
	configPath string
	listen     string
	moveType   string
	dryRun     bool
	tray       bool
	logLevel   string
	logFormat  string
	autostart  string
	version    bool
}

func newFlagSet(f *flags) *pflag.FlagSet {
	fs := pflag.NewFlagSet("air-server", pflag.ContinueOnError)
	fs.StringVar(&f.configPath, "config", "", "path to config.json (default: per-user config directory)")
	fs.StringVar(&f.listen, "listen", "", "TCP listen address, e.g. 0.0.0.0:7878")
	fs.StringVar(&f.moveType, "move-type", "", "relative motion smoothing: immediate, smooth, faster or veryfast")
	fs.BoolVar(&f.dryRun, "dry-run", false, "log injections instead of performing them")
	fs.BoolVar(&f.tray, "tray", false, "show a system tray icon")
	fs.StringVar(&f.logLevel, "log-level", "", "debug, info, warn or error")
	fs.StringVar(&f.logFormat, "log-format", "", "text or json")
	fs.StringVar(&f.autostart, "autostart", "", "on: start at login with the current config; off: remove the login item")
	fs.BoolVar(&f.version, "version", false, "print the version and exit")
	return fs
}

// applyFlags overrides cfg with every flag set on the command line.
func applyFlags(fs *pflag.FlagSet, f *flags, cfg *config.Config) {
	if fs.Changed("listen") {
		cfg.Server.Listen = f.listen
	}
	if fs.Changed("move-type") {
		cfg.Server.MoveType = f.moveType
	}
	if fs.Changed("dry-run") {
		cfg.Server.DryRun = f.dryRun
	}
	if fs.Changed("tray") {
		cfg.Server.Tray = f.tray
	}
	if fs.Changed("log-level") {
		cfg.Log.Level = f.logLevel
	}
	if fs.Changed("log-format") {
		cfg.Log.Format = f.logFormat
	}
}

func run(args []string) error {
	var f flags
	fs := newFlagSet(&f)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if f.version {
		fmt.Printf("air-server version %s\n", version)
		return nil
	}

	cfgMgr, err := config.NewManager(f.configPath, nil)
	if err != nil {
		return fmt.Errorf("failed to initialize config: %w", err)
	}
	if err := cfgMgr.Load(); err != nil {
		return err
	}
	cfg := cfgMgr.Get()
	applyFlags(fs, &f, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	if fs.Changed("autostart") {
		return setAutostart(f.autostart, cfgMgr.Path())
	}

	logger, err := logging.Setup(os.Stderr, cfg.Log.Format, cfg.Log.Level)
	if err != nil {
		return err
	}
	logger.Info("air-server starting", "version", version, "config", cfgMgr.Path())

	srvCfg, err := serverConfig(cfg, logger)
	if err != nil {
		return err
	}

	var (
		inj input.Injector
		cb  clipboard.Clipboard
	)
	if cfg.Server.DryRun {
		logger.Info("dry run: injections are logged, clipboard is in memory")
		inj = input.NewLogInjector(logger)
		cb = clipboard.NewMemory("")
	} else {
		inj = input.NewSystemInjector()
		cb = clipboard.NewSystem()
	}

	if cfg.Server.ManageFirewall {
		if port, err := listenPort(cfg.Server.Listen); err != nil {
			logger.Warn("cannot determine port for firewall rule", "error", err)
		} else if err := osutils.EnsureFirewallRule(port, logger); err != nil {
			logger.Warn("firewall rule not applied", "error", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(inj, cb, srvCfg)
	if !cfg.Server.Tray {
		return srv.ListenAndServe(ctx)
	}

	// systray needs the main goroutine
	t := tray.New("airkvm", stop)
	srv.OnConnectionsChanged = t.SetConnections
	t.SetConnections(0)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe(ctx)
		t.Stop()
	}()
	t.Run()
	stop()
	return <-errCh
}

func setAutostart(mode, configPath string) error {
	switch mode {
	case "on":
		if err := autostart.Enable("--config", configPath); err != nil {
			return fmt.Errorf("failed to enable autostart: %w", err)
		}
		fmt.Printf("air-server will start at login with %s\n", configPath)
	case "off":
		if err := autostart.Disable(); err != nil {
			return fmt.Errorf("failed to disable autostart: %w", err)
		}
		fmt.Println("air-server autostart removed")
	default:
		return fmt.Errorf("--autostart must be on or off, got %q", mode)
	}
	return nil
}

func serverConfig(cfg *config.Config, logger *slog.Logger) (server.Config, error) {
	moveType, err := replay.ParseMoveType(cfg.Server.MoveType)
	if err != nil {
		return server.Config{}, err
	}
	return server.Config{
		Addr: cfg.Server.Listen,
		Replay: replay.Options{
			MoveType:          moveType,
			CopyKeys:          cfg.Server.CopyKeys,
			CopyReadbackDelay: cfg.Server.CopyReadbackDelay(),
		},
		Conn: network.Options{
			PingInterval: cfg.Server.PingInterval(),
		},
		Logger: logger,
	}, nil
}

func listenPort(addr string) (int, error) {
	_, port, err := net.SplitHostPort(addr)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(port)
}
