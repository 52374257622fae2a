// air-client captures mouse and keyboard input and forwards it to an
// air-server.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/pflag"

	"airkvm/internal/capture"
	"airkvm/internal/client"
	"airkvm/internal/clipboard"
	"airkvm/internal/config"
	"airkvm/internal/input"
	"airkvm/internal/logging"
	"airkvm/internal/network"
)

var version = "0.3.0"

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

type flags struct {
	configPath  string
	server      string
	source      string
	script      string
	devices     []string
	grab        bool
	text        string
	discover    bool
	writeConfig bool
	logLevel    string
	logFormat   string
	version     bool
}

func newFlagSet(f *flags) *pflag.FlagSet {
	fs := pflag.NewFlagSet("air-client", pflag.ContinueOnError)
	fs.StringVar(&f.configPath, "config", "", "path to config.json (default: per-user config directory)")
	fs.StringVar(&f.server, "server", "", "server address (host:port or ws:// URL)")
	fs.StringVar(&f.source, "source", "", "capture source: terminal, evdev or script")
	fs.StringVar(&f.script, "script", "", "YAML event script for --source script")
	fs.StringArrayVar(&f.devices, "device", nil, "evdev device path for --source evdev (repeatable)")
	fs.BoolVar(&f.grab, "grab", false, "grab evdev devices exclusively")
	fs.StringVar(&f.text, "type", "", "type this text on the server and exit")
	fs.BoolVar(&f.discover, "discover", false, "scan the local network for servers and exit")
	fs.BoolVar(&f.writeConfig, "write-config", false, "save the effective configuration and exit")
	fs.StringVar(&f.logLevel, "log-level", "", "debug, info, warn or error")
	fs.StringVar(&f.logFormat, "log-format", "", "text or json")
	fs.BoolVar(&f.version, "version", false, "print the version and exit")
	return fs
}

// applyFlags overrides cfg with every flag set on the command line.
func applyFlags(fs *pflag.FlagSet, f *flags, cfg *config.Config) {
	if fs.Changed("server") {
		cfg.Client.ServerAddr = f.server
	}
	if fs.Changed("script") {
		cfg.Client.Script = f.script
		if !fs.Changed("source") {
			cfg.Client.Source = "script"
		}
	}
	if fs.Changed("device") {
		cfg.Client.Devices = f.devices
		if !fs.Changed("source") {
			cfg.Client.Source = "evdev"
		}
	}
	if fs.Changed("source") {
		cfg.Client.Source = f.source
	}
	if fs.Changed("grab") {
		cfg.Client.Grab = f.grab
	}
	if fs.Changed("log-level") {
		cfg.Log.Level = f.logLevel
	}
	if fs.Changed("log-format") {
		cfg.Log.Format = f.logFormat
	}
}

func run(args []string, stdout io.Writer) error {
	var f flags
	fs := newFlagSet(&f)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if len(fs.Args()) > 0 {
		return fmt.Errorf("unexpected argument: %s", fs.Arg(0))
	}
	if f.version {
		fmt.Fprintf(stdout, "air-client version %s\n", version)
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

	if f.writeConfig {
		cfgMgr.Set(cfg)
		if err := cfgMgr.Save(); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "configuration written to %s\n", cfgMgr.Path())
		return nil
	}

	logger, err := logging.Setup(os.Stderr, cfg.Log.Format, cfg.Log.Level)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if f.discover {
		return discover(ctx, serverPort(cfg.Client.ServerAddr), stdout)
	}

	var src capture.Source
	if fs.Changed("type") {
		src = capture.Channel(closedChannel())
	} else {
		var closeSrc func() error
		src, closeSrc, err = openSource(cfg.Client)
		if err != nil {
			return err
		}
		defer closeSrc()
	}

	conn, err := network.Dial(ctx, cfg.Client.ServerAddr, network.Options{
		PingInterval: cfg.Client.PingInterval(),
		Logger:       logger,
	})
	if err != nil {
		return err
	}
	logger.Info("connected to server", "addr", cfg.Client.ServerAddr, "source", cfg.Client.Source)

	session, err := client.NewSession(conn, clipboard.NewSystem(), sessionOptions(cfg.Client, logger))
	if err != nil {
		conn.Close()
		return err
	}
	if fs.Changed("type") {
		if err := session.TypeText(f.text); err != nil {
			conn.Close()
			return err
		}
	}
	return session.Run(ctx, src)
}

func sessionOptions(cfg config.ClientConfig, logger *slog.Logger) client.Options {
	return client.Options{
		Scaler:          input.RatioScaler(cfg.Surface, cfg.Display),
		ToggleHotkey:    cfg.ToggleHotkey,
		ClipboardDedupe: cfg.ClipboardDedupe,
		Logger:          logger,
	}
}

// openSource opens the configured capture source. The returned func
// releases it.
func openSource(cfg config.ClientConfig) (capture.Source, func() error, error) {
	noop := func() error { return nil }
	switch cfg.Source {
	case "script":
		if cfg.Script == "" {
			return nil, nil, errors.New("script source needs --script")
		}
		s, err := capture.LoadScript(cfg.Script)
		if err != nil {
			return nil, nil, err
		}
		return s, noop, nil
	case "evdev":
		if len(cfg.Devices) == 0 {
			return nil, nil, errors.New("evdev source needs at least one --device")
		}
		e, err := capture.OpenEvdev(cfg.Devices, cfg.Grab, cfg.Surface)
		if err != nil {
			return nil, nil, err
		}
		return e, e.Close, nil
	case "terminal":
		t, err := capture.NewTerminal(os.Stdin)
		if err != nil {
			return nil, nil, err
		}
		fmt.Fprintln(os.Stderr, "forwarding keystrokes; press Ctrl-] to quit")
		return t, t.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown source %q", cfg.Source)
	}
}

func discover(ctx context.Context, port int, stdout io.Writer) error {
	servers, err := network.ScanLAN(ctx, port)
	if err != nil {
		return err
	}
	if len(servers) == 0 {
		fmt.Fprintf(stdout, "no servers found on port %d\n", port)
		return nil
	}
	for _, s := range servers {
		fmt.Fprintf(stdout, "%s\t%d connected\n", s.Addr(), s.Connections)
	}
	return nil
}

// serverPort extracts the port of a host:port address, falling back to
// the default.
func serverPort(addr string) int {
	if _, p, err := net.SplitHostPort(addr); err == nil {
		if port, err := strconv.Atoi(p); err == nil {
			return port
		}
	}
	return config.DefaultPort
}

func closedChannel() <-chan input.RawEvent {
	ch := make(chan input.RawEvent)
	close(ch)
	return ch
}
