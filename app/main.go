package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	log "github.com/go-pkgz/lgr"
	"github.com/go-pkgz/repeater"
	"github.com/go-pkgz/repeater/strategy"
	"github.com/umputun/go-flags"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/timeblock/timeblock/app/persistence"
	"github.com/timeblock/timeblock/app/stopwatch"
	"github.com/timeblock/timeblock/app/web"
)

var opts struct {
	DB  string `short:"d" long:"db" env:"TIMEBLOCK_DB" default:"db.sql" description:"sqlite database file"`
	WAL bool   `long:"wal" env:"TIMEBLOCK_WAL" description:"enable sqlite write-ahead logging"`
	Dbg bool   `long:"dbg" env:"TIMEBLOCK_DEBUG" description:"debug mode"`

	Web struct {
		Address string  `long:"address" env:"ADDRESS" default:"127.0.0.1:5000" description:"web server listen address"`
		BaseURL string  `long:"base-url" env:"BASE_URL" description:"base URL path for reverse proxy (e.g., /timeblock)"`
		AddRate float64 `long:"add-rate" env:"ADD_RATE" default:"5" description:"max action submissions per second per client"`
	} `group:"web" namespace:"web" env-namespace:"TIMEBLOCK_WEB"`

	Repeater struct {
		Attempts int           `long:"attempts" env:"ATTEMPTS" default:"3" description:"how many times to try opening the database"`
		Duration time.Duration `long:"duration" env:"DURATION" default:"500ms" description:"initial retry delay"`
		Factor   float64       `long:"factor" env:"FACTOR" default:"2" description:"backoff factor"`
		Jitter   bool          `long:"jitter" env:"JITTER" description:"jitter"`
	} `group:"repeater" namespace:"repeater" env-namespace:"TIMEBLOCK_REPEATER"`

	Log struct {
		Enabled         bool   `long:"enabled" env:"ENABLED" description:"enable logging"`
		Filename        string `long:"filename" env:"FILENAME" description:"file to log to, stdout if not set"`
		MaxSize         int    `long:"max-size" env:"MAX_SIZE" default:"100" description:"max log file size in megabytes"`
		MaxBackups      int    `long:"max-backups" env:"MAX_BACKUPS" default:"7" description:"max number of rotated log files"`
		MaxAge          int    `long:"max-age" env:"MAX_AGE" default:"0" description:"max days to keep rotated log files, 0 keeps all"`
		EnabledCompress bool   `long:"enabled-compress" env:"ENABLED_COMPRESS" description:"compress rotated log files"`
	} `group:"log" namespace:"log" env-namespace:"TIMEBLOCK_LOG"`

	Args struct {
		Database string `positional-arg-name:"DATABASE" description:"sqlite database file, overrides --db"`
	} `positional-args:"yes"`
}

var revision = "unknown"

// errOut receives error lines when logging is disabled
var errOut io.Writer = os.Stderr

func main() {
	fmt.Printf("timeblock %s\n", revision)

	if _, err := flags.Parse(&opts); err != nil {
		os.Exit(2)
	}
	setupLogs()

	defer func() {
		if x := recover(); x != nil {
			log.Printf("[WARN] run time panic:\n%v", x)
			panic(x)
		}
	}()

	uptime := stopwatch.New()
	uptime.Start()

	ctx, cancel := context.WithCancel(context.Background())
	signals(cancel) // handle SIGQUIT, SIGINT and SIGTERM

	err := run(ctx)
	log.Printf("[INFO] timeblock stopped, uptime %v", -uptime.Check().Round(time.Second))
	if err != nil {
		log.Printf("[ERROR] %v", err)
		os.Exit(1)
	}
}

// run prepares storage and runs web server until ctx is canceled
func run(ctx context.Context) error {
	cfg := storageConfig()
	if err := initStorage(ctx, cfg); err != nil {
		return err
	}

	srv, err := web.New(web.Config{
		Store:   persistence.NewGateway(cfg),
		BaseURL: validateBaseURL(opts.Web.BaseURL),
		Version: revision,
		AddRate: opts.Web.AddRate,
	})
	if err != nil {
		return fmt.Errorf("failed to create web server: %w", err)
	}
	return srv.Run(ctx, opts.Web.Address)
}

// storageConfig makes session config from options, positional DATABASE wins over --db
func storageConfig() persistence.Config {
	cfg := persistence.Config{
		Path:      opts.DB,
		Bootstrap: persistence.TimeblockSchema,
		Logger:    log.Default(),
	}
	if opts.Args.Database != "" {
		cfg.Path = opts.Args.Database
	}
	if cfg.Path == "" {
		cfg.Path = persistence.DefaultPath
	}
	if opts.WAL {
		cfg.Pragmas = append(cfg.Pragmas, "journal_mode=WAL")
	}
	return cfg
}

// initStorage opens the database once to make sure the schema is in place,
// retrying with backoff as the file can be locked by another process for a moment
func initStorage(ctx context.Context, cfg persistence.Config) error {
	rptr := repeater.New(&strategy.Backoff{Repeats: opts.Repeater.Attempts, Duration: opts.Repeater.Duration,
		Factor: opts.Repeater.Factor, Jitter: opts.Repeater.Jitter})

	err := rptr.Do(ctx, func() error {
		return persistence.With(ctx, cfg, func(s *persistence.Session) error {
			return s.Err()
		})
	})
	if err != nil {
		return fmt.Errorf("failed to initialize database %s: %w", cfg.Path, err)
	}
	log.Printf("[INFO] using database %s", cfg.Path)
	return nil
}

// validateBaseURL normalizes base URL, drops trailing slash and makes sure it starts with slash
func validateBaseURL(baseURL string) string {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return ""
	}
	if !strings.HasPrefix(baseURL, "/") {
		baseURL = "/" + baseURL
	}
	return baseURL
}

func setupLogs() io.Writer {
	if !opts.Log.Enabled {
		log.Setup(log.Out(io.Discard), log.Err(errOut))
		return os.Stdout
	}

	var out io.Writer = os.Stdout
	if opts.Log.Filename != "" {
		out = &lumberjack.Logger{
			Filename:   opts.Log.Filename,
			MaxSize:    opts.Log.MaxSize,
			MaxBackups: opts.Log.MaxBackups,
			MaxAge:     opts.Log.MaxAge,
			Compress:   opts.Log.EnabledCompress,
		}
	}

	logOpts := []log.Option{log.Msec, log.Out(out), log.Err(out)}
	if opts.Dbg {
		logOpts = append(logOpts, log.Debug, log.CallerFunc, log.CallerPkg, log.CallerFile)
	}
	log.Setup(logOpts...)
	return out
}

func signals(cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	go func() {
		stacktrace := make([]byte, 8192)
		for sig := range sigChan {
			if sig == syscall.SIGQUIT { // catch SIGQUIT and print stack traces
				length := runtime.Stack(stacktrace, true)
				fmt.Println(string(stacktrace[:length]))
				continue
			}
			log.Printf("[INFO] %v received, shutting down", sig)
			cancel()
		}
	}()
	signal.Notify(sigChan, syscall.SIGQUIT, syscall.SIGINT, syscall.SIGTERM)
}
