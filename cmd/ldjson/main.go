package main

import (
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/alecthomas/kong"
	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"

	"github.com/ldjson-stream/ldjson/pkg/config"
	"github.com/ldjson-stream/ldjson/pkg/tlsconfig"
)

var version = "dev"

// CLI is the ldjson command line.
type CLI struct {
	Version   kong.VersionFlag `help:"Print version and exit"`
	Verbose   int              `short:"v" type:"counter" help:"Increase log verbosity (-v info, -vv debug)"`
	Config    kong.ConfigFlag  `short:"c" help:"Config file (YAML, JSON or CUE)"`
	Insecure  bool             `help:"Allow http:// sources and skip TLS certificate verification. NOT RECOMMENDED."`
	TLSCACert string           `name:"tls-ca-cert" help:"PEM file with trusted CA certificates" type:"existingfile"`
	LogFile   string           `help:"Write logs to this file instead of stderr" type:"path"`

	Decode DecodeCLI `cmd:"" help:"Decode line-delimited JSON and print it as compact NDJSON"`
	Serve  ServeCLI  `cmd:"" help:"Accept line-delimited JSON over HTTP"`
}

var cli CLI

func main() {
	ktx := kong.Parse(&cli, kongOptions()...)

	level := new(slog.LevelVar)
	level.Set(levelFor(cli.Verbose))

	var (
		w       io.Writer = os.Stderr
		noColor           = !isatty.IsTerminal(os.Stderr.Fd())
	)
	if cli.LogFile != "" {
		f, err := os.OpenFile(cli.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		ktx.FatalIfErrorf(err)
		defer f.Close()
		w = f
		noColor = true
	}
	logger := slog.New(tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
		NoColor:    noColor,
	}))
	slog.SetDefault(logger)

	tlsCfg := tlsconfig.Config{
		Insecure:   cli.Insecure,
		CACertFile: cli.TLSCACert,
	}

	if err := ktx.Run(logger, tlsCfg, level); err != nil {
		logger.Error("command failed", "command", ktx.Command(), "error", err)
		os.Exit(1)
	}
}

func kongOptions() []kong.Option {
	return []kong.Option{
		kong.Name("ldjson"),
		kong.Description("Streaming line-delimited JSON decoder"),
		kong.UsageOnError(),
		kong.Configuration(config.Loader),
		kong.Vars{"version": version},
	}
}

// levelFor maps the -v count to a log level: warn, info, then debug.
func levelFor(verbose int) slog.Level {
	switch {
	case verbose <= 0:
		return slog.LevelWarn
	case verbose == 1:
		return slog.LevelInfo
	default:
		return slog.LevelDebug
	}
}
