// Command tcvalidate checks Bible translation resources (USFM, TSV notes,
// questions and word links, markdown, YAML manifests and USX) and reports
// prioritized notices.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/FocuswithJustin/tcvalidate/core/notice"
	"github.com/FocuswithJustin/tcvalidate/internal/config"
	"github.com/FocuswithJustin/tcvalidate/internal/logging"
)

const version = "0.4.0"

// CLI defines the command-line interface for tcvalidate.
type CLI struct {
	Globals

	File        FileCmd        `cmd:"" help:"Check individual files"`
	Table       TableCmd       `cmd:"" help:"Check a whole TSV table"`
	Row         RowCmd         `cmd:"" help:"Check a single TSV row"`
	Repo        RepoCmd        `cmd:"" help:"Check every file of a repository"`
	BookPackage BookPackageCmd `cmd:"" name:"book-package" help:"Check one book across its resource repositories"`
	Serve       ServeCmd       `cmd:"" help:"Start the check server"`
	Watch       WatchCmd       `cmd:"" help:"Re-check files whenever they change"`
	Cache       CacheGroup     `cmd:"" help:"Cache maintenance"`
	Rules       RulesGroup     `cmd:"" help:"Notice disabling rules"`
	Version     VersionCmd     `cmd:"" help:"Print version information"`
}

// Globals are the flags shared by every command. Flags override the
// configuration file, the .env file and TCV_* environment variables.
type Globals struct {
	Config  string `help:"YAML configuration file" type:"path" env:"TCV_CONFIG"`
	EnvFile string `name:"env-file" help:"File of TCV_* settings" default:".env" type:"path"`

	Source    string `help:"Content source (door43, dir, archive or objectstore)"`
	Root      string `help:"Root directory for the dir and archive sources" type:"path"`
	Door43URL string `name:"door43-url" help:"Door43 server URL"`
	CacheDir  string `name:"cache-dir" help:"Directory for the persistent content cache" type:"path"`
	RulesFile string `name:"rules" help:"Notice disabling rules file" type:"path"`

	Offline       bool `help:"Disable all link fetching"`
	ExcerptLength int  `name:"excerpt-length" help:"Excerpt length in characters (0 = configured)"`
	Cutoff        int  `help:"Drop notices below this priority (0 = configured)"`
	FailOn        int  `name:"fail-on" help:"Exit with status 1 when a notice has at least this priority (0 = never)"`

	LogLevel  string `name:"log-level" help:"Log level (debug, info, warn, error)"`
	LogFormat string `name:"log-format" help:"Log format (text or json)"`
	Output    string `short:"o" help:"Result format" enum:"text,json" default:"text"`
}

// app is bound into every command's Run method.
type app struct {
	*Globals
	ctx context.Context
	out io.Writer
	err io.Writer
}

// load builds the configuration with flag overrides applied and starts
// logging with a fresh session ID.
func (g *app) load() (config.Config, error) {
	cfg, err := config.Load(g.Config, g.EnvFile)
	if err != nil {
		return cfg, err
	}
	g.apply(&cfg)
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return cfg, err
	}
	format, err := logging.ParseFormat(cfg.LogFormat)
	if err != nil {
		return cfg, err
	}
	logging.InitLoggerTo(g.err, level, format)
	g.ctx = logging.WithSessionID(g.ctx, logging.NewSessionID())
	return cfg, nil
}

func (g *app) apply(cfg *config.Config) {
	setString := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	setString(&cfg.Source, g.Source)
	setString(&cfg.SourceRoot, g.Root)
	setString(&cfg.Door43URL, g.Door43URL)
	setString(&cfg.CacheDir, g.CacheDir)
	setString(&cfg.RulesFile, g.RulesFile)
	setString(&cfg.LogLevel, g.LogLevel)
	setString(&cfg.LogFormat, g.LogFormat)
	if g.Offline {
		cfg.Checking.DisableAllLinkFetching = true
	}
	if g.ExcerptLength > 0 {
		cfg.Checking.ExcerptLength = g.ExcerptLength
	}
	if g.Cutoff > 0 {
		cfg.Checking.CutoffPriorityLevel = g.Cutoff
	}
}

// open loads the configuration and opens the runtime built from it.
func (g *app) open() (*config.Runtime, error) {
	cfg, err := g.load()
	if err != nil {
		return nil, err
	}
	return config.Open(cfg)
}

// report renders res and applies --fail-on.
func (g *app) report(res *notice.Result, cutoff int) error {
	if err := render(g.out, g.Output, res, cutoff); err != nil {
		return err
	}
	if g.FailOn <= 0 {
		return nil
	}
	failing := 0
	for _, n := range res.NoticeList {
		if n.Priority >= g.FailOn {
			failing++
		}
	}
	if failing > 0 {
		return fmt.Errorf("%d notice(s) at or above priority %d", failing, g.FailOn)
	}
	return nil
}

// VersionCmd prints the version.
type VersionCmd struct{}

func (c *VersionCmd) Run(g *app) error {
	fmt.Fprintf(g.out, "tcvalidate version %s\n", version)
	return nil
}

func main() {
	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Name("tcvalidate"),
		kong.Description("Checks Bible translation resources and reports prioritized notices"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	err := kctx.Run(&app{
		Globals: &cli.Globals,
		ctx:     ctx,
		out:     os.Stdout,
		err:     os.Stderr,
	})
	kctx.FatalIfErrorf(err)
}
