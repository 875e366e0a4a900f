package main

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/hpungsan/parley/internal/config"
	"github.com/hpungsan/parley/internal/conversation"
	"github.com/hpungsan/parley/internal/db"
	"github.com/hpungsan/parley/internal/gateway"
	"github.com/hpungsan/parley/internal/host/gemini"
	"github.com/hpungsan/parley/internal/logging"
	"github.com/hpungsan/parley/internal/mcp"
	"github.com/hpungsan/parley/internal/ops"
)

// Version is set via -ldflags at build time.
var Version = "dev"

// cliCommands contains known CLI subcommands.
var cliCommands = map[string]bool{
	"serve": true, "probe": true, "detect": true,
	"summarize": true, "translate": true, "journal": true,
	"help": true,
}

// isCLIMode determines if we should run CLI vs MCP server.
func isCLIMode(args []string) bool {
	if len(args) < 2 {
		return false
	}
	arg := args[1]
	if cliCommands[arg] {
		return true
	}
	return arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v"
}

// isHelpOrVersion returns true if the user is requesting help or version info.
func isHelpOrVersion(args []string) bool {
	if len(args) < 2 {
		return false
	}
	arg := args[1]
	return arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v" || arg == "help"
}

// isTerminal returns true if stdin is a terminal (not piped).
func isTerminal() bool {
	stat, _ := os.Stdin.Stat()
	return (stat.Mode() & os.ModeCharDevice) != 0
}

// printBanner displays a friendly banner when run interactively without args.
func printBanner() {
	fmt.Println(`
                  _
   _ __  __ _ _ _| |___ _  _
  | '_ \/ _' | '_| / -_) || |
  | .__/\__,_|_| |_\___|\_, |
  |_|                   |__/

  Detect, summarize and translate text

  Usage: parley <command> [options]
         parley serve
         parley --help

  MCP server mode requires piped input.`)
}

// runtime holds everything a command needs once startup succeeded.
type runtime struct {
	cfg      *config.Config
	logger   *zap.Logger
	database *sql.DB
	session  *ops.Session
}

func (r *runtime) Close() {
	if r.database != nil {
		r.database.Close()
	}
	_ = r.logger.Sync()
}

// bootstrap loads config, connects the host and opens the journal.
func bootstrap(ctx context.Context) (*runtime, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("could not determine home directory: %w", err)
	}
	baseDir := filepath.Join(homeDir, ".parley")
	cwd, _ := os.Getwd()

	cfg, err := config.LoadWithRepo(baseDir, cwd)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	surface, err := gemini.New(ctx, cfg)
	switch {
	case stderrors.Is(err, gemini.ErrNoAPIKey):
		logger.Warn("no Gemini API key, host capabilities unavailable", zap.String("env", cfg.GeminiAPIKeyEnv))
	case err != nil:
		return nil, fmt.Errorf("failed to connect to Gemini: %w", err)
	}

	rt := &runtime{cfg: cfg, logger: logger}
	opts := ops.OptionsFromConfig(cfg)
	opts.Logger = logger

	if !cfg.DisableJournal {
		database, err := db.Init(baseDir)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		db.ConfigurePool(database, cfg)
		rt.database = database
		opts.Journal = db.NewJournal(database)
	}

	gw := gateway.New(surface, gateway.WithLogger(logger))
	rt.session = ops.NewSession(gw, conversation.NewStore(), opts)
	return rt, nil
}

func main() {
	if len(os.Args) < 2 && isTerminal() {
		printBanner()
		return
	}

	// No host or journal needed for --help/--version
	if isHelpOrVersion(os.Args) {
		app := newCLIApp(nil)
		if err := app.Run(os.Args); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	// Unknown argument + terminal → show error (don't start MCP server)
	if !isCLIMode(os.Args) && len(os.Args) >= 2 && isTerminal() {
		fmt.Fprintf(os.Stderr, "error: unknown command %q\n", os.Args[1])
		fmt.Fprintf(os.Stderr, "Run 'parley --help' for usage.\n")
		os.Exit(1)
	}

	rt, err := bootstrap(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if isCLIMode(os.Args) {
		app := newCLIApp(rt)
		err = app.Run(os.Args)
	} else {
		err = mcp.Run(rt.session, rt.database, rt.cfg, Version)
	}
	rt.Close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
