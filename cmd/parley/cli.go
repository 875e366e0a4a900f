package main

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/hpungsan/parley/internal/errors"
	"github.com/hpungsan/parley/internal/ops"
	"github.com/hpungsan/parley/internal/web"
)

// newCLIApp creates the CLI application with all commands.
// rt may be nil when only help or version output is needed.
func newCLIApp(rt *runtime) *cli.App {
	app := &cli.App{
		Name:    "parley",
		Usage:   "Detect, summarize and translate text",
		Version: Version,
		Commands: []*cli.Command{
			serveCmd(rt),
			probeCmd(rt),
			detectCmd(rt),
			summarizeCmd(rt),
			translateCmd(rt),
			journalCmd(rt),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// serveCmd creates the serve command.
func serveCmd(rt *runtime) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the web interface",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bind", Aliases: []string{"b"}, Value: "127.0.0.1", Usage: "Address to listen on"},
			&cli.IntFlag{Name: "port", Aliases: []string{"p"}, Value: 8080, Usage: "Port to listen on"},
		},
		Action: func(c *cli.Context) error {
			port := c.Int("port")
			if port <= 0 || port > 65535 {
				return outputError(errors.NewInvalidRequest(fmt.Sprintf("invalid port: %d", port)))
			}
			srv := web.NewServer(rt.session, rt.database, rt.logger, Version, c.String("bind"), port)
			return web.Run(srv, rt.logger)
		},
	}
}

// probeCmd creates the probe command.
func probeCmd(rt *runtime) *cli.Command {
	return &cli.Command{
		Name:  "probe",
		Usage: "Report which host capabilities are present",
		Action: func(c *cli.Context) error {
			return outputJSON(rt.session.Availability())
		},
	}
}

// detectCmd creates the detect command.
func detectCmd(rt *runtime) *cli.Command {
	return &cli.Command{
		Name:      "detect",
		Usage:     "Detect the language of a text (reads stdin when no text is given)",
		ArgsUsage: "[text]",
		Action: func(c *cli.Context) error {
			text, err := inputText(c)
			if err != nil {
				return outputError(err)
			}

			output, err := rt.session.Send(c.Context, ops.SendInput{Text: text})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// summarizeOutput is printed by the summarize command.
type summarizeOutput struct {
	*ops.SendOutput
	Summary string `json:"summary"`
}

// summarizeCmd creates the summarize command.
func summarizeCmd(rt *runtime) *cli.Command {
	return &cli.Command{
		Name:      "summarize",
		Usage:     "Summarize a text as key points (reads stdin when no text is given)",
		ArgsUsage: "[text]",
		Action: func(c *cli.Context) error {
			sent, err := send(c, rt)
			if err != nil {
				return outputError(err)
			}

			output, err := rt.session.Summarize(c.Context, ops.SummarizeInput{ID: sent.ID})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(summarizeOutput{SendOutput: sent, Summary: output.Summary})
		},
	}
}

// translateOutput is printed by the translate command.
type translateOutput struct {
	*ops.SendOutput
	Translations map[string]string `json:"translations"`
	Errors       map[string]string `json:"errors,omitempty"`
}

// translateCmd creates the translate command.
func translateCmd(rt *runtime) *cli.Command {
	return &cli.Command{
		Name:      "translate",
		Usage:     "Translate a text (reads stdin when no text is given)",
		ArgsUsage: "[text]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "to", Aliases: []string{"t"}, Usage: "Comma-separated target languages (default: configured targets)"},
		},
		Action: func(c *cli.Context) error {
			sent, err := send(c, rt)
			if err != nil {
				return outputError(err)
			}

			targets := parseList(c.String("to"))
			if len(targets) == 0 {
				for _, t := range rt.session.Targets() {
					if t != sent.Language {
						targets = append(targets, t)
					}
				}
			}

			result, err := rt.session.TranslateMany(c.Context, sent.ID, targets)
			if result == nil || (err != nil && len(result.Translations) == 0) {
				return outputError(err)
			}

			return outputJSON(translateOutput{
				SendOutput:   sent,
				Translations: result.Translations,
				Errors:       result.Errors,
			})
		},
	}
}

// journalCmd creates the journal command and its subcommands.
func journalCmd(rt *runtime) *cli.Command {
	return &cli.Command{
		Name:  "journal",
		Usage: "Inspect the host call journal",
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List recorded host calls, newest first",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "operation", Usage: "Filter by operation: detect|summarize|translate"},
					&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Value: ops.DefaultListLimit, Usage: "Maximum items to return"},
					&cli.IntFlag{Name: "offset", Aliases: []string{"o"}, Value: 0, Usage: "Items to skip"},
				},
				Action: func(c *cli.Context) error {
					if rt.database == nil {
						return outputError(errJournalDisabled)
					}
					input := ops.JournalListInput{
						Operation: c.String("operation"),
						Limit:     c.Int("limit"),
						Offset:    c.Int("offset"),
					}

					output, err := ops.JournalList(c.Context, rt.database, input)
					if err != nil {
						return outputError(err)
					}

					return outputJSON(output)
				},
			},
			{
				Name:  "purge",
				Usage: "Permanently delete recorded host calls",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "older-than", Usage: "Only purge entries recorded more than N days ago (e.g., 7d)"},
				},
				Action: func(c *cli.Context) error {
					if rt.database == nil {
						return outputError(errJournalDisabled)
					}
					input := ops.JournalPurgeInput{}
					if olderThan := c.String("older-than"); olderThan != "" {
						days, err := parseDuration(olderThan)
						if err != nil {
							return outputError(errors.NewInvalidRequest(err.Error()))
						}
						input.OlderThanDays = &days
					}

					output, err := ops.JournalPurge(c.Context, rt.database, input)
					if err != nil {
						return outputError(err)
					}

					return outputJSON(output)
				},
			},
		},
	}
}

var errJournalDisabled = errors.NewInvalidRequest("call journal is disabled")

// Helper functions

// send submits the command's input text and fails if detection failed.
func send(c *cli.Context, rt *runtime) (*ops.SendOutput, error) {
	text, err := inputText(c)
	if err != nil {
		return nil, err
	}
	sent, err := rt.session.Send(c.Context, ops.SendInput{Text: text})
	if err != nil {
		return nil, err
	}
	if sent.Error != "" {
		return nil, errors.NewHostFailure(sent.Error)
	}
	return sent, nil
}

// inputText returns the positional arguments joined by spaces, or stdin
// when no arguments were given.
func inputText(c *cli.Context) (string, error) {
	if c.NArg() > 0 {
		return strings.Join(c.Args().Slice(), " "), nil
	}
	if !stdinHasData() {
		return "", errors.NewInvalidRequest("text must be given as arguments or piped via stdin")
	}
	text, err := readStdin()
	if err != nil {
		return "", errors.NewInternal(err)
	}
	return text, nil
}

// outputJSON marshals result to stdout as JSON.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	var pErr *errors.ParleyError
	if stderrors.As(err, &pErr) {
		return cli.Exit(fmt.Sprintf("[%s] %s", pErr.Code, pErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}

// stdinHasData returns true if stdin has piped data (not a terminal).
func stdinHasData() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}

// readStdin reads all content from stdin.
func readStdin() (string, error) {
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// parseList splits a comma-separated string into trimmed, non-empty items.
func parseList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	items := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			items = append(items, t)
		}
	}
	return items
}

// parseDuration parses "7d" format to days.
func parseDuration(s string) (int, error) {
	if numStr, ok := strings.CutSuffix(s, "d"); ok {
		days, err := strconv.Atoi(numStr)
		if err != nil {
			return 0, fmt.Errorf("invalid duration: %s", s)
		}
		if days < 0 {
			return 0, fmt.Errorf("duration must be non-negative")
		}
		return days, nil
	}
	return 0, fmt.Errorf("duration must end with 'd' (days), e.g., 7d")
}
