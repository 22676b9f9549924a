// Package cli implements aq10ctl, the offline companion to the screening service.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	urfave "github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/ZanzyTHEbar/aq10-triage/internal/config"
)

const (
	appConfigKey = "app-config"

	formatJSON = "json"
	formatYAML = "yaml"
	formatText = "text"
)

var (
	version = "v0.0.1-default"
	commit  = ""
	date    = ""

	debugFlag = &urfave.BoolFlag{
		Name:  "debug",
		Usage: "Prints verbose logs (optional, default: false)",
	}

	configFlag = &urfave.StringFlag{
		Name:  "config",
		Usage: "Path to a config.yaml file (optional)",
	}

	dirFlag = &urfave.StringFlag{
		Name:  "dir",
		Usage: "Artifacts directory (overrides AQ10_ARTIFACTS_DIR)",
	}

	formatFlag = &urfave.StringFlag{
		Name:  "format",
		Usage: "Output format [json, yaml, text]",
		Value: formatJSON,
	}
)

// Execute creates and runs the CLI application.
func Execute() {
	initLogging(os.Stderr, false)

	app := newApp(os.Stdout)
	if err := app.Run(os.Args); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

type appConfig struct {
	Config *config.Config
	Format string
}

func getConfig(c *urfave.Context) *appConfig {
	return c.App.Metadata[appConfigKey].(*appConfig)
}

func newApp(out io.Writer) *urfave.App {
	return &urfave.App{
		Name:            "aq10ctl",
		Version:         fmt.Sprintf("%s (%s - %s)", version, commit, date),
		Compiled:        time.Now(),
		HideHelpCommand: true,
		Usage:           "Score AQ-10 submissions and inspect model artifacts offline",
		Writer:          out,
		ErrWriter:       out,
		Metadata:        map[string]interface{}{},
		Flags: []urfave.Flag{
			debugFlag,
			configFlag,
			dirFlag,
			formatFlag,
		},
		Commands: []*urfave.Command{
			screenCmd,
			checkCmd,
			demoCmd,
		},
		Before: func(c *urfave.Context) error {
			if c.Bool(debugFlag.Name) {
				initLogging(c.App.ErrWriter, true)
			}

			cfg, err := config.Load(c.String(configFlag.Name))
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			if c.IsSet(dirFlag.Name) {
				cfg.Artifacts.Dir = c.String(dirFlag.Name)
			}

			format := c.String(formatFlag.Name)
			switch format {
			case formatJSON, formatText:
			case formatYAML, "yml":
				format = formatYAML
			default:
				return fmt.Errorf("unsupported format %q", format)
			}

			c.App.Metadata[appConfigKey] = &appConfig{
				Config: cfg,
				Format: format,
			}
			return nil
		},
	}
}

func initLogging(w io.Writer, debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	h := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(h))
}

func encode(w io.Writer, format string, v any) error {
	if format == formatYAML {
		e := yaml.NewEncoder(w)
		defer e.Close()
		return e.Encode(v)
	}
	e := json.NewEncoder(w)
	e.SetIndent("", "  ")
	return e.Encode(v)
}
