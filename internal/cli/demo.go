package cli

import (
	"log/slog"

	urfave "github.com/urfave/cli/v2"

	"github.com/ZanzyTHEbar/aq10-triage/internal/model"
)

const defaultBindingsFile = "bindings.yaml"

var demoCmd = &urfave.Command{
	Name:   "demo",
	Usage:  "Write the built-in demo artifacts to the artifacts directory",
	Action: cmdDemo,
}

func cmdDemo(c *urfave.Context) error {
	cfg := getConfig(c)

	files := cfg.Config.Artifacts.Files()
	if files.Bindings == "" {
		files.Bindings = defaultBindingsFile
	}

	if err := model.Save(cfg.Config.Artifacts.Dir, files, model.DemoArtifacts()); err != nil {
		return err
	}

	slog.Info("demo artifacts written", "dir", cfg.Config.Artifacts.Dir, "bindings", files.Bindings)
	return nil
}
