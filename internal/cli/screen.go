package cli

import (
	"fmt"
	"strings"

	urfave "github.com/urfave/cli/v2"

	"github.com/ZanzyTHEbar/aq10-triage/internal/model"
	"github.com/ZanzyTHEbar/aq10-triage/internal/report"
	"github.com/ZanzyTHEbar/aq10-triage/internal/screening"
)

var screenCmd = &urfave.Command{
	Name:  "screen",
	Usage: "Score one submission against the artifacts",
	Flags: []urfave.Flag{
		&urfave.StringFlag{
			Name:     "answers",
			Usage:    "Ten comma-separated answers to items A1..A10 (sim/não, yes/no, 1/0)",
			Required: true,
		},
		&urfave.IntFlag{
			Name:  "age",
			Usage: "Age of the child",
			Value: 36,
		},
		&urfave.StringFlag{
			Name:  "sex",
			Usage: "Masculino or Feminino",
			Value: string(screening.SexMale),
		},
		&urfave.BoolFlag{
			Name:  "jaundice",
			Usage: "Born with jaundice",
		},
		&urfave.BoolFlag{
			Name:  "family",
			Usage: "ASD cases in the family",
		},
	},
	Action: cmdScreen,
}

type screenOutput struct {
	screening.ScreeningResult `yaml:",inline"`
	Recommendation            report.Recommendation `json:"recommendation" yaml:"recommendation"`
}

func cmdScreen(c *urfave.Context) error {
	cfg := getConfig(c)

	answers, err := parseAnswers(c.String("answers"))
	if err != nil {
		return err
	}
	sex, err := screening.ParseSex(c.String("sex"))
	if err != nil {
		return err
	}
	sub := screening.Submission{
		Answers: answers,
		Profile: screening.DemographicProfile{
			Age:           c.Int("age"),
			Sex:           sex,
			Jaundice:      c.Bool("jaundice"),
			FamilyHistory: c.Bool("family"),
		},
	}
	if err := sub.Profile.Validate(); err != nil {
		return err
	}

	artifacts, err := model.Load(cfg.Config.Artifacts.Dir, cfg.Config.Artifacts.Files())
	if err != nil {
		return err
	}
	binding, err := artifacts.Binding(cfg.Config.Artifacts.StrictBinding)
	if err != nil {
		return err
	}

	screener := screening.NewScreener(binding, artifacts.Scaler, artifacts.Classifier)
	res, err := screener.Screen(c.Context, sub)
	if err != nil {
		return err
	}

	if cfg.Format == formatText {
		return report.WriteText(c.App.Writer, report.NewPanel(res))
	}
	return encode(c.App.Writer, cfg.Format, screenOutput{
		ScreeningResult: res,
		Recommendation:  report.Recommend(res),
	})
}

func parseAnswers(s string) (screening.Answers, error) {
	var out screening.Answers

	parts := strings.Split(s, ",")
	if len(parts) != screening.ItemCount {
		return out, fmt.Errorf("expected %d answers, got %d", screening.ItemCount, len(parts))
	}
	for i, p := range parts {
		switch strings.ToLower(strings.TrimSpace(p)) {
		case "sim", "s", "yes", "y", "1", "true":
			out[i] = true
		case "não", "nao", "n", "no", "0", "false":
			out[i] = false
		default:
			return out, fmt.Errorf("answer A%d: unrecognized value %q", i+1, p)
		}
	}
	return out, nil
}
