package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/Conceptual-Machines/melody-api/internal/config"
	"github.com/Conceptual-Machines/melody-api/internal/export"
	"github.com/Conceptual-Machines/melody-api/internal/logger"
	"github.com/Conceptual-Machines/melody-api/internal/melody"
	"github.com/Conceptual-Machines/melody-api/internal/services"
	"github.com/joho/godotenv"
	"github.com/urfave/cli"
)

var version = "dev"

func main() {
	_ = godotenv.Load()

	if err := newApp(os.Stdout).Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp(stdout io.Writer) *cli.App {
	defaults := config.Load()

	app := cli.NewApp()
	app.Version = version
	app.Compiled = time.Now()
	app.Name = "melodygen"
	app.Usage = "extend a seed phrase into a melody and write it to a file"
	app.UsageText = `melodygen --seed "67 _ 67 _ 67 _ _ 65 64 _ 64 _ 64 _ _" --out melody.mid`
	app.Writer = stdout
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "seed,s",
			Usage: "space separated seed symbols",
		},
		cli.BoolFlag{
			Name:  "random-seed",
			Usage: "start from a random seed phrase instead of --seed",
		},
		cli.IntFlag{
			Name:  "steps,n",
			Value: defaults.DefaultSteps,
			Usage: "maximum number of symbols to sample",
		},
		cli.Float64Flag{
			Name:  "temperature,t",
			Value: defaults.DefaultTemperature,
			Usage: "sampling temperature, lower is more predictable",
		},
		cli.IntFlag{
			Name:  "window,w",
			Value: defaults.SequenceLength,
			Usage: "context window length fed to the oracle",
		},
		cli.Int64Flag{
			Name:  "rand-seed",
			Usage: "random number seed for reproducible output (default: clock)",
		},
		cli.Float64Flag{
			Name:  "step-duration",
			Value: defaults.StepDuration,
			Usage: "quarter length of one symbol",
		},
		cli.Float64Flag{
			Name:  "tempo",
			Value: defaults.TempoBPM,
			Usage: "tempo in BPM written to MIDI files",
		},
		cli.StringFlag{
			Name:  "format,f",
			Value: export.FormatMIDI,
			Usage: "output format (midi or json)",
		},
		cli.StringFlag{
			Name:  "out,o",
			Usage: "output file (default: melody.<ext>)",
		},
		cli.StringFlag{
			Name:  "vocab",
			Value: defaults.VocabPath,
			Usage: "symbol mapping JSON (default: built in)",
		},
		cli.StringFlag{
			Name:  "corpus",
			Value: defaults.CorpusPath,
			Usage: "training songs for the markov oracle (default: built in)",
		},
		cli.StringFlag{
			Name:  "oracle",
			Value: defaults.Oracle,
			Usage: "markov or remote",
		},
		cli.IntFlag{
			Name:  "order",
			Value: defaults.MarkovOrder,
			Usage: "markov context length",
		},
		cli.StringFlag{
			Name:  "oracle-url",
			Value: defaults.OracleURL,
			Usage: "TensorFlow Serving base URL for the remote oracle",
		},
		cli.StringFlag{
			Name:  "model",
			Value: defaults.OracleModel,
			Usage: "model name for the remote oracle",
		},
		cli.BoolFlag{
			Name:  "debug",
			Usage: "debug logging",
		},
	}

	app.Action = func(c *cli.Context) error {
		cfg := *defaults
		cfg.DefaultSteps = c.Int("steps")
		if cfg.MaxSteps < cfg.DefaultSteps {
			cfg.MaxSteps = cfg.DefaultSteps
		}
		cfg.DefaultTemperature = c.Float64("temperature")
		cfg.SequenceLength = c.Int("window")
		if cfg.MaxWindow < cfg.SequenceLength {
			cfg.MaxWindow = cfg.SequenceLength
		}
		cfg.StepDuration = c.Float64("step-duration")
		cfg.TempoBPM = c.Float64("tempo")
		cfg.VocabPath = c.String("vocab")
		cfg.CorpusPath = c.String("corpus")
		cfg.Oracle = c.String("oracle")
		cfg.MarkovOrder = c.Int("order")
		cfg.OracleURL = c.String("oracle-url")
		cfg.OracleModel = c.String("model")

		logger.SetLevel("warn")
		if c.Bool("debug") {
			logger.SetLevel("debug")
		}
		return run(c, &cfg, stdout)
	}

	return app
}

func run(c *cli.Context, cfg *config.Config, stdout io.Writer) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	v, err := services.LoadVocabulary(cfg)
	if err != nil {
		return err
	}
	o, err := services.BuildOracle(cfg, v)
	if err != nil {
		return err
	}
	svc := services.NewGenerationService(cfg, v, o, nil, nil)

	var randSeed *int64
	if c.IsSet("rand-seed") {
		value := c.Int64("rand-seed")
		randSeed = &value
	}

	seed := c.String("seed")
	if c.Bool("random-seed") {
		seed = svc.RandomSeed(randSeed)
	}

	temperature := cfg.DefaultTemperature
	result, err := svc.Generate(context.Background(), services.GenerateParams{
		Seed:        seed,
		Temperature: &temperature,
		RandomSeed:  randSeed,
	})
	if err != nil {
		return err
	}

	opts := export.DefaultOptions()
	opts.BPM = cfg.TempoBPM
	serializer, err := export.ForFormat(c.String("format"), opts)
	if err != nil {
		return err
	}

	out := c.String("out")
	if out == "" {
		out = "melody" + serializer.Extension()
	}
	if err := export.WriteFile(serializer, out, result.Events); err != nil {
		return err
	}

	fmt.Fprintf(stdout, "seed:    %s\n", melody.Join(result.Seed))
	fmt.Fprintf(stdout, "melody:  %s\n", melody.Join(result.Melody))
	fmt.Fprintf(stdout, "events:  %s\n", melody.String(result.Events))
	fmt.Fprintf(stdout, "wrote %d events (%g quarters) to %s\n", len(result.Events), result.TotalDuration, out)
	return nil
}
