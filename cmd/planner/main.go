package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/kingpin/v2"
	"go.uber.org/zap"

	"github.com/eugenenazirov/supply-planner/internal/config"
	"github.com/eugenenazirov/supply-planner/internal/logging"
	"github.com/eugenenazirov/supply-planner/internal/procurement"
	"github.com/eugenenazirov/supply-planner/internal/report"
	"github.com/eugenenazirov/supply-planner/internal/storage"
)

const (
	formatText = "text"
	formatJSON = "json"
)

// errNoPlan is returned when the request was valid but no exact purchase exists.
var errNoPlan = errors.New("no exact plan")

type options struct {
	offersFile   string
	quantity     int
	format       string
	priceCeiling float64
	logLevel     string
}

func main() {
	opts, err := parseArgs(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger, err := logging.New(opts.logLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	if err := run(opts, os.Stdout, logger); err != nil {
		if errors.Is(err, errNoPlan) {
			_ = logger.Sync()
			os.Exit(2)
		}
		logger.Error("planning failed", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
}

func parseArgs(args []string) (options, error) {
	var opts options

	app := kingpin.New("planner", "Computes the cheapest exact purchase of a quantity from a YAML offer catalog")
	app.Flag("offers", "YAML file with a top-level offers list (built-in catalog when omitted)").StringVar(&opts.offersFile)
	app.Flag("quantity", "Exact number of units to purchase").Short('q').Required().IntVar(&opts.quantity)
	app.Flag("format", "Output format").Default(formatText).EnumVar(&opts.format, formatText, formatJSON)
	app.Flag("price-ceiling", "Enable lossy price ceiling pruning with this factor (0 disables)").Default("0").Float64Var(&opts.priceCeiling)
	app.Flag("log-level", "Log level (debug, info, warn, error)").Default("warn").StringVar(&opts.logLevel)

	if _, err := app.Parse(args); err != nil {
		return options{}, err
	}
	if opts.priceCeiling < 0 {
		return options{}, fmt.Errorf("price ceiling must not be negative, got %v", opts.priceCeiling)
	}
	return opts, nil
}

func run(opts options, out io.Writer, logger *zap.Logger) error {
	offers := storage.DefaultOffers()
	if opts.offersFile != "" {
		loaded, err := config.LoadOffers(opts.offersFile)
		if err != nil {
			return err
		}
		offers = loaded
	}

	planner := procurement.New(procurement.WithPriceCeiling(opts.priceCeiling))
	plan, err := planner.Plan(offers, opts.quantity)
	if err != nil {
		return err
	}

	logger.Debug("plan computed",
		zap.Int("offers", len(offers)),
		zap.Int("quantity", opts.quantity),
		zap.Int("purchase_units", plan.Units),
		zap.String("outcome", string(plan.Outcome)),
	)

	rep := report.Build(opts.quantity, plan)
	switch opts.format {
	case formatJSON:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(rep); err != nil {
			return fmt.Errorf("encode report: %w", err)
		}
	default:
		if err := report.WriteText(out, rep); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
	}

	if plan.Empty() {
		return fmt.Errorf("%w: %s", errNoPlan, plan.Outcome)
	}
	return nil
}
