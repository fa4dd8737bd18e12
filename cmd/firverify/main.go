// Command firverify runs the verification scenarios against a golden FIR
// filter unit and a set of candidate units, and prints a pass/fail report.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/afero"
	"github.com/tebeka/atexit"
	"golang.org/x/term"

	"github.com/sarchlab/firverify/config"
	"github.com/sarchlab/firverify/dut"
	"github.com/sarchlab/firverify/fixture"
	"github.com/sarchlab/firverify/oracle"
	"github.com/sarchlab/firverify/scenario"
	"github.com/sarchlab/firverify/script"
)

const defaultConfigFile = "firverify.yaml"

var (
	configFile  = flag.String("config", "", "configuration file (default "+defaultConfigFile+" if present)")
	logFile     = flag.String("log", "", "write the JSON log to this file instead of stderr")
	trace       = flag.Bool("trace", false, "log every device command")
	reportFile  = flag.String("report", "", "also save the report to this file")
	scenarios   = flag.String("scenarios", "", "comma-separated scenarios to run (default all)")
	parallelism = flag.Int("j", -1, "candidates evaluated at once (0 means no limit)")
)

func main() {
	flag.Parse()

	setupLogging()

	fs := afero.NewOsFs()
	cfg := loadConfig(fs)

	transcript := dut.NewTranscript()
	golden := openUnit(fs, cfg, cfg.Golden, transcript)

	candidates := make([]dut.Handle, 0, len(cfg.Candidates))
	for _, u := range cfg.Candidates {
		candidates = append(candidates, openUnit(fs, cfg, u, transcript))
	}

	layout, err := cfg.CSRLayout()
	if err != nil {
		atexit.Fatalf("%v", err)
	}

	b := oracle.MakeBuilder().
		WithGolden(golden).
		WithCandidates(candidates...).
		WithScenarios(selectScenarios(fs, cfg)...).
		WithLayout(layout).
		WithParallelism(cfg.Parallelism)

	if por, ok := loadPOR(fs, cfg); ok {
		b = b.WithPOR(por)
	}

	o, err := b.Build()
	if err != nil {
		atexit.Fatalf("%v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	atexit.Register(stop)

	report, err := o.Run(ctx)
	if err != nil {
		atexit.Fatalf("run aborted: %v", err)
	}

	report.Transcript = transcript
	report.Style = reportStyle()
	report.WriteReport(os.Stdout)

	if *reportFile != "" {
		if err := report.SaveReportToFile(fs, *reportFile); err != nil {
			atexit.Fatalf("%v", err)
		}
	}

	if !report.Passed() {
		atexit.Exit(1)
	}

	atexit.Exit(0)
}

func setupLogging() {
	var w io.Writer = os.Stderr

	if *logFile != "" {
		f, err := os.Create(*logFile)
		if err != nil {
			atexit.Fatalf("%v", err)
		}

		atexit.Register(func() { f.Close() })
		w = f
	}

	level := slog.LevelInfo
	if *trace {
		level = dut.LevelTrace
	}

	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}

func loadConfig(fs afero.Fs) config.Config {
	path := *configFile
	if path == "" {
		if ok, _ := afero.Exists(fs, defaultConfigFile); !ok {
			return applyFlags(config.Default())
		}
		path = defaultConfigFile
	}

	cfg, err := config.Load(fs, path)
	if err != nil {
		atexit.Fatalf("%v", err)
	}

	return applyFlags(cfg)
}

func applyFlags(cfg config.Config) config.Config {
	if *scenarios != "" {
		cfg.Scenarios = strings.Split(*scenarios, ",")
	}

	if *parallelism >= 0 {
		cfg.Parallelism = *parallelism
	}

	return cfg
}

// openUnit resolves a unit executable once. A unit that cannot be found is
// a setup error reported before any scenario runs.
func openUnit(
	fs afero.Fs,
	cfg config.Config,
	unit string,
	transcript *dut.Transcript,
) dut.Handle {
	t, err := dut.Resolve(fs, cfg.UnitDir, unit, cfg.Timeout)
	if err != nil {
		atexit.Fatalf("%v", err)
	}

	h := dut.NewCommandHandle(unit, t, cfg.RadixValue())
	h.AcceptHook(dut.LogHook{})
	h.AcceptHook(transcript)

	slog.Info("Unit", "Behavior", "Resolved", "Unit", unit, "Program", t.Program)

	return h
}

func selectScenarios(fs afero.Fs, cfg config.Config) []scenario.Scenario {
	opts, err := cfg.LibraryOptions(fs)
	if err != nil {
		atexit.Fatalf("%v", err)
	}

	lib := scenario.NewLibrary(opts)

	for _, p := range cfg.Scripts {
		s, err := script.Load(fs, cfg.Path(p), opts.Platform)
		if err != nil {
			atexit.Fatalf("%v", err)
		}

		if err := lib.Add(s); err != nil {
			atexit.Fatalf("%v", err)
		}
	}

	selected, err := lib.Select(cfg.Scenarios)
	if err != nil {
		atexit.Fatalf("%v", err)
	}

	return selected
}

// loadPOR reads the power-on-reset specification. A missing file is not an
// error; the oracle then skips POR checks and says so in the report.
func loadPOR(fs afero.Fs, cfg config.Config) (fixture.POR, bool) {
	path := cfg.Path(cfg.Files.POR)
	if path == "" {
		return nil, false
	}

	por, err := fixture.LoadPOR(context.Background(), fs, path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		slog.Warn("POR", "Behavior", "Missing", "File", path)
		return nil, false
	case err != nil:
		atexit.Fatalf("%v", err)
	}

	return por, true
}

func reportStyle() *table.Style {
	style := table.StyleLight
	if term.IsTerminal(int(os.Stdout.Fd())) {
		style = table.StyleColoredDark
	}

	return &style
}

func init() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(),
			"Usage: %s [flags]\n\nRuns the FIR filter verification scenarios.\n\n",
			os.Args[0])
		flag.PrintDefaults()
	}
}
