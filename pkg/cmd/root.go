// Package cmd implements the ipbip command-line translator: read an OPB
// formula and a VeriPB proof, drive them through pkg/proof.Manager, and emit
// the trimmed IPBIP grammar.
//
// Grounded on go-corset/pkg/cmd/root.go's rootCmd + flag layout and
// util.go's Get*-flag helpers, generalized from a compiler-toolbox CLI to
// this translator's narrower three-file pipeline.
package cmd

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/kr/pretty"
	"github.com/pkg/profile"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"github.com/rebryant/ipbip/pkg/checker"
	"github.com/rebryant/ipbip/pkg/ipbip"
	"github.com/rebryant/ipbip/pkg/monitor"
	"github.com/rebryant/ipbip/pkg/opb"
	"github.com/rebryant/ipbip/pkg/pbvar"
	"github.com/rebryant/ipbip/pkg/proof"
	"github.com/rebryant/ipbip/pkg/stats"
	"github.com/rebryant/ipbip/pkg/veripb"
)

// Version is filled when building with make, but *not* when installing via
// "go install" (go-corset/pkg/cmd/root.go's own convention).
var Version string

var rootCmd = &cobra.Command{
	Use:   "ipbip",
	Short: "Translate an OPB formula and VeriPB proof into the IPBIP format.",
	Long: `ipbip reads a pseudo-Boolean formula (OPB) and its VeriPB proof,
re-derives every clause's propagation hints, trims unreachable clauses, and
writes the annotated IPBIP intermediate proof a downstream LRAT checker
consumes.`,
	Run: runTranslate,
}

// Execute adds all child commands to the root command and runs it. Called
// once from cmd/ipbip/main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().Bool("version", false, "report the version of this executable")
	rootCmd.Flags().StringP("formula", "f", "", "path to the OPB formula file (required)")
	rootCmd.Flags().StringP("proof", "p", "", "path to the VeriPB proof file (required)")
	rootCmd.Flags().StringP("output", "i", "", "path to write the IPBIP proof to (default: stdout)")
	rootCmd.Flags().CountP("verbose", "v", "increase logging verbosity (-v, -vv)")
	rootCmd.Flags().Bool("profile", false, "write a pprof CPU profile of this run")
	rootCmd.Flags().String("monitor", "", "address (e.g. :8787) to serve live progress over websocket")
	rootCmd.Flags().String("stats-db", "", "path to a SQLite database to record run statistics into")
	rootCmd.Flags().Bool("check", false, "re-validate the emitted IPBIP with pkg/checker before exiting")
}

func runTranslate(cmd *cobra.Command, _ []string) {
	if GetFlag(cmd, "version") {
		printVersion()
		return
	}

	formula := GetString(cmd, "formula")
	proofPath := GetString(cmd, "proof")

	if formula == "" || proofPath == "" {
		fmt.Println(cmd.UsageString())
		os.Exit(1)
	}

	verbosity := GetCount(cmd, "verbose")
	configureLogging(verbosity)

	runID := uuid.NewString()
	logger := log.WithField("run_id", runID)

	if GetFlag(cmd, "profile") {
		defer profile.Start(profile.CPUProfile).Stop()
	}

	output := GetString(cmd, "output")
	if err := preflight(formula, proofPath, output); err != nil {
		logger.Error(diagnose(err))
		os.Exit(exitCodeFor(err))
	}

	var mon *monitor.Server

	if addr := GetString(cmd, "monitor"); addr != "" {
		m, err := monitor.Listen(addr)
		if err != nil {
			logger.Error(diagnose(err))
			os.Exit(5)
		}

		mon = m
		defer mon.Close()

		logger.Infof("serving live progress on %s", addr)
	}

	start := time.Now()

	run, err := translate(formula, proofPath, output, verbosity, mon, logger)

	elapsed := time.Since(start)

	if err != nil {
		logger.Error(diagnose(err))

		if db := GetString(cmd, "stats-db"); db != "" {
			run.Err = err.Error()
			recordStats(db, formula, proofPath, run, elapsed, logger)
		}

		os.Exit(exitCodeFor(err))
	}

	logger.Infof("%s", stats.Summary(statsFromRun(run, elapsed)))

	if db := GetString(cmd, "stats-db"); db != "" {
		recordStats(db, formula, proofPath, run, elapsed, logger)
	}
}

func printVersion() {
	fmt.Print("ipbip ")

	if Version != "" {
		fmt.Print(Version)
	} else {
		fmt.Print("(unknown version)")
	}

	fmt.Println()
}

func configureLogging(verbosity int) {
	switch {
	case verbosity >= 2:
		log.SetLevel(log.TraceLevel)
	case verbosity == 1:
		log.SetLevel(log.DebugLevel)
	default:
		log.SetLevel(log.InfoLevel)
	}
}

// preflight checks existence/readability of the formula and proof files and
// that the output directory exists and is a directory (its writability is
// not checked), concurrently before the (strictly
// single-threaded, SPEC_FULL.md §5) core starts — grounded on sentra's use
// of golang.org/x/sync/errgroup for concurrent independent checks.
func preflight(formula, proofPath, output string) error {
	g, _ := errgroup.WithContext(context.Background())

	g.Go(func() error { return checkReadable(formula) })
	g.Go(func() error { return checkReadable(proofPath) })

	if output != "" {
		g.Go(func() error { return checkWritableDir(filepath.Dir(output)) })
	}

	return g.Wait()
}

func checkReadable(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: cannot read %s: %v", proof.ErrMalformedInput, path, err)
	}

	return f.Close()
}

func checkWritableDir(dir string) error {
	if dir == "" {
		dir = "."
	}

	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("%w: output directory %s: %v", proof.ErrMalformedInput, dir, err)
	}

	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", proof.ErrMalformedInput, dir)
	}

	return nil
}

// runSummary is this run's outcome, handed to both the summary log line
// and the optional pkg/stats recorder.
type runSummary struct {
	InputClauses      int
	DerivedClauses    int
	TrimmedClauses    int
	PropagationRounds int
	OutputBytes       int64
	Err               string
}

func translate(formulaPath, proofPath, output string, verbosity int, mon *monitor.Server, logger *log.Entry) (runSummary, error) {
	var summary runSummary

	formulaFile, err := os.Open(formulaPath)
	if err != nil {
		return summary, fmt.Errorf("%w: %v", proof.ErrMalformedInput, err)
	}
	defer formulaFile.Close()

	vars := pbvar.NewManager()
	mgr := proof.NewManager(vars)

	if err := opb.Load(formulaFile, mgr); err != nil {
		return summary, err
	}

	publish(mon, monitor.Event{Phase: "formula", Clauses: vars.Len()})

	proofFile, err := os.Open(proofPath)
	if err != nil {
		return summary, fmt.Errorf("%w: %v", proof.ErrMalformedInput, err)
	}
	defer proofFile.Close()

	if err := veripb.Load(proofFile, mgr); err != nil {
		return summary, err
	}

	publish(mon, monitor.Event{Phase: "derive", Message: "proof consumed"})

	trimmed, err := mgr.Trim()
	if err != nil {
		return summary, err
	}

	summary.TrimmedClauses = len(trimmed)

	for _, tc := range trimmed {
		switch tc.Kind {
		case proof.KindInput:
			summary.InputClauses++
		default:
			summary.DerivedClauses++
		}
	}

	publish(mon, monitor.Event{Phase: "trim", Clauses: len(trimmed)})

	out, closeOut, err := openOutput(output)
	if err != nil {
		return summary, err
	}
	defer closeOut()

	counter := &byteCounter{w: out}
	if err := ipbip.Write(counter, vars, trimmed); err != nil {
		return summary, err
	}

	summary.OutputBytes = counter.n

	if verbosity >= 2 {
		logger.Tracef("trimmed constraints:\n%# v", pretty.Formatter(trimmed))
	}

	if GetFlag(rootCmd, "check") {
		if err := runCheck(formulaPath, trimmed, vars, logger); err != nil {
			return summary, err
		}
	}

	printProgressLine(verbosity, summary)

	return summary, nil
}

// runCheck round-trips the just-written IPBIP through pkg/ipbip.ParseDocument
// and pkg/checker.Check, recovering pbip-check.cpp's self-validation step as
// an opt-in flag (SPEC_FULL.md §6.5) rather than a separate binary.
func runCheck(formulaPath string, trimmed []proof.TrimmedConstraint, vars *pbvar.Manager, logger *log.Entry) error {
	var buf bytes.Buffer

	if err := ipbip.Write(&buf, vars, trimmed); err != nil {
		return err
	}

	lines, err := ipbip.ParseDocument(&buf, vars)
	if err != nil {
		return fmt.Errorf("%w: self-check reparse: %v", proof.ErrInternalInvariantViolation, err)
	}

	results := checker.Check(lines)
	if !checker.AllOK(results) {
		for _, r := range results {
			if !r.OK {
				logger.Errorf("check: line %d (%c): %s", r.Line, r.Kind, r.Reason)
			}
		}

		return fmt.Errorf("%w: %s failed self-check", proof.ErrInternalInvariantViolation, formulaPath)
	}

	logger.Info("self-check passed")

	return nil
}

func printProgressLine(verbosity int, summary runSummary) {
	if verbosity < 1 {
		return
	}

	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		width = 80
	}

	line := fmt.Sprintf("input=%d derived=%d trimmed=%d", summary.InputClauses, summary.DerivedClauses, summary.TrimmedClauses)
	if len(line) > width {
		line = line[:width]
	}

	fmt.Println(line)
}

func publish(mon *monitor.Server, event monitor.Event) {
	if mon != nil {
		mon.Publish(event)
	}
}

func statsFromRun(run runSummary, elapsed time.Duration) stats.Run {
	return stats.Run{
		InputClauses:      run.InputClauses,
		DerivedClauses:    run.DerivedClauses,
		TrimmedClauses:    run.TrimmedClauses,
		PropagationRounds: run.PropagationRounds,
		Elapsed:           elapsed,
		OutputBytes:       run.OutputBytes,
	}
}

func recordStats(dbPath, formula, proofPath string, run runSummary, elapsed time.Duration, logger *log.Entry) {
	rec, err := stats.Open(dbPath)
	if err != nil {
		logger.Error(diagnose(err))
		return
	}
	defer rec.Close()

	s := statsFromRun(run, elapsed)
	s.RunID, _ = logger.Data["run_id"].(string)
	s.Formula = formula
	s.Proof = proofPath
	s.Err = run.Err

	if err := rec.Record(s); err != nil {
		logger.Error(diagnose(err))
	}
}

// diagnose renders err with a color matching its SPEC_FULL.md §7 error
// class, grounded on kanso-lang-kanso's color.Red/color.Green diagnostics.
func diagnose(err error) string {
	return color.RedString("%v", err)
}

// exitCodeFor maps each sentinel error class (SPEC_FULL.md §7) to a distinct
// process exit code, in the spirit of go-corset/pkg/cmd/util.go's
// os.Exit(2..4) convention for flag-plumbing errors.
func exitCodeFor(err error) int {
	switch {
	case errorsIs(err, proof.ErrMalformedInput):
		return 2
	case errorsIs(err, proof.ErrUnsupportedConstruct):
		return 3
	case errorsIs(err, proof.ErrRUPFailure):
		return 4
	case errorsIs(err, proof.ErrInternalInvariantViolation):
		return 5
	default:
		return 1
	}
}
