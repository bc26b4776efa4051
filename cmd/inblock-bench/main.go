// inblock-bench runs a vector push-back workload on an inblock arena and
// prints the resulting allocator statistics.
package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/pavanmanishd/inblock"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
)

var (
	ArenaFlag = &cli.IntFlag{
		Name:  "arena",
		Value: 8 << 20,
		Usage: "arena size in bytes",
	}
	RepsFlag = &cli.IntFlag{
		Name:  "reps",
		Value: 100,
		Usage: "number of times the vector is rebuilt",
	}
	ElementsFlag = &cli.IntFlag{
		Name:  "elements",
		Value: 100000,
		Usage: "elements pushed per repetition",
	}
	ConfigFlag = &cli.StringFlag{
		Name:  "config",
		Usage: "allocator configuration file",
	}
	VerifyFlag = &cli.BoolFlag{
		Name:  "verify",
		Usage: "check the arena bookkeeping after every repetition",
	}
	LogLevelFlag = &cli.StringFlag{
		Name:  "log-level",
		Value: "INFO",
		Usage: "log level (DEBUG, INFO, WARN, ERROR)",
	}
	LogFormatFlag = &cli.StringFlag{
		Name:  "log-format",
		Value: "text",
		Usage: "log format (text, json)",
	}
)

var app = &cli.App{
	Name:   "inblock-bench",
	Usage:  "exercise the in-block allocator with a growing vector",
	Flags:  []cli.Flag{ArenaFlag, RepsFlag, ElementsFlag, ConfigFlag, VerifyFlag, LogLevelFlag, LogFormatFlag},
	Action: run,
}

func main() {
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx *cli.Context) error {
	cfg, err := inblock.LoadConfig(ctx.String(ConfigFlag.Name), "INBLOCK")
	if err != nil {
		return err
	}
	if ctx.IsSet(LogLevelFlag.Name) {
		cfg.Log.Level = ctx.String(LogLevelFlag.Name)
	}
	if ctx.IsSet(LogFormatFlag.Name) {
		cfg.Log.Format = ctx.String(LogFormatFlag.Name)
	}
	opts, err := cfg.Options()
	if err != nil {
		return err
	}
	logger := inblock.NewLogger(cfg.Log, os.Stderr)
	opts = append(opts, inblock.WithLogger(logger))

	a, err := inblock.Bind(make([]byte, ctx.Int(ArenaFlag.Name)), opts...)
	if err != nil {
		return err
	}
	defer a.Release()
	al := inblock.NewAllocator[int](a)
	defer al.Release()

	reps, elements := ctx.Int(RepsFlag.Name), ctx.Int(ElementsFlag.Name)
	start := time.Now()
	for rep := 0; rep < reps; rep++ {
		v := inblock.NewVector(al)
		for i := 0; i < elements; i++ {
			if err := v.Push(i); err != nil {
				return errors.Wrapf(err, "rep %d, element %d", rep, i)
			}
		}
		if elements > 0 && v.At(rep%elements) != rep%elements {
			return errors.Errorf("rep %d: vector content corrupted", rep)
		}
		if err := v.Free(); err != nil {
			return err
		}
		if ctx.Bool(VerifyFlag.Name) {
			if err := a.Verify(); err != nil {
				return errors.Wrapf(err, "rep %d", rep)
			}
		}
	}
	elapsed := time.Since(start)
	logger.Info("Workload finished", "reps", reps, "elements", elements, "elapsed", elapsed)

	printMetrics(a.Metrics())
	return nil
}

func printMetrics(m inblock.Metrics) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Metric", "Value"})
	table.SetAlignment(tablewriter.ALIGN_LEFT)

	rows := [][2]string{
		{"arena size", strconv.Itoa(m.Size)},
		{"covered", strconv.Itoa(m.CoveredSize)},
		{"chunks", strconv.Itoa(m.Chunks)},
		{"used chunks", strconv.Itoa(m.UsedChunks)},
		{"free chunks", strconv.Itoa(m.FreeChunks)},
		{"free bytes", strconv.Itoa(m.FreeBytes)},
		{"largest free", strconv.Itoa(m.LargestFree)},
		{"large bin chunks", strconv.Itoa(m.LargeBinChunks)},
		{"allocations", strconv.FormatUint(m.Allocations, 10)},
		{"deallocations", strconv.FormatUint(m.Deallocations, 10)},
		{"consolidations", strconv.FormatUint(m.Consolidations, 10)},
		{"refills", strconv.FormatUint(m.Refills, 10)},
		{"failures", strconv.FormatUint(m.Failures, 10)},
	}
	for _, b := range m.SmallBins {
		rows = append(rows, [2]string{fmt.Sprintf("small bin %d", b.ChunkSize), strconv.Itoa(b.Chunks)})
	}
	for _, r := range rows {
		table.Append(r[:])
	}
	table.Render()
}
