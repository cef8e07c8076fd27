package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/rs/xid"
	"github.com/spf13/cobra"

	"github.com/sarchlab/pimfuncsim/api"
	"github.com/sarchlab/pimfuncsim/config"
	"github.com/sarchlab/pimfuncsim/controller"
	"github.com/sarchlab/pimfuncsim/core"
	"github.com/sarchlab/pimfuncsim/verify"
	"github.com/sarchlab/pimfuncsim/workload"
)

type runOptions struct {
	configPath string
	workload   string
	channel    int
	seed       uint32
	tracePath  string
	dump       bool
}

var runOpts runOptions

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a workload and check its result.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(runOpts)
	},
}

func init() {
	f := runCmd.Flags()
	f.StringVar(&runOpts.configPath, "config", "", "device configuration file (YAML)")
	f.StringVar(&runOpts.workload, "workload", "scale", "scale, shared or spmv")
	f.IntVar(&runOpts.channel, "channel", 0, "channel the workload runs on")
	f.Uint32Var(&runOpts.seed, "seed", 1, "seed of the input data")
	f.StringVar(&runOpts.tracePath, "trace", "", "write log records to this file")
	f.BoolVar(&runOpts.dump, "dump", false, "print the state of the first unit of the channel")

	rootCmd.AddCommand(runCmd)
}

func loadConfig(path string) (config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}

	return config.Load(path)
}

func run(opts runOptions) error {
	if err := setupLogging(opts.tracePath); err != nil {
		return err
	}

	runID := xid.New().String()

	c, err := loadConfig(opts.configPath)
	if err != nil {
		return err
	}

	if opts.channel < 0 || opts.channel >= c.Channels {
		return fmt.Errorf("channel %d out of range", opts.channel)
	}

	dev := config.NewDeviceBuilder().WithConfig(c).Build(c.Name)
	driver := api.MakeDriverBuilder().
		WithMemorySystem(dev.MemorySystem).
		WithMapping(dev.Mapping).
		Build("Driver")

	w, err := workload.New(opts.workload, dev, opts.channel, opts.seed)
	if err != nil {
		return err
	}

	for _, issue := range verify.RunLint(w.Kernel()) {
		slog.Warn("kernel lint", "workload", w.Name(), "issue", issue.String())
	}

	slog.Info("run started", "run", runID, "workload", w.Name(),
		"channel", opts.channel, "seed", opts.seed)

	if err := w.Run(driver); err != nil {
		return err
	}

	if opts.dump {
		first := opts.channel * c.Topology().Banks() / 2
		fmt.Println(core.RenderState(dev.Controller.Unit(first)))
	}

	printStats(runID, w.Name(), driver, dev)

	if err := w.Check(); err != nil {
		slog.Error("check failed", "run", runID, "err", err)
		return err
	}

	fmt.Println("PASSED")

	return nil
}

func printStats(runID, name string, driver api.Driver, dev *config.Device) {
	ms := dev.MemorySystem.Stats()
	cs := dev.Controller.Stats()

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle(fmt.Sprintf("%s (%s)", name, runID))
	t.AppendHeader(table.Row{"Metric", "Value"})
	t.AppendRows([]table.Row{
		{"Cycles", driver.Cycles()},
		{"Simulated time (s)", float64(dev.MemorySystem.Now())},
		{"Reads", ms.Reads},
		{"Writes", ms.Writes},
	})

	for _, m := range controller.Modes() {
		t.AppendRow(table.Row{"Transactions " + m.String(), cs.Transactions[m]})
	}

	t.AppendRows([]table.Row{
		{"Mode changes", cs.ModeChanges},
		{"Register writes", cs.RegisterWrites},
		{"Unit steps", cs.UnitSteps},
		{"NOP completions", cs.NopCompletions},
		{"EXIT completions", cs.ExitCompletions},
		{"Shared commits", cs.SharedCommits},
		{"Shared matches", cs.SharedMatches},
		{"Global drains", cs.GlobalDrains},
		{"Global results", len(dev.Controller.GlobalResults())},
		{"Queue events", dev.Monitor.Total()},
	})
	t.Render()
}
