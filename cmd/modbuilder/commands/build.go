package commands

import (
	"fmt"
	"os"

	"git.home.luguber.info/inful/modbuilder/internal/build"
	"git.home.luguber.info/inful/modbuilder/internal/entity"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Dir         string `arg:"" optional:"" default:"." help:"Project directory (or a directory containing one project)"`
	Target      string `short:"t" help:"Build target: package, print or scan" default:"package"`
	Output      string `short:"o" help:"Output directory (overrides module.yaml output)"`
	Concurrency int    `short:"j" help:"Parallel map and encounter extractions (0 = number of CPUs)"`
	MetricsFile string `name:"metrics-file" help:"Write Prometheus metrics in textfile format to this path"`
}

func (b *BuildCmd) Run(g *Global) error {
	target, err := entity.ParseTarget(b.Target)
	if err != nil {
		return err
	}
	rec, pr := newRecorder(b.MetricsFile != "")
	defer writeMetrics(pr, b.MetricsFile)

	res, err := build.New().WithRecorder(rec).Run(g.ctx(), build.Request{
		Dir:         b.Dir,
		Target:      target,
		OutputDir:   b.Output,
		Concurrency: b.Concurrency,
	})
	if err != nil {
		return err
	}
	printReport(os.Stdout, res)
	if res.Export != nil {
		switch {
		case res.Export.Archive != "":
			fmt.Fprintf(os.Stdout, "Wrote %s\n", res.Export.Archive)
		case res.Export.PrintDir != "":
			fmt.Fprintf(os.Stdout, "Wrote %s\n", res.Export.PrintDir)
		}
	}
	return nil
}
