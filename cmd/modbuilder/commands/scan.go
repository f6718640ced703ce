package commands

import (
	"os"

	"git.home.luguber.info/inful/modbuilder/internal/build"
	"git.home.luguber.info/inful/modbuilder/internal/entity"
)

// ScanCmd implements the 'scan' command. Invalid entity blocks are reported
// instead of failing the build.
type ScanCmd struct {
	Dir         string `arg:"" optional:"" default:"." help:"Project directory"`
	MetricsFile string `name:"metrics-file" help:"Write Prometheus metrics in textfile format to this path"`
}

func (s *ScanCmd) Run(g *Global) error {
	rec, pr := newRecorder(s.MetricsFile != "")
	defer writeMetrics(pr, s.MetricsFile)

	res, err := build.New().WithRecorder(rec).Run(g.ctx(), build.Request{Dir: s.Dir, Target: entity.TargetScan})
	if err != nil {
		return err
	}
	printReport(os.Stdout, res)
	return nil
}
