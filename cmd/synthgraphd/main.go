// Copyright 2018 The ZikiChomgo Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

// synthgraphd is a demo host harness: it assembles a small gain+feedback
// delay graph from flags using package decl, runs it for a fixed number
// of samples, and prints the output stream plus a one-line construction
// log. It exists to exercise the core/decl/ioadapter stack end to
// end outside of tests, not as part of any package's public contract.
package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/synthgraph/core"
	"github.com/synthgraph/core/decl"
)

var (
	sampleRate   float64
	gain         float64
	feedback     float64
	delaySeconds float64
	frames       int
	impulseAt    int
	verbose      bool
)

var rootCmd = &cobra.Command{
	Use:   "synthgraphd",
	Short: "Run a toy gain+feedback-delay synth graph and print its output",
	Long: `synthgraphd builds a four-node graph (input gain -> sum -> feedback
gain -> delay -> back into sum) using package decl and steps it sample by sample, printing one line per
sample. It is a demonstration harness for the synthgraph core, not a
synthesizer.`,
	RunE: run,
}

func init() {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	rootCmd.Flags().Float64Var(&sampleRate, "sample-rate", 48000, "Graph sample rate in Hz")
	rootCmd.Flags().Float64Var(&gain, "gain", 1.0, "Input gain applied before the feedback path")
	rootCmd.Flags().Float64Var(&feedback, "feedback", 0.25, "Feedback coefficient (0 disables feedback)")
	rootCmd.Flags().Float64Var(&delaySeconds, "delay", 0.001, "Feedback delay length in seconds")
	rootCmd.Flags().IntVar(&frames, "frames", 32, "Number of samples to run")
	rootCmd.Flags().IntVar(&impulseAt, "impulse-at", 0, "Sample index of a unit impulse input; every other sample is 0")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug-level logging")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	if verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	if frames < 1 {
		return fmt.Errorf("synthgraphd: --frames must be >= 1")
	}

	b := decl.New(sampleRate)
	b.Add("input", core.NewTransform(func(x float64) float64 { return x * gain }))
	b.Add("sum", core.Add(2))
	b.Add("fbGain", core.NewTransform(func(x float64) float64 { return x * feedback }))
	b.Add("delay", core.NewDelay(delaySeconds))
	b.Wire(decl.P("input", "out"), decl.P("sum", "in"))
	b.Wire(decl.P("delay", "out"), decl.P("sum", "in"))
	b.Wire(decl.P("sum", "out"), decl.P("fbGain", "in"))
	b.Wire(decl.P("fbGain", "out"), decl.P("delay", "in"))

	g, handles, err := b.Build()
	if err != nil {
		return fmt.Errorf("synthgraphd: build graph: %w", err)
	}
	log.Info().
		Str("graph", g.ID.String()).
		Float64("sample_rate", sampleRate).
		Float64("gain", gain).
		Float64("feedback", feedback).
		Float64("delay_seconds", delaySeconds).
		Msg("graph built")

	inputH := handles["input"]
	sumH := handles["sum"]

	in0, err := sumH.StreamIn(0).At(g, 0)
	if err != nil {
		return fmt.Errorf("synthgraphd: resolve sum input 0: %w", err)
	}
	if err := g.Connect(inputH.StreamOut(0), in0); err != nil {
		return fmt.Errorf("synthgraphd: wire input into sum: %w", err)
	}

	src := &impulseSource{impulseAt: impulseAt}
	srcH := g.AddNode(src)
	if err := g.Connect(srcH.StreamOut(0), inputH.StreamIn(0)); err != nil {
		return fmt.Errorf("synthgraphd: wire source into input gain: %w", err)
	}

	for i := 0; i < frames; i++ {
		src.frame = i
		if err := g.Process(); err != nil {
			return fmt.Errorf("synthgraphd: process sample %d: %w", i, err)
		}
		out, err := g.PeekStream(sumH.StreamOut(1))
		if err != nil {
			return fmt.Errorf("synthgraphd: read sample %d: %w", i, err)
		}
		fmt.Printf("%4d %+.6f\n", i, out)
	}

	overflow := core.EventOverflowCount()
	log.Debug().Uint64("event_overflows", overflow).Msg("run complete")
	return nil
}

// impulseSource emits a unit impulse at a fixed sample index, the simplest
// possible host-fed input for the demo harness.
type impulseSource struct {
	impulseAt int
	frame     int
}

func (s *impulseSource) Descriptors() []core.EndpointDescriptor {
	return []core.EndpointDescriptor{core.NewEndpointDescriptor("out", core.Stream, core.Out)}
}

func (s *impulseSource) Init(float64) {}

func (s *impulseSource) Process(ctx *core.ProcessContext) error {
	if s.frame == s.impulseAt {
		ctx.SetStreamOut(0, 1)
	} else {
		ctx.SetStreamOut(0, 0)
	}
	return nil
}
