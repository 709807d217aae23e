// Copyright 2018 The ZikiChombo Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

// Package ioadapter bridges a core.Graph to zikichombo.org/sound's
// multi-channel, block-oriented host I/O world: the io-tier half of
// zikichombo-plug (io.go, packet.go, cmap.go), carried over and rebuilt
// around a per-sample graph instead of a per-block Processor.
//
// core.Graph steps one sample at a time; sound.Source/sound.Sink move
// whole blocks of channel-planar samples. Adapter is the seam: it pulls
// one block from a sound.Source, steps the graph once per frame in the
// block (writing each frame's per-channel values into a HostSource node
// and reading the previous Process's results back out of a HostSink
// node), and pushes the resulting block to every attached sound.Sink.
// Channel subsetting/reordering between the host graph's channel count
// and an attached endpoint's channel count goes through channelMap
// (cmap.go), a map-based reworking of the teacher's cmap.go index-array
// pair.
package ioadapter

import (
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/synthgraph/core"
	"zikichombo.org/sound"
)

// defaultBlockFrames is used when Adapter is built with blockFrames <= 0.
const defaultBlockFrames = 512

// HostSource is the node a host-attached sound.Source writes into: an
// array-arity stream output, one element per host-side input channel.
// Adapter.Run calls setFrame once per sample before stepping the graph;
// nothing else should write into it.
type HostSource struct {
	n     int
	frame []float64
}

// NewHostSource declares a host input with the given channel count.
func NewHostSource(channels int) *HostSource {
	return &HostSource{n: channels, frame: make([]float64, channels)}
}

func (h *HostSource) Descriptors() []core.EndpointDescriptor {
	return []core.EndpointDescriptor{core.NewArrayEndpointDescriptor("out", core.Stream, core.Out, h.n)}
}

func (h *HostSource) Init(float64) {}

func (h *HostSource) Process(ctx *core.ProcessContext) error {
	for c := 0; c < h.n; c++ {
		ctx.SetStreamOutAt(0, c, h.frame[c])
	}
	return nil
}

func (h *HostSource) setFrame(vals []float64) { copy(h.frame, vals) }

// HostSink is the node a host-attached sound.Sink reads from: an
// array-arity stream input, one element per host-side output channel.
// Adapter.Run reads frame back out after each Process call.
type HostSink struct {
	n     int
	frame []float64
}

// NewHostSink declares a host output with the given channel count.
func NewHostSink(channels int) *HostSink {
	return &HostSink{n: channels, frame: make([]float64, channels)}
}

func (h *HostSink) Descriptors() []core.EndpointDescriptor {
	return []core.EndpointDescriptor{core.NewArrayEndpointDescriptor("in", core.Stream, core.In, h.n)}
}

func (h *HostSink) Init(float64) {}

func (h *HostSink) Process(ctx *core.ProcessContext) error {
	for c := 0; c < h.n; c++ {
		h.frame[c] = ctx.StreamInAt(0, c)
	}
	return nil
}

type sinkBinding struct {
	snk sound.Sink
	m   *channelMap
}

// Adapter couples a core.Graph's host-facing HostSource/HostSink nodes to
// zero-or-more sound.Source/sound.Sink endpoints, the Go stand-in for
// zikichombo-plug's IO.SetInput/AddOutput pair, generalized from one
// fixed Processor callback to an arbitrary per-sample graph.
type Adapter struct {
	g           *core.Graph
	iForm, oForm sound.Form
	src         *HostSource
	snk         *HostSink
	source      sound.Source
	sourceMap   *channelMap
	sinks       []sinkBinding
	blockFrames int
	log         zerolog.Logger
}

// NewAdapter adds a HostSource and a HostSink node to g, sized from
// iForm/oForm's channel counts, and returns the Adapter along with both
// nodes' Handles so the caller can wire them into the rest of the graph
// exactly like any other node (core.Graph.Connect).
func NewAdapter(g *core.Graph, iForm, oForm sound.Form, blockFrames int) (*Adapter, core.Handle, core.Handle) {
	if blockFrames <= 0 {
		blockFrames = defaultBlockFrames
	}
	src := NewHostSource(iForm.Channels())
	snk := NewHostSink(oForm.Channels())
	srcH := g.AddNode(src)
	snkH := g.AddNode(snk)
	a := &Adapter{
		g:           g,
		iForm:       iForm,
		oForm:       oForm,
		src:         src,
		snk:         snk,
		blockFrames: blockFrames,
		log:         log.With().Str("component", "ioadapter").Logger(),
	}
	return a, srcH, snkH
}

// SetInput attaches s as the adapter's sole input source. If cs is empty,
// s's channels map one-to-one onto the host input channels; if cs is not
// empty, cs[i] names the host input channel corresponding to s's i'th
// channel, mirroring plug.IO.SetInput's cs semantics exactly.
func (a *Adapter) SetInput(s sound.Source, cs ...int) error {
	for _, c := range cs {
		if c < 0 || c >= a.iForm.Channels() {
			return fmt.Errorf("ioadapter: channel %d out of range for input form with %d channels", c, a.iForm.Channels())
		}
	}
	m, err := newChannelMap(a.iForm, cs...)
	if err != nil {
		return err
	}
	a.source = s
	a.sourceMap = m
	return nil
}

// AddOutput attaches d as an additional output sink, with the same cs
// remapping semantics as SetInput. Every attached sink receives a copy of
// the host output block each Run iteration.
func (a *Adapter) AddOutput(d sound.Sink, cs ...int) error {
	for _, c := range cs {
		if c < 0 || c >= a.oForm.Channels() {
			return fmt.Errorf("ioadapter: channel %d out of range for output form with %d channels", c, a.oForm.Channels())
		}
	}
	m, err := newChannelMap(a.oForm, cs...)
	if err != nil {
		return err
	}
	a.sinks = append(a.sinks, sinkBinding{snk: d, m: m})
	return nil
}

// Run pulls blocks from the attached source, steps the graph one sample
// at a time for every frame in a block, and pushes the resulting block to
// every attached sink. It blocks until the source returns io.EOF (treated
// as a clean finish) or a non-EOF error occurs.
func (a *Adapter) Run() error {
	if a.source == nil {
		return fmt.Errorf("ioadapter: Run called with no input set")
	}
	hostInC := a.iForm.Channels()
	hostOutC := a.oForm.Channels()
	extInC := a.sourceMap.externalChannels()

	inBuf := make([]float64, extInC*a.blockFrames)
	frameIn := make([]float64, hostInC)
	frameOut := make([]float64, hostOutC)
	outBufs := make([][]float64, len(a.sinks))
	for i, sb := range a.sinks {
		outBufs[i] = make([]float64, sb.m.externalChannels()*a.blockFrames)
	}

	for {
		n, recvErr := a.source.Receive(inBuf)
		if n > 0 {
			for f := 0; f < n; f++ {
				for c := 0; c < hostInC; c++ {
					ext, ok := a.sourceMap.externalOf(c)
					if !ok {
						frameIn[c] = 0
						continue
					}
					frameIn[c] = inBuf[ext*n+f]
				}
				a.src.setFrame(frameIn)
				if err := a.g.Process(); err != nil {
					return fmt.Errorf("ioadapter: graph process: %w", err)
				}
				copy(frameOut, a.snk.frame)
				for si, sb := range a.sinks {
					buf := outBufs[si]
					for ext := 0; ext < sb.m.externalChannels(); ext++ {
						buf[ext*n+f] = frameOut[sb.m.hostOf(ext)]
					}
				}
			}
			for si, sb := range a.sinks {
				if err := sb.snk.Send(outBufs[si][:sb.m.externalChannels()*n]); err != nil {
					return fmt.Errorf("ioadapter: sink send: %w", err)
				}
			}
		}
		if recvErr != nil {
			if recvErr == io.EOF {
				a.log.Debug().Msg("input source reached EOF")
				return nil
			}
			return fmt.Errorf("ioadapter: receive: %w", recvErr)
		}
	}
}
