// Copyright 2018 The ZikiChombo Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

package ioadapter

import (
	"fmt"

	"zikichombo.org/sound"
)

// channelMap translates between a sound.Form's host-graph channel indices
// and the possibly-reordered, possibly-partial subset of channels an
// attached sound.Source/sound.Sink exposes, the semantics
// SetInput/AddOutput's cs ...int parameter describes. Unlike a plain
// index-array pair, it keeps the host-side lookup as a map so an
// unmapped host channel has no entry at all rather than relying on a
// sentinel value threaded through every caller.
type channelMap struct {
	extToHost []int       // extToHost[ext] is the host channel external index ext reads/writes
	hostToExt map[int]int // hostToExt[host] is the external index mapped to host channel, if any
}

// newChannelMap builds the mapping for a host graph described by form,
// restricted to the external channel subset named by cs (cs[ext] is the
// host channel external index ext corresponds to). An empty cs maps every
// host channel to itself in order. It is an error for cs to name the same
// host channel twice.
func newChannelMap(form sound.Form, cs ...int) (*channelMap, error) {
	if len(cs) == 0 {
		cs = identityChannels(form.Channels())
	}
	m := &channelMap{
		extToHost: append([]int(nil), cs...),
		hostToExt: make(map[int]int, len(cs)),
	}
	for ext, host := range cs {
		if _, dup := m.hostToExt[host]; dup {
			return nil, fmt.Errorf("ioadapter: host channel %d mapped more than once", host)
		}
		m.hostToExt[host] = ext
	}
	return m, nil
}

func identityChannels(n int) []int {
	ids := make([]int, n)
	for i := range ids {
		ids[i] = i
	}
	return ids
}

// externalOf returns the external channel index reading/writing host
// channel host, or ok == false if host isn't part of this mapping.
func (m *channelMap) externalOf(host int) (ext int, ok bool) {
	ext, ok = m.hostToExt[host]
	return ext, ok
}

// hostOf returns the host channel external index ext corresponds to.
func (m *channelMap) hostOf(ext int) int { return m.extToHost[ext] }

// externalChannels reports how many external channels this mapping
// covers, the size an I/O block's per-frame slice needs.
func (m *channelMap) externalChannels() int { return len(m.extToHost) }
