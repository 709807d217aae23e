// Copyright 2018 The ZikiChomgo Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

// Package core implements a realtime, per-sample data-flow graph of
// signal-processing nodes connected by typed Stream, Value, and Event
// endpoints.
//
// A Graph is built by adding Nodes and Connecting their endpoints, then
// stepped one sample at a time with Process. Process rebuilds a
// topological schedule whenever the wiring changes, evaluating nodes in
// dependency order every sample; cycles are permitted only where a
// feedback-permitting node (Delay) sits on them. A SubGraph is not
// feedback-permitting, even when its inner graph contains a Delay.
package core
