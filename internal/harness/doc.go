// Package harness provides a scenario testing framework for the crosslink
// propagation engine.
//
// Scenarios are YAML files that declare linkage groups (inline or via CUE
// files), a sequence of interaction events with millisecond offsets, and
// assertions over the resulting updates and errors. The harness runs each
// scenario against a real engine instance: updates in a trace come from
// actual Propagate calls, never from the scenario's expectations.
//
// Determinism: scenarios run on a fake clock pinned to the event offsets
// and a sequential group ID generator, so repeated runs produce
// byte-identical traces. That makes golden-file comparison meaningful -
// see RunWithGolden.
package harness
