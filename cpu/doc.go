// Package cpu implements the virtual real-mode processor state used by
// statically translated x86 programs.
//
// The processor state consists of a register file (Registers) whose
// flags are derived lazily from two retained result words, a bounded
// type-tagged virtual stack (Stack) that mirrors the guest's call and data
// stack, and a segment cache (SegmentCache) that maps the segment registers
// to 64KB windows of host memory.
//
// Invariant violations detected here are translation or runtime bugs, not
// guest errors, and are raised with Fatal.
package cpu
