package runctx

import (
	"time"

	"github.com/rohmanhakim/status-digest/internal/metadata"
	"github.com/rohmanhakim/status-digest/pkg/timeutil"
)

/*
Responsibilities
- Carry per-run state explicitly through the pipeline
- Replace ambient process environment as a source of configuration

A RunContext is constructed once by the command layer and passed by value
into extractors, normalizers and sinks. Nothing mutates it after
construction except SetVendor, which returns a copy.

Rules:
- No package may read environment variables for run state.
- The capture directory and the current vendor travel here, not in globals.
*/
type RunContext struct {
	OutDir      string
	CaptureMode bool
	Vendor      string
	Now         time.Time
	Sink        metadata.MetadataSink
}

// New builds a RunContext with the clock pinned to the current UTC minute.
// A nil sink is replaced with a NoopSink so callers never nil-check.
func New(outDir string, captureMode bool, sink metadata.MetadataSink) RunContext {
	if sink == nil {
		sink = &metadata.NoopSink{}
	}
	return RunContext{
		OutDir:      outDir,
		CaptureMode: captureMode,
		Now:         timeutil.NowUTC(),
		Sink:        sink,
	}
}

// SetVendor returns a copy of the context scoped to one vendor.
func (rc RunContext) SetVendor(vendor string) RunContext {
	rc.Vendor = vendor
	return rc
}
