// Package filterplay compiles image kernels and reports their diagnostics.
//
// # Overview
//
// An editor hands kernel source to a [Pipeline]. The pipeline runs the
// kernel's toolchain and turns the outcome into a [diag.Result]: a compiled
// kernel plus warnings, or a list of line/column addressed errors parsed from
// the toolchain transcript.
//
// A [Session] wraps a pipeline for interactive use. Every edit runs on a
// single writer goroutine, and the renderer reads immutable [Snapshot]s
// without locking.
//
// # Quick Start
//
//	k, _ := kernel.New(kernel.TypeColor)
//	p := filterplay.NewPipeline(k)
//	r := p.Compile(kernel.InitialSource(k, "untitled", "    "))
//	for _, e := range r.Diagnostics() {
//	    fmt.Println(e)
//	}
//
// # Packages
//
//   - argument: kernel argument types, values and lists
//   - diag: diagnostics and the transcript parser
//   - kernel: the kernel contract and its color, warp and compute backends
//   - binding: time, touch and camera data bindings
//   - project: on-disk project container
package filterplay

// Version is the current version of the library.
const Version = "0.1.0"
