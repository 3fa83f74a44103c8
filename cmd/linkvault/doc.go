// Package main hosts the linkvault CLI entrypoint and command graph.
//
// The Cobra-based command tree translates terminal invocations into HTTP
// calls against the daemon API: saving links, inspecting posts and their
// media, queue and retry operations, and configuration scaffolding. The heavy
// lifting lives in the internal packages; commands stay declarative and focus
// on rendering.
package main
