// Lightpipe - LightRAG Pipeline Adapters for Chat-Completion Hosts
//
// Lightpipe plugs a LightRAG-style retrieval engine into a chat-completion
// host that speaks the "pipelines" contract (startup/shutdown hooks, valve
// updates, inlet/outlet passthrough and a pipe function per request). The
// retrieval engine itself stays external: lightpipe only loads settings from
// the environment, builds or reuses a persisted index on startup, and routes
// each user query to the engine with per-request parameters.
//
// # Quick Start
//
// Install the package:
//
//	go get github.com/aiproductguy/lightpipe
//
// Basic example against a LightRAG server:
//
//	package main
//
//	import (
//		"context"
//		"fmt"
//
//		"github.com/aiproductguy/lightpipe/pipeline"
//	)
//
//	func main() {
//		// ENGINE_URL, OPENAI_API_KEY, WORKING_DIR etc. come from the
//		// environment (or a .env file).
//		p, _ := pipeline.New()
//
//		ctx := context.Background()
//		if err := p.OnStartup(ctx); err != nil {
//			panic(err)
//		}
//		defer p.OnShutdown(ctx)
//
//		stream, _ := p.Pipe(ctx, "What is LightRAG?", "lightrag-hybrid", nil, nil)
//		for chunk := range stream {
//			fmt.Print(chunk)
//		}
//	}
//
// # Packages
//
//   - config: environment-driven settings (the pipeline's valves)
//   - engine: retrieval engine contract plus remote and in-process bindings
//   - fetch: web page fetching with optional HTML-to-text conversion
//   - pipeline: the adapter surface toward the host
//   - log: logging facade
package lightpipe
