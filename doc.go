/*
Package escrituras is a guided interview engine for assembling property
deeds. It walks an operator through a declarative step graph, collecting
the deal's parties, supporting certificates, and payment terms, and keeps
every collected fact in a persistable session snapshot.

The interview is a deterministic state machine: each step either asks a
closed-option question, accepts free text, or requests a document upload
whose fields are extracted by an external gateway and merged into the
session. Transitions are literal matches on the response, fixed at build
time and checked exhaustively, so a session can never be stranded by an
answer the graph does not route.

# Architecture

The core is decoupled from its adapters. Session persistence (in-memory or
Redis), the extraction gateway client, and the HTTP surface all sit behind
small interfaces in pkg/ports, so the engine can be embedded in any host.

# Usage

	package main

	import (
		"context"
		"log"
		"net/http"

		escrituras "github.com/LACSistemas/EscriturasNew"
		"github.com/LACSistemas/EscriturasNew/pkg/adapters/extraction"
		"github.com/LACSistemas/EscriturasNew/pkg/engine"
	)

	func main() {
		interview, err := escrituras.New(
			escrituras.WithExtractor(extraction.NewClient("http://extractor:9000/extract")),
			escrituras.WithMetrics(),
		)
		if err != nil {
			log.Fatal(err)
		}

		// Drive a session programmatically...
		ctx := context.Background()
		outcome, err := interview.Start(ctx, "session-123")
		if err != nil {
			log.Fatal(err)
		}
		log.Println("first question:", outcome.Prompt.Question)

		outcome, err = interview.Submit(ctx, "session-123", engine.Response{
			Sequence: outcome.Sequence,
			Answer:   "lot",
		})
		if err != nil {
			log.Fatal(err)
		}

		// ...or serve the whole interview over HTTP.
		log.Fatal(http.ListenAndServe(":8080", interview.Handler()))
	}
*/
package escrituras
