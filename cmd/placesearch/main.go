// Command placesearch builds and serves a semantic search index over a
// catalog of places.
//
// Usage:
//
//	placesearch [--config file] <command> [args]
//
// Commands:
//
//	build   - build the index from a JSON file of places
//	sync    - rebuild the index from the configured record store
//	import  - copy a JSON file of places into the record store
//	search  - run a single query and print the hits
//	serve   - serve the HTTP API
//	tui     - interactive terminal search
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
