// schemagraph: ORKG template schema explorer
//
// Loads an ORKG template and every subtemplate reachable through its
// properties, and serves the result to AI tools over MCP, to front ends over
// HTTP, or as one-shot JSON and markdown exports.
//
// Usage:
//
//	schemagraph serve              # Start MCP server (stdio transport)
//	schemagraph http               # Start the HTTP API
//	schemagraph graph R186491      # Print the schema graph
//	schemagraph mapping R186491    # Print the predicate mapping
//	schemagraph prompt R186491     # Print the SPARQL prompt
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/HendryAvila/schemagraph/internal/commands"
)

func main() {
	if err := commands.NewRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
