// Command engram is the CLI for the temporal knowledge graph: guided
// walkthroughs, the HTTP server, and graph maintenance.
package main

import "os"

// version is stamped at build time via ldflags.
var version = "dev"

func main() {
	rootCmd.Version = version
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
