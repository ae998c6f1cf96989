// Command youtube-hydrator resolves YouTube video and channel IDs to
// metadata records through a caching, quota-aware pipeline.
package main

import "os"

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
