// Command polystore inserts, queries and searches objects in any database a
// polystore client can attach.
//
//	polystore -d sqlite:///tmp/people.db -c Person insert people.yaml
//	polystore -d sqlite:///tmp/people.db -c Person query -w '{name: John}'
//	polystore -C polystore.yaml -d people search "john smith"
//
// Global flags can also be given as POLYSTORE_* environment variables, for
// example POLYSTORE_DATABASE or POLYSTORE_CONFIG.
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
