// Command metastore administers a hierarchical metadata store.
package main

import "github.com/mesh-intelligence/metastore/internal/cli"

func main() {
	cli.Execute()
}
