// go-sessionmesh runs a node of a serverless multiplayer game session.
package main

import (
	"fmt"
	"os"

	"github.com/spacemeshos/go-sessionmesh/cmd"
	"github.com/spacemeshos/go-sessionmesh/node"
)

var (
	version string
	commit  string
	branch  string
)

func main() { // run the app
	cmd.Version = version
	cmd.Commit = commit
	cmd.Branch = branch
	if err := node.GetCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
