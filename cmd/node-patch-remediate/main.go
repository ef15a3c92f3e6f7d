package main

import "github.com/oshokin/node-patcher/cmd/node-patch-remediate/cmd"

func main() {
	cmd.Execute()
}
