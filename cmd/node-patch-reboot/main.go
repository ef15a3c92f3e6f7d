package main

import "github.com/oshokin/node-patcher/cmd/node-patch-reboot/cmd"

func main() {
	cmd.Execute()
}
