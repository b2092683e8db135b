package main

import "github.com/cmmoran/gatecp/cmd"

func main() {
	cmd.Execute()
}
