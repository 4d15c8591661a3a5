package main

import "HealthMate/client/health-cli/cmd"

func main() {
	cmd.Execute()
}
