package main

import (
	cmd "github.com/rohmanhakim/status-digest/internal/cli"
)

func main() {
	cmd.Execute()
}
