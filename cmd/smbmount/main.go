package main

import (
	"os"

	"github.com/absfs/smbmount/cmd/smbmount/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		commands.PrintErr("Error: %v", err)
		os.Exit(1)
	}
}
