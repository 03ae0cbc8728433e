package main

import (
	"context"

	"equipment-manager/cmd"
)

func main() {
	cmd.Execute(context.Background())
}
