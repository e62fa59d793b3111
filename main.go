package main

import (
	"context"

	"siap/cmd"
)

func main() {
	cmd.Execute(context.Background())
}
