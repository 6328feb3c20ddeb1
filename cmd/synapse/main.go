package main

import (
	"context"

	"github.com/FilOzone/synapse-sdk-go/cmd/synapse/cli"
)

func main() {
	cli.ExecuteContext(context.Background())
}
