package main

import (
	"context"
	"vigil-backend/cmd/vigil-cli/commands"
)

func main() {
	commands.ExecuteContext(context.Background())
}
