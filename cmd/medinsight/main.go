// Command medinsight manages the MedInsight activity ledger.
package main

import (
	"context"
	"os"

	"github.com/roach88/medinsight/internal/cli"
)

func main() {
	os.Exit(cli.Execute(context.Background(), cli.NewRootCommand(), os.Stderr))
}
