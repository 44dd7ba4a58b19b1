// Command faqbot is the entry point for the FAQ answer bot.
// It indexes FAQ datasets into a vector store and answers questions against
// them, via an interactive CLI chat or an HTTP API.
package main

import (
	"fmt"
	"os"

	"github.com/faqops/faqbot-go/cmd/faqbot/commands"
)

func main() {
	if err := commands.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
