package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/msig-dev/msig/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const banner = `
  ┌┬┐┌─┐┬┌─┐
  │││└─┐││ ┬
  ┴ ┴└─┘┴└─┘
`

func main() {
	if err := rootCmd().Execute(); err != nil {
		errors.Fprint(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "msig",
		Short: "Fine-grained reactive signals for Go",
		Long: `msig is a fine-grained reactive state library for Go.

Signals hold values, effects re-run when the signals they read
change, memos cache derived values, and resources bind async
fetches to the graph. This tool serves a live demo graph over
HTTP and WebSocket, or walks through it in the terminal.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		serveCmd(),
		demoCmd(),
		versionCmd(),
	)
	return root
}

// printBanner prints the msig ASCII art banner.
func printBanner() {
	fmt.Print(banner)
}

// success prints a success message.
func success(format string, args ...any) {
	fmt.Printf("\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(format string, args ...any) {
	fmt.Printf("  %s\n", fmt.Sprintf(format, args...))
}

// warn prints a warning message.
func warn(format string, args ...any) {
	fmt.Printf("\033[33m⚠\033[0m %s\n", fmt.Sprintf(format, args...))
}
