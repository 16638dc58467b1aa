package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "Error: %v\n", err)
		if errors.Is(err, context.Canceled) {
			os.Exit(130)
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "slidesmith",
		Short: "Generate PowerPoint presentations with AI and web search",
		Long: `slidesmith turns a topic into a finished PowerPoint presentation.

It searches the web for context, asks a language model to outline and write
the slides, fits the generated text to the slide capacity, and renders the
deck as a .pptx file.

Example usage:
  slidesmith generate "Artificial Intelligence"
  slidesmith generate "Climate Change Solutions" --slides 5 --theme corporate
  slidesmith generate "Quantum Computing" -o quantum.pptx -v`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(newGenerateCmd())
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the slidesmith version",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Printf("slidesmith %s\n", version)
		},
	}
}
