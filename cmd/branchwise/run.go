package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/aretw0/branchwise"
	"github.com/aretw0/branchwise/internal/cli"
	"github.com/aretw0/branchwise/internal/presentation/tui"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run [tree]",
	Short: "Walk the decision tree interactively in the terminal",
	Long: `Prompts for every decision, shows info nodes, asks the menu options and
prints the summary once every phase is done.

At any prompt:
  revise <nodeId> <label>  change an earlier answer
  reset                    start over
  q                        quit (the session is kept)`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sessionID, _ := cmd.Flags().GetString("session")
		fresh, _ := cmd.Flags().GetBool("fresh")
		export, _ := cmd.Flags().GetBool("write-report")

		sigCtx := cli.NewSignalContext(cmd.Context())
		defer sigCtx.Cancel()

		eng, be, err := openEngine(sigCtx, args)
		if err != nil {
			return err
		}
		defer be.close()

		var renderer tui.Renderer = tui.PlainRenderer
		palette := tui.NewPalette(termenv.Ascii)
		if cli.IsTerminal(os.Stdout) {
			renderer = tui.NewRenderer()
			palette = tui.DetectPalette()
			tui.PrintBanner(cmd.OutOrStdout(), palette.Profile(), strings.TrimSpace(branchwise.Version))
		}

		opts := cli.Options{
			SessionID:   sessionID,
			Fresh:       fresh,
			AutoAdvance: cfg.Flow.AutoAdvance,
			Input:       cmd.InOrStdin(),
			Output:      cmd.OutOrStdout(),
			Renderer:    renderer,
			Palette:     &palette,
			Logger:      logger,
		}
		if export {
			opts.ExportPath = cfg.Export.Path
		}

		state, err := cli.Run(sigCtx, eng.Sessions(), opts)
		if sig := sigCtx.Signal(); sig != nil {
			node := ""
			if state != nil {
				node = state.CurrentNodeID
			}
			fmt.Fprintf(cmd.OutOrStdout(), "\n>>> Interrupted at '%s' node.\n", node)
			return nil
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringP("session", "s", "", "session id to resume or create")
	runCmd.Flags().Bool("fresh", false, "reset the session before starting")
	runCmd.Flags().Duration("auto-advance", 0, "delay before info nodes continue on their own (default 1.5s)")
	runCmd.Flags().Bool("write-report", false, "write the report to export.path when the flow completes")
	runCmd.Flags().String("export", "", "report path used with --write-report")
}
