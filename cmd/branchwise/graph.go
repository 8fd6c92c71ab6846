package main

import (
	"fmt"

	"github.com/aretw0/branchwise/internal/presentation/graph"
	"github.com/spf13/cobra"
)

var graphCmd = &cobra.Command{
	Use:   "graph [tree]",
	Short: "Export the tree as a Mermaid diagram",
	Long: `Outputs a Mermaid flowchart (graph TD) with one subgraph per phase.
With --session the visited path, the current node and the menu answers
of that session are highlighted.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		phaseID, _ := cmd.Flags().GetInt("phase")
		sessionID, _ := cmd.Flags().GetString("session")

		source, err := treeSource(args)
		if err != nil {
			return err
		}
		tree, err := loadTree(cmd, source)
		if err != nil {
			return err
		}
		if phaseID != 0 {
			if _, ok := tree.Phase(phaseID); !ok {
				return fmt.Errorf("phase %d does not exist, the tree has %d", phaseID, tree.PhaseCount())
			}
		}

		var overlay *graph.Overlay
		if sessionID != "" {
			be, err := openBackend(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer be.close()
			state, err := be.store.Load(cmd.Context(), sessionID)
			if err != nil {
				return fmt.Errorf("failed to load session '%s': %w", sessionID, err)
			}
			overlay = graph.OverlayFromState(state)
		}

		fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(tree, phaseID, overlay))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().Int("phase", 0, "render only this phase (default all)")
	graphCmd.Flags().StringP("session", "s", "", "highlight the path of this session")
}
