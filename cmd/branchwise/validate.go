package main

import (
	"errors"
	"fmt"

	"github.com/aretw0/branchwise"
	"github.com/aretw0/branchwise/pkg/domain"
	"github.com/aretw0/branchwise/pkg/schema"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate [tree]",
	Short: "Check the tree document for consistency",
	Long: `Loads the document and reports every structural problem: unknown targets,
duplicate ids, missing start nodes and nodes placed in the wrong phase.
With --normalize the validated tree is printed as canonical JSON.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		normalize, _ := cmd.Flags().GetBool("normalize")
		source, err := treeSource(args)
		if err != nil {
			return err
		}
		tree, err := loadTree(cmd, source)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if normalize {
			data, err := schema.Encode(tree)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, string(data))
			return nil
		}

		fmt.Fprintf(out, "Tree is valid: %d phases, %d nodes.\n", tree.PhaseCount(), len(tree.Nodes()))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().Bool("normalize", false, "print the validated tree as JSON")
}

// loadTree loads source and lists validation issues one per line.
func loadTree(cmd *cobra.Command, source string) (*domain.Tree, error) {
	loader, err := branchwise.NewLoader(source)
	if err != nil {
		return nil, err
	}
	tree, err := loader.Load(cmd.Context())
	if err == nil {
		return tree, nil
	}

	issues := domain.Issues(err)
	if len(issues) == 0 {
		return nil, err
	}
	out := cmd.ErrOrStderr()
	fmt.Fprintf(out, "Validation failed for %s:\n", source)
	for _, issue := range issues {
		fmt.Fprintf(out, "  - %s\n", issue)
	}
	return nil, errors.New("tree is invalid")
}
