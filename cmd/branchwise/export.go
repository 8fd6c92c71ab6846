package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/aretw0/branchwise"
	"github.com/aretw0/branchwise/internal/runtime"
	"github.com/aretw0/branchwise/pkg/session"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// Answers is a recorded set of answers replayed against a tree. JSON is
// accepted as well as YAML.
type Answers struct {
	Decisions map[string]string `yaml:"decisions"`
	Menu      map[string]bool   `yaml:"menu"`
}

func readAnswers(path string) (*Answers, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read answers: %w", err)
	}
	var a Answers
	if err := yaml.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("failed to parse answers %s: %w", path, err)
	}
	return &a, nil
}

// replay walks a session with recorded answers. Menu options without an
// answer count as NO. It stops at the first decision left unanswered and
// reports whether the flow completed.
func replay(ctx context.Context, mgr *session.Manager, id string, a *Answers) (bool, error) {
	for {
		engine, err := mgr.Engine(ctx, id)
		if err != nil {
			return false, err
		}
		if engine.IsComplete() {
			return true, nil
		}

		var step func(*runtime.Engine) error
		switch node, ok := engine.CurrentNode(); {
		case engine.Stage() == runtime.StageMenu:
			phase, _ := engine.ActivePhase()
			step = func(e *runtime.Engine) error {
				for _, opt := range phase.Options {
					if err := e.SetMenuSelection(opt.ID, a.Menu[opt.ID]); err != nil {
						return err
					}
				}
				return e.ContinueMenu()
			}
		case !ok:
			return false, fmt.Errorf("no current node in phase %d", engine.State().CurrentPhase)
		case node.IsDecision():
			label, answered := a.Decisions[node.ID]
			if !answered {
				return false, nil
			}
			for _, l := range node.Labels() {
				if strings.EqualFold(l, label) {
					label = l
				}
			}
			step = func(e *runtime.Engine) error { return e.RecordDecision(node.ID, label) }
		default:
			step = func(e *runtime.Engine) error { return e.RecordInfoContinue(node.ID) }
		}

		change, err := mgr.Apply(ctx, id, step)
		if err != nil {
			return false, err
		}
		if change.Diff == nil {
			return false, fmt.Errorf("replay is stuck at '%s'", change.After.CurrentNodeID)
		}
	}
}

var exportCmd = &cobra.Command{
	Use:   "export [tree]",
	Short: "Write the decisions report of a session or an answers file",
	Long: `Writes the flat text report listing every answered question and menu
option. The answers come from a stored session (--session) or are replayed
from a YAML or JSON file (--answers):

  decisions:
    Q1: "YES"
  menu:
    F1: true

Use --export - to print the report.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sessionID, _ := cmd.Flags().GetString("session")
		answersPath, _ := cmd.Flags().GetString("answers")
		if (sessionID == "") == (answersPath == "") {
			return fmt.Errorf("exactly one of --session or --answers is required")
		}

		var eng *branchwise.Engine
		if answersPath != "" {
			// Replays never touch the configured store.
			source, err := treeSource(args)
			if err != nil {
				return err
			}
			eng, err = branchwise.NewContext(cmd.Context(), source, branchwise.WithLogger(logger))
			if err != nil {
				return err
			}
			answers, err := readAnswers(answersPath)
			if err != nil {
				return err
			}
			state, err := eng.Start(cmd.Context())
			if err != nil {
				return err
			}
			sessionID = state.SessionID
			complete, err := replay(cmd.Context(), eng.Sessions(), sessionID, answers)
			if err != nil {
				return err
			}
			if !complete {
				logger.Warn("answers do not complete the flow, the report is partial")
			}
		} else {
			var be *backend
			var err error
			eng, be, err = openEngine(cmd.Context(), args)
			if err != nil {
				return err
			}
			defer be.close()
		}

		return writeReport(cmd, eng, sessionID)
	},
}

func writeReport(cmd *cobra.Command, eng *branchwise.Engine, sessionID string) error {
	path := cfg.Export.Path
	var w io.Writer = cmd.OutOrStdout()
	if path != "-" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create report: %w", err)
		}
		defer f.Close()
		w = f
	}
	if err := eng.WriteReport(cmd.Context(), sessionID, w, time.Now()); err != nil {
		return err
	}
	if path != "-" {
		fmt.Fprintf(cmd.OutOrStdout(), "Report written to %s\n", path)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringP("session", "s", "", "stored session to export")
	exportCmd.Flags().String("answers", "", "answers file to replay")
	exportCmd.Flags().StringP("export", "o", "", "report path, - for stdout (default decisions-config.txt)")
}
