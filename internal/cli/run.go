// Package cli drives a decision flow interactively on a terminal.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/aretw0/branchwise/internal/logging"
	"github.com/aretw0/branchwise/internal/presentation/tui"
	"github.com/aretw0/branchwise/internal/runtime"
	"github.com/aretw0/branchwise/pkg/domain"
	"github.com/aretw0/branchwise/pkg/session"
	"github.com/aretw0/branchwise/pkg/summary"
	"github.com/muesli/termenv"
)

// Options configures an interactive run.
type Options struct {
	// SessionID resumes the session when it exists, or names the new one.
	// Empty starts an anonymous session.
	SessionID string
	// Fresh resets a resumed session before the first prompt.
	Fresh bool
	// AutoAdvance moves past info nodes that have a continuation after the
	// delay. Zero waits for Enter.
	AutoAdvance time.Duration
	// ExportPath receives the text report once the flow completes.
	ExportPath string

	Input    io.Reader
	Output   io.Writer
	Renderer tui.Renderer
	Palette  *tui.Palette
	Logger   *slog.Logger
	Now      func() time.Time
}

func (o *Options) defaults() {
	if o.Input == nil {
		o.Input = os.Stdin
	}
	if o.Output == nil {
		o.Output = os.Stdout
	}
	if o.Renderer == nil {
		o.Renderer = tui.PlainRenderer
	}
	if o.Palette == nil {
		p := tui.NewPalette(termenv.Ascii)
		o.Palette = &p
	}
	if o.Logger == nil {
		o.Logger = logging.NewNop()
	}
	if o.Now == nil {
		o.Now = time.Now
	}
}

// errQuit ends the run without error.
var errQuit = errors.New("quit")

type runner struct {
	sessions *session.Manager
	opts     Options
	in       *lineSource
	out      io.Writer
	id       string
	phase    int
}

// Run walks the flow of a session until it completes, the user quits or the
// input is exhausted, and returns the last persisted state.
func Run(ctx context.Context, mgr *session.Manager, opts Options) (*domain.FlowState, error) {
	opts.defaults()
	r := &runner{
		sessions: mgr,
		opts:     opts,
		in:       newLineSource(opts.Input),
		out:      opts.Output,
	}

	if err := r.open(ctx); err != nil {
		return nil, err
	}

	err := r.loop(ctx)
	state, loadErr := mgr.Load(context.WithoutCancel(ctx), r.id)
	if loadErr != nil {
		return nil, loadErr
	}
	if err != nil && !errors.Is(err, errQuit) && !errors.Is(err, io.EOF) {
		return state, err
	}
	return state, nil
}

func (r *runner) open(ctx context.Context) error {
	log := r.opts.Logger
	if r.opts.SessionID == "" {
		state, err := r.sessions.Create(ctx)
		if err != nil {
			return err
		}
		r.id = state.SessionID
		log.Info("session created", "session_id", r.id)
		return nil
	}

	r.id = r.opts.SessionID
	state, err := r.sessions.Load(ctx, r.id)
	switch {
	case session.IsNotFound(err):
		if _, err := r.sessions.CreateWithID(ctx, r.id); err != nil {
			return err
		}
		r.system("Session '%s' active.", r.id)
		return nil
	case err != nil:
		return err
	}

	if r.opts.Fresh {
		if _, err := r.sessions.Apply(ctx, r.id, (*runtime.Engine).Reset); err != nil {
			return err
		}
		r.system("Session '%s' reset.", r.id)
		return nil
	}
	log.Info("session resumed", "session_id", r.id, "node", state.CurrentNodeID)
	if state.CurrentNodeID != "" {
		r.system("Resuming at '%s' node...", state.CurrentNodeID)
	}
	return nil
}

func (r *runner) loop(ctx context.Context) error {
	for {
		engine, err := r.sessions.Engine(ctx, r.id)
		if err != nil {
			return err
		}
		if engine.IsComplete() {
			return r.finish(engine)
		}

		r.phaseHeader(engine)
		if engine.Stage() == runtime.StageMenu {
			err = r.menu(ctx, engine)
		} else if node, ok := engine.CurrentNode(); !ok {
			err = fmt.Errorf("%w: no current node in phase %d", domain.ErrInvalidState, engine.State().CurrentPhase)
		} else if node.IsDecision() {
			err = r.decision(ctx, node)
		} else {
			err = r.info(ctx, node)
		}
		if err != nil {
			return err
		}
	}
}

func (r *runner) phaseHeader(engine *runtime.Engine) {
	phase, ok := engine.ActivePhase()
	if !ok || phase.ID == r.phase {
		return
	}
	r.phase = phase.ID
	title := fmt.Sprintf("Phase %d", phase.ID)
	if phase.Title != "" {
		title += ": " + phase.Title
	}
	r.render("## " + title)
}

func (r *runner) decision(ctx context.Context, node *domain.Node) error {
	r.render(tui.NodeMarkdown(node))
	for {
		r.prompt(node.ID, strings.Join(node.Labels(), "/"))
		line, err := r.in.read(ctx, nil)
		if err != nil {
			return err
		}
		handled, err := r.command(ctx, line)
		if handled || err != nil {
			return err
		}
		if line == "" {
			continue
		}

		label := matchLabel(node, line)
		if r.apply(ctx, func(e *runtime.Engine) error { return e.RecordDecision(node.ID, label) }) {
			return nil
		}
	}
}

func (r *runner) info(ctx context.Context, node *domain.Node) error {
	r.render(tui.NodeMarkdown(node))

	var deadline <-chan time.Time
	if node.NextID() != "" && r.opts.AutoAdvance > 0 {
		timer := time.NewTimer(r.opts.AutoAdvance)
		defer timer.Stop()
		deadline = timer.C
		fmt.Fprintln(r.out, r.opts.Palette.Hint(fmt.Sprintf("(continuing in %s, press Enter to skip)", r.opts.AutoAdvance)))
	} else {
		r.prompt(node.ID, "Enter to continue")
	}

	line, err := r.in.read(ctx, deadline)
	switch {
	case errors.Is(err, errTimeout):
	case errors.Is(err, io.EOF) && deadline != nil:
		// Input is exhausted but the countdown still plays out.
		select {
		case <-deadline:
		case <-ctx.Done():
			return ctx.Err()
		}
	case err != nil:
		return err
	default:
		if handled, err := r.command(ctx, line); handled || err != nil {
			return err
		}
	}

	r.apply(ctx, func(e *runtime.Engine) error { return e.RecordInfoContinue(node.ID) })
	return nil
}

func (r *runner) menu(ctx context.Context, engine *runtime.Engine) error {
	phase, _ := engine.ActivePhase()
	state := engine.State()
	r.render(tui.MenuMarkdown(phase, state.MenuSelections))

	for _, opt := range phase.Options {
		if _, answered := state.MenuSelections[opt.ID]; !answered {
			return r.menuOption(ctx, opt)
		}
	}

	r.prompt("menu", "Enter to continue, or an option id to change it")
	line, err := r.in.read(ctx, nil)
	if err != nil {
		return err
	}
	if handled, err := r.command(ctx, line); handled || err != nil {
		return err
	}
	if line == "" {
		r.apply(ctx, (*runtime.Engine).ContinueMenu)
		return nil
	}
	for _, opt := range phase.Options {
		if strings.EqualFold(opt.ID, line) {
			return r.menuOption(ctx, opt)
		}
	}
	fmt.Fprintln(r.out, r.opts.Palette.Error(fmt.Sprintf("Error: %q is not an option of this menu.", line)))
	return nil
}

func (r *runner) menuOption(ctx context.Context, opt domain.MenuOption) error {
	for {
		r.prompt(opt.ID, opt.Question+" YES/NO")
		line, err := r.in.read(ctx, nil)
		if err != nil {
			return err
		}
		if handled, err := r.command(ctx, line); handled || err != nil {
			return err
		}
		value, ok := parseYesNo(line)
		if !ok {
			fmt.Fprintln(r.out, r.opts.Palette.Error("Please answer YES or NO."))
			continue
		}
		r.apply(ctx, func(e *runtime.Engine) error { return e.SetMenuSelection(opt.ID, value) })
		return nil
	}
}

// command handles the verbs available at every prompt. It reports whether
// line was one of them.
func (r *runner) command(ctx context.Context, line string) (bool, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false, nil
	}
	switch strings.ToLower(fields[0]) {
	case "q", "quit", "exit":
		return true, errQuit
	case "help", "?":
		fmt.Fprintln(r.out, helpText)
		return true, nil
	case "reset":
		r.phase = 0
		r.apply(ctx, (*runtime.Engine).Reset)
		return true, nil
	case "revise":
		if len(fields) != 3 {
			fmt.Fprintln(r.out, r.opts.Palette.Error("Usage: revise <nodeId> <label>"))
			return true, nil
		}
		nodeID, label := fields[1], fields[2]
		if node, ok := r.sessions.Tree().Node(nodeID); ok {
			label = matchLabel(node, label)
		}
		r.apply(ctx, func(e *runtime.Engine) error { return e.RecordDecision(nodeID, label) })
		return true, nil
	}
	return false, nil
}

const helpText = `Commands:
  <label>                 answer the current question
  revise <nodeId> <label> change an earlier answer
  reset                   start over
  q, quit, exit           leave; the session is kept`

// apply runs a transition and reports whether it succeeded. Domain errors
// are shown to the user and leave the flow where it was.
func (r *runner) apply(ctx context.Context, fn func(*runtime.Engine) error) bool {
	change, err := r.sessions.Apply(ctx, r.id, fn)
	if err != nil {
		r.opts.Logger.Debug("transition rejected", "session_id", r.id, "err", err)
		fmt.Fprintln(r.out, r.opts.Palette.Error("Error: "+err.Error()))
		return false
	}
	if change.Diff != nil {
		r.opts.Logger.Debug("state changed", "session_id", r.id, "node", change.After.CurrentNodeID)
	}
	return true
}

func (r *runner) finish(engine *runtime.Engine) error {
	tree := engine.Tree()
	state := engine.State()
	items := summary.Project(tree, state)
	r.render(tui.SummaryMarkdown(tree.Title(), items, summary.Recommend(items)))

	if r.opts.ExportPath == "" {
		return nil
	}
	f, err := os.Create(r.opts.ExportPath)
	if err != nil {
		return fmt.Errorf("failed to export report: %w", err)
	}
	defer f.Close()
	if err := summary.WriteReport(f, tree, state, r.opts.Now()); err != nil {
		return fmt.Errorf("failed to export report: %w", err)
	}
	r.system("Report written to %s", r.opts.ExportPath)
	return nil
}

func (r *runner) render(markdown string) {
	out, err := r.opts.Renderer(markdown)
	if err != nil {
		out = markdown
	}
	fmt.Fprintln(r.out, strings.TrimSpace(out))
}

func (r *runner) prompt(id, hint string) {
	fmt.Fprintf(r.out, "%s [%s] > ", r.opts.Palette.Node(domain.NodeStateCurrent, id), hint)
}

func (r *runner) system(format string, args ...any) {
	fmt.Fprintf(r.out, ">>> %s\n", fmt.Sprintf(format, args...))
}

// matchLabel resolves a case-insensitive answer to the node's option label.
func matchLabel(node *domain.Node, input string) string {
	for _, label := range node.Labels() {
		if strings.EqualFold(label, input) {
			return label
		}
	}
	return input
}

func parseYesNo(input string) (bool, bool) {
	switch strings.ToLower(input) {
	case "y", "yes", "true":
		return true, true
	case "n", "no", "false":
		return false, true
	}
	return false, false
}
