package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidTree is returned when a tree document violates the model at load time.
	ErrInvalidTree = errors.New("invalid tree")

	// ErrInvalidNode is returned when an operation references a node that does not
	// exist, has the wrong type, or is not on the visited path.
	ErrInvalidNode = errors.New("invalid node")

	// ErrInvalidOption is returned when a choice label or menu option id is not part of the model.
	ErrInvalidOption = errors.New("invalid option")

	// ErrNotMenuPhase is returned when a menu operation is used outside a menu phase.
	ErrNotMenuPhase = errors.New("active phase is not a menu")

	// ErrMenuIncomplete is returned when the menu continue action is used before every option is answered.
	ErrMenuIncomplete = errors.New("menu has unanswered options")

	// ErrFlowComplete is returned when a phase advance is requested after the last phase.
	ErrFlowComplete = errors.New("flow is complete")

	// ErrInvalidState is returned when a persisted flow state does not fit the tree.
	ErrInvalidState = errors.New("invalid flow state")

	// ErrSessionNotFound is returned when a session ID cannot be found in the store.
	ErrSessionNotFound = errors.New("session not found")
)

// ValidationError aggregates every structural problem found in a tree document.
// It matches ErrInvalidTree with errors.Is.
type ValidationError struct {
	Issues []string
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 1 {
		return fmt.Sprintf("%v: %s", ErrInvalidTree, e.Issues[0])
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%v: %d problems:\n", ErrInvalidTree, len(e.Issues))
	for i, issue := range e.Issues {
		fmt.Fprintf(&sb, "  %d. %s\n", i+1, issue)
	}
	return sb.String()
}

// Is makes errors.Is(err, ErrInvalidTree) hold.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidTree
}

// Add records a problem.
func (e *ValidationError) Add(format string, args ...any) {
	e.Issues = append(e.Issues, fmt.Sprintf(format, args...))
}

// Err returns the error when at least one problem was recorded, nil otherwise.
func (e *ValidationError) Err() error {
	if len(e.Issues) == 0 {
		return nil
	}
	return e
}

// Issues returns the recorded problems if err is a *ValidationError.
func Issues(err error) []string {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr.Issues
	}
	return nil
}
