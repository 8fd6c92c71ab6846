/*
Package domain contains the core domain models of the Branchwise decision flow.

It defines the static questionnaire (phases and nodes), the mutable Flow State
owned by the engine, and the errors and events shared by every adapter. This
package is kept pure: no I/O, no persistence, no transport.

# Key Entities

  - Node: a decision (question with labeled options) or an info statement (with at most one continuation).
  - Phase: an ordered stage of the flow, either a branching tree or a flat menu of boolean questions.
  - Tree: the validated, indexed model built from a Document. References between nodes are ids, resolved through the index.
  - FlowState: the runtime snapshot of one traversal (current node, visited path, choices, menu selections, phase, completion).
*/
package domain
