/*
Package dsl builds decision trees in Go code.

It is an alternative to JSON or YAML documents for trees generated at
runtime and for tests, with IDE completion on the node kinds.

Example usage:

	b := dsl.New("Platform Decisions")

	arch := b.TreePhase("Architecture")
	arch.Decision("Q1", "Do you need a managed platform?").Yes("Q2").No("Q3")
	arch.Decision("Q2", "Is the workload stateful?").Yes("I1").No("").
		CrossLink("Reconsider", "Q3")
	arch.Decision("Q3", "Will you self host?").Yes("I2").No("")
	arch.Info("I1", "Use managed storage").Terminal()
	arch.Info("I2", "Provision hardware").Then("I3")
	arch.Info("I3", "Self hosted stack").Terminal()

	b.MenuPhase("Features").
		Option("F1", "Enable audit logging?").
		Option("F2", "Enable single sign-on?")

	loader, err := b.Build()
	// ... pass loader to branchwise.New("", branchwise.WithLoader(loader))
*/
package dsl
