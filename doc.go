/*
Package branchwise guides a user through a branching questionnaire organized
into ordered phases, records the answers and derives a configuration summary.

# Concept

A tree document lists phases and nodes. Tree phases hold decision nodes
(a question with labeled options) and info nodes (a statement with at most
one continuation). Menu phases hold a flat list of YES/NO options. The flow
engine tracks the visited path, the recorded choices and menu answers, and the
active phase. Answering an earlier question again with a different label
revises the flow: everything visited after it is dropped before the new
branch is followed.

Sessions are persisted through a ports.StateStore (memory, file or Redis) and
serialized per session, so HTTP, MCP and terminal front ends can share them.

# Usage

	package main

	import (
		"context"
		"log"
		"os"
		"time"

		"github.com/aretw0/branchwise"
	)

	func main() {
		eng, err := branchwise.New("./tree.yaml")
		if err != nil {
			log.Fatal(err)
		}

		ctx := context.Background()
		state, err := eng.Start(ctx)
		if err != nil {
			log.Fatal(err)
		}

		state, err = eng.RecordDecision(ctx, state.SessionID, "Q1", "YES")
		if err != nil {
			log.Fatal(err)
		}

		_ = eng.WriteReport(ctx, state.SessionID, os.Stdout, time.Now())
	}
*/
package branchwise
