// Package gridiron implements a stateful tool-calling agent runtime.
//
// A Runner drives one turn of conversation through a three-state machine:
// ask the model, run the tools the model requested, repeat until the model
// produces a final answer. Session state is persisted through a checkpoint
// store so conversations resume across turns, and every state transition
// is streamed to the caller and emitted as a trace span.
//
// Example:
//
//	runner := gridiron.NewRunner(gateway, registry, gridiron.WithCheckpointStore(store))
//	turn := runner.RunTurn(ctx, "session-42", "How many touchdowns did Mahomes average?")
//	for step := range turn.Steps() {
//	    fmt.Println(step.State, len(step.Appended))
//	}
//	if err := turn.Err(); err != nil {
//	    // handle failure
//	}
//	fmt.Println(turn.Answer())
package gridiron
