// Package harness runs scripted authoring sessions against the wizard.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: dark_two_memories
//	description: "Two memories, dark theme, no secret"
//	steps:
//	  - do: set
//	    field: creatorName
//	    value: Alex
//	  - do: next
//	  - do: add_memory
//	  - do: edit_memory
//	    memory: 0
//	    field: title
//	    value: First date
//	  - do: remove_memory
//	    memory: 1
//	  - do: finalize
//	    error: "only available at review"
//	expect:
//	  step: review
//	  finalized: true
//	  memories: 2
//	  theme: dark
//	  protected: false
//
// Each step names one action in do: set, next, back, add_memory,
// edit_memory, remove_memory or finalize. Memories are referenced by their
// position in the draft. A step may declare the error text it expects; any
// other error fails the scenario.
//
// # Deterministic Testing
//
// Every run uses a fresh in-memory store, a testutil.DeterministicClock and
// sequence ids (proposal-1, memory-1, ...), so traces are identical across
// runs and can be compared against golden files.
package harness
