/*
Package domain contains the core models of the ivrflow dialogue engine.

It defines the declarative flow graph (flows, states, options, transitions and
actions), the per-call Session record with its append-only transcript, and the
result of a single engine turn. The package is kept pure: no I/O, no
persistence, no transport.

# Key Entities

  - FlowDefinition: a named state machine for one conversational task (booking, status, ...).
  - StateDefinition: a prompt, its ordered menu options and its transition table.
  - Target: where a transition leads, either a state in the same flow or another flow.
  - Session: the mutable record of one call (position, transcript, collected data).
  - StepResult: what the caller speaks next and whether the call should end.
*/
package domain
