/*
Package ports defines the driven ports (interfaces) of the ivrflow engine.

These interfaces decouple the dialogue core from external implementations, so
the engine works with any flow-definition source, session store, lock service
or call-summary sink.

# Key Interfaces

  - FlowSource: yields decoded flow definitions (directory of YAML files, memory, ...).
  - FlowCatalog: an immutable, validated set of flows looked up by name.
  - SessionStore: persists and loads call Sessions.
  - DistributedLocker: serialises turns of one call across replicas.
  - SummarySink: receives the CallSummary when a call ends.
*/
package ports
