/*
Package ivrflow is a dialogue flow engine for interactive voice response (IVR) systems.

Calls navigate declarative flows: named state machines whose states carry a prompt,
a menu of options and a transition table. Caller input is either a keypad control
code (0-9, * or #) or free text, typically speech transcribed upstream, matched
against per-transition keywords. Transitions may jump to another flow, and states
may collect the caller's input into the session data, optionally validated.

# Architecture

The engine is split the same way as any hexagonal service:

  - pkg/domain: flows, sessions, results and typed errors.
  - pkg/flowstore: the validated, atomically swappable set of flow definitions.
  - internal/runtime: the transition resolver. A turn never fails: faults are
    absorbed into an apology or a re-prompt.
  - pkg/session: per-call serialisation over any ports.SessionStore.
  - pkg/adapters: file, memory, Redis and SQL adapters plus the HTTP API.

# Usage

	eng, err := ivrflow.New("./flows",
		ivrflow.WithSummarySinks(file.NewSummarySink("logs")),
	)
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	resp, _ := eng.Start(ctx)
	fmt.Println(resp.Message)

	resp, _ = eng.Input(ctx, resp.SessionID, "5")
	fmt.Println(resp.Message)

	end, _ := eng.End(ctx, resp.SessionID)
	fmt.Println(end.Summary.TotalExchanges)
*/
package ivrflow
