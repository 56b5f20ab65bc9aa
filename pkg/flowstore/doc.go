/*
Package flowstore serves the active, validated set of flow definitions.

The active Set is immutable and held behind an atomic pointer. Readers capture
a Set once per turn with Snapshot and keep using it even if a Reload swaps in a
new one meanwhile. A Reload that fails validation leaves the previous Set active.

	store := flowstore.New(file.NewFlowSource("flows"), flowstore.WithLogger(logger))
	if err := store.Reload(ctx); err != nil {
		return err
	}
	set := store.Snapshot()
	main, err := set.Get("train_main")
*/
package flowstore
