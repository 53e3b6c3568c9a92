// Package controller tracks what a rendering surface shows.
//
// A [Controller] fetches the machine catalog and metadata from a [Source],
// moves through Loading, Ready and Failed, and recomputes the selected
// machine's layout whenever the selection or its direction changes.
// Recomputation is serialized, so the published [Snapshot] always belongs
// to the last completed change. Surfaces either poll [Controller.Snapshot]
// or receive every new snapshot through [Controller.Subscribe].
//
//	ctrl := controller.New(src, runner, controller.Config{
//	    Directions: layout.DefaultDirections(),
//	}, logger)
//	if err := ctrl.Load(ctx); err != nil {
//	    // ctrl.Snapshot().State == controller.Failed
//	}
//	ctrl.Select(ctx, "auth")
package controller
