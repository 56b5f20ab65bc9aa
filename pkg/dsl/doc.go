/*
Package dsl builds flow definitions in Go instead of YAML.

It is mostly used by tests and by embedders that generate menus at runtime.
Transition keywords fall back to the lower-cased option label, the same rule
the YAML decoder applies.

	main := dsl.NewFlow("train_main")
	main.State("main_menu").
		Say("Press 1 to book a ticket, 2 for PNR status.").
		Option("1", "Book Ticket").Go("1", "flow:booking").
		Option("2", "PNR Status").Go("2", "flow:pnr_status")

	source := dsl.Source(main, booking, pnr)
	store := flowstore.New(source)
*/
package dsl
