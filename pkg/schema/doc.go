// Package schema decodes and validates flow definition documents.
//
// A flow document is YAML (JSON is accepted as a subset) describing one flow:
//
//	name: booking
//	initial_state: ask_train
//	states:
//	  ask_train:
//	    message: "Please say or enter the train number."
//	    options: {"*": "Main menu"}
//	    transitions:
//	      "*": "flow:train_main"
//	      default: ask_date
//	  ask_date:
//	    message: "Train {train_number} noted. Which date?"
//	    actions:
//	      - type: collect_data
//	        field: train_number
//	        validator: {digits: true, length: 5}
//	    transitions: {default: confirm}
//
// Options and transitions keep their document order. Keypad keys such as "*"
// and "#" must be quoted in YAML.
//
// Decode turns one document into a domain.FlowDefinition; Validate checks a
// whole set of flows for internal consistency and reports every problem at
// once as an *AggregateError of *ValidationError.
package schema
