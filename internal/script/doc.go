// Package script loads documents and mutation scripts for the livestore
// command.
//
// A document is any YAML or JSON file whose top level is a mapping or a
// sequence. A script is a YAML sequence of steps, each naming an op:
//
//	- {op: set, path: user.name, value: grace}
//	- {op: push, path: tags, values: [a, b]}
//	- {op: flush}
//	- {op: delete, path: user.email}
//
// Steps between flushes form one turn: they run as a single host task, so
// their changes are delivered as one batch. The end of the script closes
// the last turn.
package script
