// Package security decides whether a routed command may run.
//
// The controller sits between the router and the executor:
//
//   - restricted paths are denied for reads and writes
//   - writes into read-only paths need authorisation
//   - dangerous commands (delete, executing organize) need authorisation
//     unless the command level is "never"
//   - deleting or moving a critical system path is denied outright
package security
