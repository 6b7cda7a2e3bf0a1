// Package cli implements the interactive shell of the client: a small
// read-eval-print loop over the board, idea, and document services, plus
// login and sync housekeeping. All state lives in the services; the shell
// only parses commands and prints results.
package cli
