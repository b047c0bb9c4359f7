// Package commands implements the hackhub CLI: account commands over a
// session persisted in ~/.hackhub, and an interactive inbox.
package commands
