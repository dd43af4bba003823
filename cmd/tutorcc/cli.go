// Package main defines the CLI structure using kong.
package main

import (
	"fmt"

	"github.com/alecthomas/kong"
)

// CLI defines the command-line interface.
type CLI struct {
	Serve    ServeCmd    `cmd:"" help:"Start the HTTP server"`
	Run      RunCmd      `cmd:"" help:"Handle a single instruction and print the response"`
	Seed     SeedCmd     `cmd:"" help:"Seed the record store from a YAML roster file"`
	Sessions SessionsCmd `cmd:"" help:"List or inspect command audit sessions"`
	Version  VersionCmd  `cmd:"" help:"Show version information (${version})"`
}

// ServeCmd starts the HTTP server.
type ServeCmd struct {
	Config string `short:"c" help:"Config file path (default: ./tutorcc.toml)"`
}

// RunCmd handles one instruction from the command line.
type RunCmd struct {
	Text   []string `arg:"" help:"The instruction, as free text"`
	Config string   `short:"c" help:"Config file path (default: ./tutorcc.toml)"`
	Tutor  string   `help:"Tutor identifier recorded in the audit trail"`
}

// SeedCmd populates the record store from a YAML roster.
type SeedCmd struct {
	File   string `arg:"" help:"Roster YAML file"`
	Config string `short:"c" help:"Config file path (default: ./tutorcc.toml)"`
}

// SessionsCmd lists or inspects persisted command sessions.
type SessionsCmd struct {
	ID     string `arg:"" optional:"" help:"Session ID to inspect (omit to list)"`
	Config string `short:"c" help:"Config file path (default: ./tutorcc.toml)"`
}

// VersionCmd shows version information.
type VersionCmd struct{}

// Run prints version information.
func (v *VersionCmd) Run() error {
	fmt.Printf("tutorcc version %s (commit: %s, built: %s)\n", version, commit, buildTime)
	return nil
}

// kongVars returns variables for kong (version info).
func kongVars() kong.Vars {
	return kong.Vars{
		"version": version,
	}
}
