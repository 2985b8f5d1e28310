package main

import (
	"flag"
	"fmt"
	"io"

	"github.com/baalimago/chaperone/internal/utils"
)

type configurations struct {
	role        string
	owner       string
	session     string
	backend     string
	serveAddr   string
	clear       bool
	listRoles   bool
	transcript  bool
	interactive bool
	printRaw    bool
	version     bool
}

var defaultFlags = configurations{
	role:    "virtual_assistant",
	owner:   "local",
	backend: backendFile,
}

const (
	backendFile   = "file"
	backendRemote = "remote"
)

// parseFlags parses args into configurations and returns the remaining
// positional arguments.
func parseFlags(defaults configurations, args []string, output io.Writer) (configurations, []string, error) {
	fs := flag.NewFlagSet("chaperone", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.Usage = func() { fmt.Fprintf(output, usage, defaults.role, defaults.owner, defaults.backend) }

	roleShort := fs.String("r", defaults.role, "Set the role which should answer. Mutually exclusive with role flag.")
	roleLong := fs.String("role", defaults.role, "Set the role which should answer. Mutually exclusive with r flag.")

	ownerShort := fs.String("o", defaults.owner, "Set the owner of the conversation. Mutually exclusive with owner flag.")
	ownerLong := fs.String("owner", defaults.owner, "Set the owner of the conversation. Mutually exclusive with o flag.")

	sessionShort := fs.String("s", defaults.session, "Set the session key. A new one is generated when omitted. Mutually exclusive with session flag.")
	sessionLong := fs.String("session", defaults.session, "Set the session key. A new one is generated when omitted. Mutually exclusive with s flag.")

	backendShort := fs.String("b", defaults.backend, "Set the history backend, 'file' or 'remote'. Mutually exclusive with backend flag.")
	backendLong := fs.String("backend", defaults.backend, "Set the history backend, 'file' or 'remote'. Mutually exclusive with b flag.")

	transcriptShort := fs.Bool("t", defaults.transcript, "Set to true to print the transcript of the session.")
	transcriptLong := fs.Bool("transcript", defaults.transcript, "Set to true to print the transcript of the session.")

	interactiveShort := fs.Bool("i", defaults.interactive, "Set to true to keep reading turns from the terminal until 'q', 'quit' or interrupt.")
	interactiveLong := fs.Bool("interactive", defaults.interactive, "Set to true to keep reading turns from the terminal until 'q', 'quit' or interrupt.")

	serveAddr := fs.String("serve", defaults.serveAddr, "Set an address, such as ':8080', to serve sessions over HTTP instead.")
	clearSession := fs.Bool("clear", defaults.clear, "Set to true to truncate the session to its priming turns.")
	listRoles := fs.Bool("roles", defaults.listRoles, "Set to true to list the configured roles.")
	version := fs.Bool("version", defaults.version, "Set to true to print the version and the versions of all dependencies.")
	printRaw := fs.Bool("raw", defaults.printRaw, "Set to true to print raw output (don't attempt to use 'glow').")

	if err := fs.Parse(args); err != nil {
		return configurations{}, nil, fmt.Errorf("failed to parse args: %w", err)
	}

	role, err := utils.ReturnNonDefault(*roleShort, *roleLong, defaults.role)
	if err != nil {
		return configurations{}, nil, flagError(err, "r", "role")
	}
	owner, err := utils.ReturnNonDefault(*ownerShort, *ownerLong, defaults.owner)
	if err != nil {
		return configurations{}, nil, flagError(err, "o", "owner")
	}
	session, err := utils.ReturnNonDefault(*sessionShort, *sessionLong, defaults.session)
	if err != nil {
		return configurations{}, nil, flagError(err, "s", "session")
	}
	backend, err := utils.ReturnNonDefault(*backendShort, *backendLong, defaults.backend)
	if err != nil {
		return configurations{}, nil, flagError(err, "b", "backend")
	}
	if backend != backendFile && backend != backendRemote {
		return configurations{}, nil, fmt.Errorf("unknown backend: '%v', expected '%v' or '%v'", backend, backendFile, backendRemote)
	}

	return configurations{
		role:        role,
		owner:       owner,
		session:     session,
		backend:     backend,
		serveAddr:   *serveAddr,
		clear:       *clearSession,
		listRoles:   *listRoles,
		transcript:  *transcriptShort || *transcriptLong,
		interactive: *interactiveShort || *interactiveLong,
		printRaw:    *printRaw,
		version:     *version,
	}, fs.Args(), nil
}

func flagError(err error, short, long string) error {
	return fmt.Errorf("flags: '%v' and '%v' are mutually exclusive: %w", short, long, err)
}
