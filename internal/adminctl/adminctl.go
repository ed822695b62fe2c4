// Package adminctl implements the operator commands behind cmd/adminctl.
package adminctl

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/dmitrijs2005/storegate/internal/flagx"
	"github.com/dmitrijs2005/storegate/internal/shared"
	"golang.org/x/term"
)

const CommandBootstrap = "bootstrap"

// Test seams for the terminal.
var (
	readPassword = term.ReadPassword
	isTerminal   = term.IsTerminal
)

var ErrUsage = errors.New("usage: adminctl bootstrap [-email address] [-c config.json] [-d dsn]")

// Bootstrapper creates the admin account if it is missing.
type Bootstrapper interface {
	BootstrapAdmin(ctx context.Context, email, password string) (bool, error)
}

// Command returns the subcommand, which must come first.
func Command(args []string) (string, error) {
	if len(args) == 0 || args[0] != CommandBootstrap {
		return "", ErrUsage
	}
	return args[0], nil
}

// Email returns the -email flag value, or fallback when it is absent.
func Email(args []string, fallback string) string {
	email := fallback

	fs := flag.NewFlagSet("adminctl", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&email, "email", fallback, "admin email")
	_ = fs.Parse(flagx.FilterArgs(args, []string{"-email", "--email"}))

	return email
}

// Password prompts on the terminal attached to fd. When fd is not a
// terminal, or the operator enters nothing, fallback is used.
func Password(fd int, fallback string, w io.Writer) (string, error) {
	if !isTerminal(fd) {
		return fallback, nil
	}

	if _, err := fmt.Fprint(w, "Admin password (empty keeps the configured one): "); err != nil {
		return "", err
	}
	pw, err := readPassword(fd)
	fmt.Fprintln(w)
	if err != nil {
		return "", err
	}
	defer shared.WipeByteArray(pw)

	if len(pw) == 0 {
		return fallback, nil
	}
	return string(pw), nil
}

// Bootstrap creates the admin account and reports the outcome to w.
func Bootstrap(ctx context.Context, b Bootstrapper, email, password string, w io.Writer) error {
	created, err := b.BootstrapAdmin(ctx, email, password)
	if err != nil {
		return err
	}
	if created {
		fmt.Fprintf(w, "admin account %s created\n", email)
	} else {
		fmt.Fprintf(w, "admin account %s already exists, nothing to do\n", email)
	}
	return nil
}
