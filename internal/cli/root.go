// Package cli provides the consultctl command-line client.
package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/astroconsult/consult-server-go/internal/client"
	"github.com/astroconsult/consult-server-go/internal/config"
	"github.com/astroconsult/consult-server-go/internal/identity"
)

// Version is set at build time.
var Version = "0.1.0"

// app carries everything a command needs. It is built once per
// invocation in PersistentPreRunE unless a test has filled it in already.
type app struct {
	cfg     *config.ClientConfig
	store   identity.Store
	session *identity.Session
	api     *client.Client
	in      *bufio.Reader
	out     io.Writer

	verbose bool
}

// NewRootCommand builds the command tree reading from in and writing to out.
func NewRootCommand(in io.Reader, out io.Writer) *cobra.Command {
	return newRootCommand(&app{in: bufio.NewReader(in), out: out})
}

func newRootCommand(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "consultctl",
		Short: "Astrology consultation client",
		Long: `consultctl talks to the consultation server: log in with a one-time code,
register a birth profile, chat with Maya and Guruji, and manage the wallet.

The identity is kept in ~/.consultctl.yaml (override with CONSULT_IDENTITY_FILE).`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
	}
	root.SetOut(a.out)
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "verbose output")

	root.AddCommand(
		newLoginCmd(a),
		newRegisterCmd(a),
		newStatusCmd(a),
		newLogoutCmd(a),
		newChatCmd(a),
		newHistoryCmd(a),
		newWalletCmd(a),
		newAdminCmd(a),
		newPlaceCmd(a),
	)
	return root
}

func (a *app) init() error {
	if a.cfg == nil {
		cfg, err := config.LoadClient()
		if err != nil {
			return err
		}
		a.cfg = cfg
	}

	level := a.cfg.LogLevel
	if a.verbose {
		level = "debug"
	}
	setLogLevel(level)

	if a.store == nil {
		path, err := a.cfg.IdentityPath()
		if err != nil {
			return err
		}
		store, err := identity.OpenFileStore(path)
		if err != nil {
			return fmt.Errorf("open identity file: %w", err)
		}
		a.store = store
	}
	if a.session == nil {
		a.session = identity.NewSession(a.store)
	}
	if a.api == nil {
		a.api = client.New(a.cfg.APIURL,
			client.WithTimeout(a.cfg.Timeout),
			client.WithToken(a.session.Token),
			client.WithAdminToken(a.session.AdminToken),
		)
	}
	return nil
}

// requireLogin fails commands that need a user identity.
func (a *app) requireLogin() error {
	if !a.session.Authenticated() {
		return fmt.Errorf("not logged in: run consultctl login <mobile>")
	}
	return nil
}

func (a *app) requireAdmin() error {
	if a.session.AdminToken() == "" {
		return fmt.Errorf("no admin session: run consultctl admin login")
	}
	return nil
}

func (a *app) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}

// prompt writes label and reads one trimmed line of input.
func (a *app) prompt(label string) (string, error) {
	a.printf("%s", label)
	line, err := a.in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// Execute runs the CLI against the process's standard streams.
func Execute() error {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	err := NewRootCommand(os.Stdin, os.Stdout).Execute()
	if err != nil {
		return fmt.Errorf("%s", errorText(err))
	}
	return nil
}

// errorText shows API errors the way the server phrased them and keeps
// local errors as they are.
func errorText(err error) string {
	if client.IsValidation(err) || client.IsRequest(err) || client.IsNetwork(err) {
		return client.UserMessage(err)
	}
	return err.Error()
}

func setLogLevel(level string) {
	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	}
}
