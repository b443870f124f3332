package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/smarttask/internal/infrastructure/wiring"
)

func loadServices() (*wiring.AppServices, error) {
	return loadServicesWithLogger(slog.Default())
}

func loadServicesWithLogger(logger *slog.Logger) (*wiring.AppServices, error) {
	services, err := wiring.BuildAppServices(wiring.Options{
		ConfigDir: configDir,
		APIURL:    apiURL,
		Logger:    logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build services: %w", err)
	}
	return services, nil
}

// loadSession is loadServices for commands that need a stored login.
func loadSession() (*wiring.AppServices, error) {
	services, err := loadServices()
	if err != nil {
		return nil, err
	}
	if !services.Auth.State().IsAuthenticated {
		return nil, MapError(errNotLoggedIn)
	}
	return services, nil
}

// prompter reads answers for fields not given as flags.
type prompter struct {
	in  io.Reader
	r   *bufio.Reader
	out io.Writer
}

func newPrompter(cmd *cobra.Command) *prompter {
	in := cmd.InOrStdin()
	return &prompter{in: in, r: bufio.NewReader(in), out: cmd.ErrOrStderr()}
}

// ask prints label and returns the trimmed line. EOF yields "".
func (p *prompter) ask(label string) (string, error) {
	fmt.Fprint(p.out, label)
	line, err := p.r.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// secret is ask without echo when reading from a terminal.
func (p *prompter) secret(label string) (string, error) {
	f, ok := p.in.(*os.File)
	if !ok || !term.IsTerminal(f.Fd()) {
		return p.ask(label)
	}
	fmt.Fprint(p.out, label)
	b, err := term.ReadPassword(f.Fd())
	fmt.Fprintln(p.out)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// fill prompts for each empty target.
func (p *prompter) fill(fields ...promptField) error {
	for _, f := range fields {
		if *f.target != "" {
			continue
		}
		ask := p.ask
		if f.secret {
			ask = p.secret
		}
		v, err := ask(f.label)
		if err != nil {
			return err
		}
		*f.target = v
	}
	return nil
}

type promptField struct {
	label  string
	target *string
	secret bool
}
