package commands

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"
)

var errNonInteractive = errors.New("not running in a terminal")

// readLine asks for a visible value
func (d *deps) readLine(prompt string) (string, error) {
	if !d.interactive() {
		return "", errNonInteractive
	}
	fmt.Fprint(d.errOut, prompt)
	line, err := bufio.NewReader(d.in).ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// readPassword asks for a secret without echo
func (d *deps) readPassword(prompt string) (string, error) {
	f, ok := d.in.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return "", errNonInteractive
	}
	fmt.Fprint(d.errOut, prompt)
	bytePassword, err := term.ReadPassword(int(f.Fd()))
	fmt.Fprintln(d.errOut) // New line after password input
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(bytePassword), nil
}

// confirm asks a yes/no question; non-interactive sessions must pass --yes
func (d *deps) confirm(question string) (bool, error) {
	answer, err := d.readLine(question + " [y/N]: ")
	if err != nil {
		if errors.Is(err, errNonInteractive) {
			return false, fmt.Errorf("confirmation required in non-interactive mode (use --yes)")
		}
		return false, err
	}
	answer = strings.ToLower(answer)
	return answer == "y" || answer == "yes", nil
}
