package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"
)

// terminalUI answers interactive questions on the controlling terminal.
// When stdin is not a terminal every question is declined, so scripted
// runs never hang on a prompt.
type terminalUI struct {
	in  *os.File
	out *os.File
}

func newTerminalUI() *terminalUI {
	return &terminalUI{in: os.Stdin, out: os.Stderr}
}

func (t *terminalUI) Confirm(title, body string) bool {
	if !term.IsTerminal(int(t.in.Fd())) {
		return false
	}
	fmt.Fprintf(t.out, "%s\n%s\n", title, body)
	return t.prompt("Are you sure you want to continue? [y/N] ")
}

func (t *terminalUI) Alert(title, body string) {
	fmt.Fprintf(t.out, "%s: %s\n", title, body)
}

func (t *terminalUI) ConfirmLicense(title, text string) bool {
	if !term.IsTerminal(int(t.in.Fd())) {
		return false
	}
	fmt.Fprintf(t.out, "%s\n\n%s\n", title, text)
	return t.prompt("Do you accept the license terms? [y/N] ")
}

func (t *terminalUI) prompt(question string) bool {
	fmt.Fprint(t.out, question)
	answer, err := bufio.NewReader(t.in).ReadString('\n')
	if err != nil {
		return false
	}
	return strings.ToLower(answer)[0] == 'y'
}
