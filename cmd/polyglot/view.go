package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/ZaguanLabs/polyglot"
	"github.com/fatih/color"
)

var (
	warnColor  = color.New(color.FgYellow)
	errorColor = color.New(color.FgRed, color.Bold)
	dimColor   = color.New(color.Faint)
	okColor    = color.New(color.FgGreen)
)

// terminalView prints results to stdout and progress and errors to stderr.
// A terminal has no controls to disable, so SetBusy only tracks state.
type terminalView struct {
	mu     sync.Mutex
	out    io.Writer
	errOut io.Writer
	busy   map[polyglot.JobKind]bool
}

func newTerminalView(out, errOut io.Writer) *terminalView {
	return &terminalView{
		out:    out,
		errOut: errOut,
		busy:   make(map[polyglot.JobKind]bool),
	}
}

func (v *terminalView) SetBusy(kind polyglot.JobKind, busy bool) {
	v.mu.Lock()
	v.busy[kind] = busy
	v.mu.Unlock()
}

func (v *terminalView) ShowLoading(kind polyglot.JobKind, message string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	dimColor.Fprintln(v.errOut, message)
}

func (v *terminalView) ShowResult(kind polyglot.JobKind, content string) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if kind == polyglot.KindSpeech {
		okColor.Fprint(v.errOut, "Audio ready")
		if strings.HasPrefix(content, "data:") {
			fmt.Fprintf(v.errOut, " (inline, %d bytes)\n", len(content))
		} else {
			fmt.Fprintf(v.errOut, ": %s\n", content)
		}
		return
	}

	fmt.Fprint(v.out, content)
	if !strings.HasSuffix(content, "\n") {
		fmt.Fprintln(v.out)
	}
}

func (v *terminalView) ShowError(kind polyglot.JobKind, err error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	errorColor.Fprint(v.errOut, "error: ")
	fmt.Fprintf(v.errOut, "%v\n", err)
}

// promptConfirmer shows validation warnings and asks whether to continue.
type promptConfirmer struct {
	in  *bufio.Reader
	out io.Writer
	yes bool
}

func (p *promptConfirmer) Confirm(kind polyglot.JobKind, warnings []string) bool {
	for _, w := range warnings {
		warnColor.Fprint(p.out, "warning: ")
		fmt.Fprintln(p.out, w)
	}
	if p.yes {
		return true
	}
	if p.in == nil {
		fmt.Fprintln(p.out, "Re-run with --yes to continue anyway.")
		return false
	}

	fmt.Fprintf(p.out, "Continue with the %s anyway? [y/N] ", kind)
	line, err := p.in.ReadString('\n')
	if err != nil && line == "" {
		fmt.Fprintln(p.out)
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

var (
	_ polyglot.View      = (*terminalView)(nil)
	_ polyglot.Confirmer = (*promptConfirmer)(nil)
)
