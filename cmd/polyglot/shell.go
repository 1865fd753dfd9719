package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/ZaguanLabs/polyglot"
)

const shellHelp = `Commands:
  translate TEXT   (t)  translate TEXT; it becomes the current text
  listen [TEXT]    (l)  speak TEXT, or the current text
  text TEXT             set the current text without submitting
  select WORDS     (s)  select WORDS within the current text
  analyze          (a)  analyze the selection
  wait                  wait for running jobs
  help             (?)  show this help
  quit             (q)  leave the shell
`

// shell reads one command per line. Jobs run in the background and print
// their results as they finish; a new job replaces a running one of the
// same kind.
func (a *app) shell(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("shell", flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	source := fs.String("source", "en", "Language of the text")
	to := fs.String("to", strings.Join(polyglot.TargetLanguages, ","), "Comma-separated target languages")
	output := fs.String("output-lang", "en", "Language of the analysis")
	rate := fs.Float64("rate", 1.0, "Speaking rate")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := a.startSession(ctx); err != nil {
		return err
	}
	fmt.Fprint(a.stderr, shellHelp)

	var current string
	var jobs []*polyglot.Job
	track := func(job *polyglot.Job, err error) {
		if err != nil {
			if errors.Is(err, polyglot.ErrNotConfirmed) {
				fmt.Fprintln(a.stderr, "cancelled")
			}
			return
		}
		jobs = append(jobs, job)
	}
	waitAll := func() {
		for _, job := range jobs {
			if _, err := job.Wait(ctx); err != nil {
				return
			}
		}
		jobs = nil
	}

	for {
		if ctx.Err() != nil {
			return nil
		}
		fmt.Fprint(a.stderr, "> ")
		line, err := a.in.ReadString('\n')
		if err != nil && line == "" {
			if err == io.EOF {
				fmt.Fprintln(a.stderr)
				waitAll()
				return nil
			}
			return fmt.Errorf("reading input: %w", err)
		}

		cmd, arg, _ := strings.Cut(strings.TrimSpace(line), " ")
		arg = strings.TrimSpace(arg)

		switch strings.ToLower(cmd) {
		case "":
		case "translate", "t":
			if arg != "" {
				current = arg
			}
			track(a.client.Translate(ctx, polyglot.TranslateInput{
				Text:            current,
				SourceLanguage:  *source,
				TargetLanguages: splitList(*to),
			}))
		case "listen", "l":
			text := current
			if arg != "" {
				text = arg
			}
			track(a.client.Listen(ctx, polyglot.ListenInput{Text: text, Language: *source, SpeakingRate: *rate}))
		case "text":
			current = arg
			a.client.ClearSelection()
		case "select", "s":
			if arg != "" && !strings.Contains(current, arg) {
				fmt.Fprintf(a.stderr, "%q does not occur in the current text\n", arg)
				continue
			}
			if a.client.Select(arg, current) {
				dimColor.Fprintf(a.stderr, "Selected %q\n", a.client.Selection().Text)
			}
		case "analyze", "a":
			track(a.client.Analyze(ctx, polyglot.AnalyzeInput{InputLanguage: *source, OutputLanguage: *output}))
		case "wait":
			waitAll()
		case "help", "?":
			fmt.Fprint(a.stderr, shellHelp)
		case "quit", "q", "exit":
			waitAll()
			return nil
		default:
			fmt.Fprintf(a.stderr, "unknown command %q, type help\n", cmd)
		}
	}
}
