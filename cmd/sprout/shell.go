package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"

	"github.com/phanxgames/sprout"
)

const (
	frameDT = 1.0 / 60
	// settleFrames is how far the scene clock moves after each line, long
	// enough for the spawn pop-in to finish.
	settleFrames = 30
)

// lineReader is the part of readline.Instance the shell needs.
type lineReader interface {
	Readline() (string, error)
}

// shell is the interactive front end. It owns a headless session whose
// clock advances a fixed number of frames per entered line.
type shell struct {
	session *sprout.Session
	frames  *sprout.ManualFrames
	watcher *sprout.DictionaryWatcher
	out     io.Writer
}

func newShell(sc sprout.SessionConfig, w *sprout.DictionaryWatcher, out io.Writer) *shell {
	frames := &sprout.ManualFrames{}
	sc.Frames = frames
	return &shell{
		session: sprout.NewSession(sc),
		frames:  frames,
		watcher: w,
		out:     out,
	}
}

func (sh *shell) loop(ctx context.Context, rl lineReader) error {
	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			if len(line) == 0 {
				fmt.Fprintln(sh.out, "bye")
				return nil
			}
			continue
		} else if errors.Is(err, io.EOF) {
			fmt.Fprintln(sh.out, "bye")
			return nil
		} else if err != nil {
			return err
		}
		if sh.handle(ctx, line) {
			return nil
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}

// handle runs one line and reports whether the shell should exit.
func (sh *shell) handle(ctx context.Context, line string) bool {
	line = strings.TrimSpace(line)
	if sh.watcher != nil {
		if err := sh.session.PollDictionary(sh.watcher); err != nil {
			fmt.Fprintln(sh.out, red("dictionary: "+err.Error()))
		}
	}
	defer sh.frames.Run(settleFrames, frameDT)

	if sh.session.PendingDelete() != nil {
		switch strings.ToLower(line) {
		case "y", "yes", "はい", "ok":
			sh.print(sh.session.Confirm())
			return false
		case "n", "no", "いいえ":
			_ = sh.session.Cancel()
			fmt.Fprintln(sh.out, gray("cancelled"))
			return false
		}
	}

	if strings.HasPrefix(line, ":") {
		return sh.command(line)
	}
	switch line {
	case "":
		return false
	case "exit", "quit":
		return true
	}

	out := sh.session.Submit(ctx, line)
	sh.print(out)
	if out.Pending && out.Command.Intent == sprout.IntentGenerate {
		outs, err := sh.session.Wait(ctx)
		for _, o := range outs {
			sh.print(o)
		}
		if err != nil {
			fmt.Fprintln(sh.out, red("generation interrupted: "+err.Error()))
		}
	}
	return false
}

func (sh *shell) command(line string) bool {
	name, arg, _ := strings.Cut(strings.TrimPrefix(line, ":"), " ")
	arg = strings.TrimSpace(arg)
	switch name {
	case "q", "quit", "exit":
		return true
	case "help", "h":
		sh.help()
	case "list", "ls":
		sh.list()
	case "import":
		if arg == "" {
			fmt.Fprintln(sh.out, red("usage: :import <file>"))
			break
		}
		sh.print(sh.session.Import(arg))
	case "select":
		if err := sh.session.Select(arg); err != nil {
			fmt.Fprintln(sh.out, red(err.Error()))
			break
		}
		fmt.Fprintln(sh.out, green("selected "+arg))
	case "history":
		sh.history(arg)
	case "rules":
		fmt.Fprintln(sh.out, strings.Join(sh.session.Classifier().Rules(), " → "))
	case "debug":
		sprout.SetDebugMode(!sprout.DebugMode())
		fmt.Fprintf(sh.out, "debug %v\n", sprout.DebugMode())
	default:
		fmt.Fprintln(sh.out, red("unknown command :"+name))
	}
	return false
}

func (sh *shell) help() {
	fmt.Fprintln(sh.out, `  <sentence>        run a command, e.g. 猫を青くして / make it glow
  :import <file>    add a file to the scene
  :select <id>      select by id
  :list             list objects
  :history <id>     show an object's changes
  :rules            show the classifier rule order
  :debug            toggle trace output
  :quit             leave`)
}

func (sh *shell) list() {
	recs := sh.session.Registry().All()
	if len(recs) == 0 {
		fmt.Fprintln(sh.out, gray("(empty scene)"))
		return
	}
	selected := sh.session.Selected()
	for _, rec := range recs {
		mark := " "
		if rec == selected {
			mark = yellow("*")
		}
		line := fmt.Sprintf("%s %-8s %-16s %s", mark, rec.ID, rec.Source, rec.Prompt)
		if rec.Status != sprout.StatusReady {
			line += " " + gray("["+rec.Status.String()+"]")
		}
		var kinds []string
		for _, e := range sh.session.Animator().Effects(rec.ID) {
			kinds = append(kinds, e.Kind().String())
		}
		if len(kinds) > 0 {
			line += " " + cyan(strings.Join(kinds, ","))
		}
		fmt.Fprintln(sh.out, line)
	}
}

func (sh *shell) history(id string) {
	rec, ok := sh.session.Registry().Get(id)
	if !ok {
		fmt.Fprintln(sh.out, red("no object "+id))
		return
	}
	if len(rec.History) == 0 {
		fmt.Fprintln(sh.out, gray("(no changes)"))
		return
	}
	for _, m := range rec.History {
		fmt.Fprintf(sh.out, "%s %-10s %s\n", gray(m.At.Format("15:04:05")), m.Field, m.Detail)
	}
}

// print renders an outcome: red for errors, yellow when it waits on the
// user, green otherwise, with mutation details in gray.
func (sh *shell) print(out sprout.Outcome) {
	switch {
	case out.Err != nil:
		msg := out.Message
		if msg == "" {
			msg = out.Err.Error()
		}
		fmt.Fprintf(sh.out, "%s %s\n", red("✗ "+msg), gray("("+sprout.ErrorCode(out.Err)+")"))
	case out.NeedsFile:
		fmt.Fprintln(sh.out, yellow("which file? use :import <file>"))
	case out.Pending && out.Command.RequiresConfirmation:
		fmt.Fprintln(sh.out, yellow(out.Message+" [y/n]"))
	case out.Pending:
		fmt.Fprintln(sh.out, gray(out.Message))
	case out.Message != "":
		fmt.Fprintln(sh.out, green("✓ "+out.Message))
	}
	if m := out.Mutation; m != nil {
		for _, sk := range m.Skipped {
			fmt.Fprintf(sh.out, "  %s\n", gray("skipped "+sk.Field+": "+sk.Err.Error()))
		}
	}
}
