package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/daikw/colorcommentary/internal/broadcast"
	"github.com/daikw/colorcommentary/internal/personality"
)

var errQuit = errors.New("quit")

// toggle is the part of the speaker the console switches on and off.
type toggle interface {
	Enabled() bool
	SetEnabled(bool)
}

// console applies typed commands to a running session.
type console struct {
	ctx      context.Context
	session  *broadcast.Session
	registry *personality.Registry
	speech   toggle
	out      io.Writer
}

const consoleHelp = `Commands:
  <enter>, poll           comment now instead of waiting
  p <id>, next            switch personality (list: p)
  names                   show the roster
  rename <n> <name>       rename roster entry n
  remove <n>              remove roster entry n
  add                     add a roster entry
  mute, unmute            toggle speech
  start, stop             go live / off air
  q, quit                 exit`

// run reads commands until the input ends, ctx is done or the user quits.
func (c *console) run(in io.Reader) {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-c.ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-c.ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			if err := c.exec(line); err != nil {
				if errors.Is(err, errQuit) {
					return
				}
				fmt.Fprintln(c.out, errorStyle.Sprint(err))
			}
		}
	}
}

func (c *console) exec(line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		c.session.Controller().PollNow()
		return nil
	}
	cmd, args := strings.ToLower(fields[0]), fields[1:]
	state := c.session.State()

	switch cmd {
	case "q", "quit", "exit":
		return errQuit
	case "h", "help", "?":
		fmt.Fprintln(c.out, consoleHelp)
	case "poll":
		c.session.Controller().PollNow()
	case "p", "personality":
		if len(args) == 0 {
			current := state.Snapshot().Personality
			for _, p := range c.registry.List() {
				marker := " "
				if p.ID == current {
					marker = "*"
				}
				fmt.Fprintf(c.out, " %s %-14s %s\n", marker, p.ID, p.Name)
			}
			return nil
		}
		if _, ok := c.registry.Lookup(args[0]); !ok {
			return fmt.Errorf("unknown personality '%s'", args[0])
		}
		c.session.Controller().SwitchPersonality(args[0])
	case "n", "next":
		c.session.Controller().SwitchPersonality(c.registry.Next(state.Snapshot().Personality))
	case "names", "roster":
		r := state.Snapshot().Roster
		if len(r) == 0 {
			fmt.Fprintln(c.out, "No one on the roster")
		}
		for i, name := range r {
			fmt.Fprintf(c.out, "  %d. %s\n", i+1, name)
		}
	case "rename":
		if len(args) < 2 {
			return errors.New("usage: rename <n> <name>")
		}
		i, err := rosterIndex(args[0])
		if err != nil {
			return err
		}
		return state.RenameParticipant(i, strings.Join(args[1:], " "))
	case "remove", "rm":
		if len(args) != 1 {
			return errors.New("usage: remove <n>")
		}
		i, err := rosterIndex(args[0])
		if err != nil {
			return err
		}
		return state.RemoveParticipant(i)
	case "add":
		state.AddParticipant()
	case "mute", "unmute", "tts":
		if c.speech == nil {
			return errors.New("speech is not configured")
		}
		enabled := cmd == "unmute"
		if cmd == "tts" {
			enabled = !c.speech.Enabled()
		}
		c.speech.SetEnabled(enabled)
		fmt.Fprintf(c.out, "Speech %s\n", map[bool]string{true: "on", false: "off"}[enabled])
	case "start":
		c.session.Reset()
		return c.session.Start(c.ctx)
	case "stop":
		c.session.Stop()
	default:
		return fmt.Errorf("unknown command '%s' (type 'help')", cmd)
	}
	return nil
}

// rosterIndex converts a 1-based entry number.
func rosterIndex(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid entry number '%s'", s)
	}
	return n - 1, nil
}
