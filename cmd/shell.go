package cmd

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"

	"github.com/lvdlvd/isocat/session"
)

const shellHelp = `help: display command help
info: display volume info
ls [path]: display the content of a directory
cd [dir]: change current directory
get <file>: copy file to local directory
cat <file>: display file content
pwd: print current path
quit: exit program
`

// Shell is the interactive command loop over one session.
type Shell struct {
	Session   *session.Session
	In        io.Reader
	Out       io.Writer
	Err       io.Writer
	Prompt    string // printed before each command when not empty
	OutputDir string // destination of get
}

// Run reads commands until quit, exit or end of input. A failing command
// prints its error and the loop continues.
func (sh *Shell) Run() error {
	sc := bufio.NewScanner(sh.In)
	for {
		if sh.Prompt != "" {
			fmt.Fprintf(sh.Out, "\n%s", sh.Prompt)
		}
		if !sc.Scan() {
			return sc.Err()
		}
		name, arg := splitCommand(sc.Text())
		if name == "quit" || name == "exit" {
			return nil
		}
		if err := sh.exec(name, arg); err != nil {
			fmt.Fprintln(sh.Err, err)
		}
	}
}

func splitCommand(line string) (name, arg string) {
	line = strings.TrimSpace(line)
	if i := strings.IndexAny(line, " \t"); i >= 0 {
		return line[:i], strings.TrimSpace(line[i+1:])
	}
	return line, ""
}

func (sh *Shell) exec(name, arg string) error {
	s := sh.Session
	switch name {
	case "":
		return nil
	case "help":
		fmt.Fprint(sh.Out, shellHelp)
	case "info":
		Info(s.Info(), sh.Out)
	case "ls":
		return Ls(s, arg, sh.Out, LsOptions{Long: true, All: true})
	case "cd":
		return s.Cd(arg)
	case "pwd":
		fmt.Fprintln(sh.Out, s.Pwd())
	case "get":
		if arg == "" {
			return errors.New("usage: get <file>")
		}
		_, err := Get(s, arg, sh.OutputDir, sh.Out)
		return err
	case "cat":
		if arg == "" {
			return errors.New("usage: cat <file>")
		}
		return Cat(s, arg, sh.Out)
	default:
		return errors.Errorf("unknown command: %s", name)
	}
	return nil
}
