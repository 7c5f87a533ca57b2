// isocat - Browse and read files from ISO 9660 images
//
// Usage:
//
//	isocat [global flags] <image>                 interactive shell
//	isocat [global flags] info <image>
//	isocat [global flags] ls [-l] [-a] [-H] <image> [path]
//	isocat [global flags] cat <image> <path>
//	isocat [global flags] get [-o dir] <image> <path>
//	isocat [global flags] stat <image> <path>
//	isocat [global flags] extract [-o dir] <image>
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	"golang.org/x/term"

	"github.com/lvdlvd/isocat/cmd"
	"github.com/lvdlvd/isocat/config"
	"github.com/lvdlvd/isocat/detect"
	"github.com/lvdlvd/isocat/iso9660"
	"github.com/lvdlvd/isocat/mapped"
	"github.com/lvdlvd/isocat/session"
)

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "isocat: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	app := &cli.App{
		Name:      "isocat",
		Usage:     "browse and read files from ISO 9660 images",
		ArgsUsage: "<image>",
		Reader:    stdin,
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "load configuration from `FILE`",
				EnvVars: []string{"ISOCAT_CONFIG"},
			},
			&cli.StringFlag{Name: "log-level", Usage: "log level (overrides config)"},
			&cli.BoolFlag{Name: "strict", Usage: "treat dual-endian mismatches as errors"},
			&cli.BoolFlag{Name: "no-mmap", Usage: "read the image into memory instead of mapping it"},
		},
		Action: runShell,
		Commands: []*cli.Command{
			{
				Name:      "shell",
				Usage:     "browse the image interactively",
				ArgsUsage: "<image>",
				Action:    runShell,
			},
			{
				Name:      "info",
				Usage:     "show the primary volume descriptor",
				ArgsUsage: "<image>",
				Action:    runInfo,
			},
			{
				Name:      "ls",
				Usage:     "list a directory",
				ArgsUsage: "<image> [path]",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "l", Usage: "use long listing format"},
					&cli.BoolFlag{Name: "a", Usage: "show \".\", \"..\" and hidden entries"},
					&cli.BoolFlag{Name: "H", Usage: "print human-readable sizes"},
				},
				Action: runLs,
			},
			{
				Name:      "cat",
				Usage:     "write a file to stdout",
				ArgsUsage: "<image> <path>",
				Action:    runCat,
			},
			{
				Name:      "get",
				Usage:     "copy a file to a local directory",
				ArgsUsage: "<image> <path>",
				Flags:     []cli.Flag{outputFlag()},
				Action:    runGet,
			},
			{
				Name:      "stat",
				Usage:     "show a directory entry",
				ArgsUsage: "<image> <path>",
				Action:    runStat,
			},
			{
				Name:      "extract",
				Usage:     "copy the whole tree to a local directory",
				ArgsUsage: "<image>",
				Flags:     []cli.Flag{outputFlag()},
				Action:    runExtract,
			},
		},
	}
	return app.Run(append([]string{"isocat"}, args...))
}

func outputFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "output",
		Aliases: []string{"o"},
		Usage:   "destination `DIR` (default from config)",
	}
}

// image is an opened image file and the session browsing it.
type image struct {
	file *mapped.File
	sess *session.Session
	cfg  config.Config
	log  *logrus.Logger
}

func (im *image) Close() error { return im.file.Close() }

// loadConfig reads the configuration file and applies flag overrides.
func loadConfig(c *cli.Context) (config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return cfg, err
	}
	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}
	if c.IsSet("strict") {
		cfg.Strict = c.Bool("strict")
	}
	if c.IsSet("no-mmap") {
		cfg.NoMmap = c.Bool("no-mmap")
	}
	if c.IsSet("output") {
		cfg.OutputDir = c.String("output")
	}
	return cfg, cfg.Validate()
}

// openImage maps the image named by the first argument and starts a
// session at its root.
func openImage(c *cli.Context, nargs int) (*image, error) {
	if c.NArg() < nargs {
		if c.Command == nil {
			return nil, errors.New("usage: isocat <image>")
		}
		return nil, errors.Errorf("usage: %s %s", c.Command.HelpName, c.Command.ArgsUsage)
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}
	log, err := cfg.Logger()
	if err != nil {
		return nil, err
	}
	log.SetOutput(c.App.ErrWriter)

	path := c.Args().First()
	open := mapped.Open
	if cfg.NoMmap {
		open = mapped.Load
	}
	f, err := open(path)
	if err != nil {
		return nil, errors.Wrap(err, "opening image")
	}

	t, err := detect.Detect(f)
	if err != nil {
		f.Close()
		return nil, errors.Wrap(err, "detecting filesystem")
	}
	if t != detect.ISO9660 {
		f.Close()
		return nil, errors.Errorf("%s: not an ISO 9660 image (detected %s)", path, t)
	}
	log.WithField("image", path).Debugf("opened %d bytes", f.Len())

	img := iso9660.NewImage(f.Bytes(), iso9660.WithStrict(cfg.Strict), iso9660.WithLogger(log))
	sess, err := session.New(img, session.WithLogger(log))
	if err != nil {
		f.Close()
		return nil, errors.Wrap(err, path)
	}
	return &image{file: f, sess: sess, cfg: cfg, log: log}, nil
}

func runShell(c *cli.Context) error {
	im, err := openImage(c, 1)
	if err != nil {
		return err
	}
	defer im.Close()

	sh := &cmd.Shell{
		Session:   im.sess,
		In:        c.App.Reader,
		Out:       c.App.Writer,
		Err:       c.App.ErrWriter,
		OutputDir: im.cfg.OutputDir,
	}
	if isTerminal(c.App.Reader) {
		sh.Prompt = im.cfg.Prompt
	}
	return sh.Run()
}

// isTerminal reports whether r is an interactive terminal.
func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func runInfo(c *cli.Context) error {
	im, err := openImage(c, 1)
	if err != nil {
		return err
	}
	defer im.Close()

	cmd.Info(im.sess.Info(), c.App.Writer)
	return nil
}

func runLs(c *cli.Context) error {
	im, err := openImage(c, 1)
	if err != nil {
		return err
	}
	defer im.Close()

	return cmd.Ls(im.sess, c.Args().Get(1), c.App.Writer, cmd.LsOptions{
		Long:  c.Bool("l"),
		All:   c.Bool("a"),
		Human: c.Bool("H"),
	})
}

func runCat(c *cli.Context) error {
	im, err := openImage(c, 2)
	if err != nil {
		return err
	}
	defer im.Close()

	return cmd.Cat(im.sess, c.Args().Get(1), c.App.Writer)
}

func runGet(c *cli.Context) error {
	im, err := openImage(c, 2)
	if err != nil {
		return err
	}
	defer im.Close()

	_, err = cmd.Get(im.sess, c.Args().Get(1), im.cfg.OutputDir, c.App.Writer)
	return err
}

func runStat(c *cli.Context) error {
	im, err := openImage(c, 2)
	if err != nil {
		return err
	}
	defer im.Close()

	return cmd.Stat(im.sess, c.Args().Get(1), c.App.Writer)
}

func runExtract(c *cli.Context) error {
	im, err := openImage(c, 1)
	if err != nil {
		return err
	}
	defer im.Close()

	filesystem, err := iso9660.NewFS(im.sess.Image())
	if err != nil {
		return err
	}
	im.log.WithField("dir", im.cfg.OutputDir).Info("extracting")
	return cmd.Extract(filesystem, im.cfg.OutputDir, im.log)
}
