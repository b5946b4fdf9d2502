package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/rubiojr/mcfc/compiler"
	"github.com/rubiojr/mcfc/datapack"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"
)

// Execute runs the mcfc CLI with the given version string.
func Execute(version string) {
	if err := New(version).Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// New builds the root command. Output goes to the command's Writer and
// ErrWriter, which default to stdout and stderr.
func New(version string) *cli.Command {
	return &cli.Command{
		Name:                   "mcfc",
		Usage:                  "Compile indented, macro-capable .mcf sources into datapack functions",
		Version:                version,
		UseShortOptionHandling: true,
		Commands: []*cli.Command{
			{
				Name:      "build",
				Usage:     "Compile namespaces and write .mcfunction files",
				ArgsUsage: "<namespace>...",
				Flags:     append(commonFlags(), compileFlags()...),
				Action:    buildAction,
			},
			{
				Name:      "emit",
				Usage:     "Print the compiled functions of a namespace",
				ArgsUsage: "<namespace>",
				Flags: append(append(commonFlags(), compileFlags()...),
					&cli.BoolFlag{
						Name:    "no-color",
						Aliases: []string{"C"},
						Usage:   "Disable ANSI color output",
					},
				),
				Action: emitAction,
			},
			{
				Name:      "init",
				Usage:     "Create pack.mcmeta and the functions directory of each namespace",
				ArgsUsage: "<namespace>...",
				Flags: append(commonFlags(),
					&cli.StringFlag{
						Name:  "description",
						Usage: "Datapack description written to pack.mcmeta",
					},
				),
				Action: initAction,
			},
		},
	}
}

func commonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "root",
			Aliases: []string{"r"},
			Usage:   "Directory the datapack lives in",
			Value:   ".",
			Sources: cli.EnvVars("MCFC_ROOT"),
		},
		&cli.StringFlag{
			Name:     "datapack",
			Aliases:  []string{"d"},
			Usage:    "Datapack name",
			Required: true,
			Sources:  cli.EnvVars("MCFC_DATAPACK"),
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "Log every compilation step",
		},
	}
}

func compileFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "dedupe-blocks",
			Usage: "Share one generated function between identical indented blocks",
		},
		&cli.IntFlag{
			Name:  "max-passes",
			Usage: "Maximum inline macro expansion passes per function",
			Value: compiler.DefaultMaxExpansionPasses,
		},
	}
}

func buildAction(ctx context.Context, cmd *cli.Command) error {
	if cmd.NArg() < 1 {
		return fmt.Errorf("usage: mcfc build -d <datapack> <namespace>...")
	}
	namespaces, err := namespaces(cmd)
	if err != nil {
		return err
	}
	comp := newCompiler(cmd)
	for _, ns := range namespaces {
		if _, err := comp.Build(ns); err != nil {
			return err
		}
	}
	return nil
}

func emitAction(ctx context.Context, cmd *cli.Command) error {
	if cmd.NArg() != 1 {
		return fmt.Errorf("usage: mcfc emit -d <datapack> <namespace>")
	}
	namespaces, err := namespaces(cmd)
	if err != nil {
		return err
	}
	_, err = newCompiler(cmd).Emit(namespaces[0], cmd.Root().Writer, useColor(cmd))
	return err
}

func initAction(ctx context.Context, cmd *cli.Command) error {
	if cmd.NArg() < 1 {
		return fmt.Errorf("usage: mcfc init -d <datapack> <namespace>...")
	}
	namespaces, err := namespaces(cmd)
	if err != nil {
		return err
	}
	dp := namespaces[0].Datapack
	dp.Description = cmd.String("description")
	if err := dp.WriteMeta(); err != nil {
		return err
	}
	log := newLogger(cmd)
	for _, ns := range namespaces {
		dir := ns.FunctionsDir()
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
		log.Info("namespace initialized", "namespace", ns.Name, "dir", dir)
	}
	return nil
}

// namespaces validates the datapack flag and every namespace argument
// before any work starts.
func namespaces(cmd *cli.Command) ([]*datapack.Namespace, error) {
	dp, err := datapack.New(cmd.String("root"), cmd.String("datapack"))
	if err != nil {
		return nil, err
	}
	var out []*datapack.Namespace
	for _, name := range cmd.Args().Slice() {
		ns, err := dp.Namespace(name)
		if err != nil {
			return nil, err
		}
		out = append(out, ns)
	}
	return out, nil
}

func newCompiler(cmd *cli.Command) *compiler.Compiler {
	return &compiler.Compiler{
		Logger:             newLogger(cmd),
		DedupeBlocks:       cmd.Bool("dedupe-blocks"),
		MaxExpansionPasses: cmd.Int("max-passes"),
	}
}

func newLogger(cmd *cli.Command) *slog.Logger {
	level := slog.LevelWarn
	if cmd.Bool("verbose") {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(cmd.Root().ErrWriter, &slog.HandlerOptions{Level: level}))
}

// useColor reports whether emit output should be colored: never with
// --no-color or NO_COLOR, otherwise only when writing to a terminal.
func useColor(cmd *cli.Command) bool {
	if cmd.Bool("no-color") || os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := cmd.Root().Writer.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
