package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/starford/slipbox/internal"
	"github.com/starford/slipbox/internal/noteservice"
	"github.com/starford/slipbox/internal/repository"
)

func commands() []*cli.Command {
	return []*cli.Command{
		{
			Name:      "init",
			Usage:     "Create a repository in DIR (default: the working directory)",
			ArgsUsage: "[DIR]",
			Action:    runInit,
		},
		{
			Name:      "create",
			Usage:     "Create a note",
			ArgsUsage: "TITLE",
			Flags: []cli.Flag{
				&cli.StringSliceFlag{Name: "tag", Aliases: []string{"t"}, Usage: "Tag; repeat for several"},
				&cli.StringSliceFlag{Name: "parent", Aliases: []string{"p"}, Usage: "Parent note id; repeat for several"},
				&cli.StringFlag{Name: "type", Usage: "Note type (default: default_new_type)"},
				&cli.StringFlag{Name: "bibkey", Usage: "Citation key for Reference notes"},
				&cli.StringFlag{Name: "content", Aliases: []string{"c"}, Usage: "Note body"},
				&cli.BoolFlag{Name: "edit", Aliases: []string{"e"}, Usage: "Open the new note in the editor"},
			},
			Action: withApp(func(ctx context.Context, cmd *cli.Command, app *internal.App) error {
				title := cmd.Args().First()
				if title == "" {
					return fmt.Errorf("create: a title is required")
				}
				return app.Create(ctx, repository.CreateParams{
					Title:   title,
					Tags:    cmd.StringSlice("tag"),
					Parents: cmd.StringSlice("parent"),
					Type:    cmd.String("type"),
					Bibkey:  cmd.String("bibkey"),
					Content: cmd.String("content"),
				}, cmd.Bool("edit"))
			}),
		},
		{
			Name:      "update",
			Usage:     "Re-save one note, or every note when none is named",
			ArgsUsage: "[ID]",
			Flags: append(queryFlags(),
				&cli.BoolFlag{Name: "reset-date", Usage: "Also move the note's date to now"},
			),
			Action: withApp(func(ctx context.Context, cmd *cli.Command, app *internal.App) error {
				return app.Update(ctx, query(cmd), cmd.Bool("reset-date"))
			}),
		},
		{
			Name:      "edit",
			Usage:     "Open a note in $VISUAL or $EDITOR",
			ArgsUsage: "[ID]",
			Flags:     queryFlags(),
			Action: withApp(func(ctx context.Context, cmd *cli.Command, app *internal.App) error {
				return app.Edit(ctx, requiredQuery(cmd))
			}),
		},
		{
			Name:  "notes",
			Usage: "List notes of the default view type, or filtered by tag and type",
			Flags: []cli.Flag{
				&cli.BoolFlag{Name: "all", Aliases: []string{"a"}, Usage: "List every note"},
				&cli.StringSliceFlag{Name: "tag", Aliases: []string{"t"}, Usage: "Only notes with this tag; repeat for several"},
				&cli.StringSliceFlag{Name: "type", Usage: "Only notes of this type; repeat for several"},
			},
			Action: withApp(func(ctx context.Context, cmd *cli.Command, app *internal.App) error {
				return app.Notes(ctx, noteservice.ListParams{
					All:   cmd.Bool("all"),
					Tags:  cmd.StringSlice("tag"),
					Types: cmd.StringSlice("type"),
				})
			}),
		},
		{
			Name:      "links",
			Usage:     "Show the notes linking to and from a note",
			ArgsUsage: "[ID]",
			Flags:     queryFlags(),
			Action: withApp(func(ctx context.Context, cmd *cli.Command, app *internal.App) error {
				return app.Links(ctx, requiredQuery(cmd))
			}),
		},
		{
			Name:      "sequence",
			Usage:     "Show a note's parents and children",
			ArgsUsage: "[ID]",
			Flags:     queryFlags(),
			Action: withApp(func(ctx context.Context, cmd *cli.Command, app *internal.App) error {
				return app.Sequence(ctx, requiredQuery(cmd))
			}),
		},
		{
			Name:      "show",
			Usage:     "Print every field of a note",
			ArgsUsage: "[ID]",
			Flags:     queryFlags(),
			Action: withApp(func(ctx context.Context, cmd *cli.Command, app *internal.App) error {
				return app.Show(ctx, requiredQuery(cmd))
			}),
		},
		{
			Name:  "tags",
			Usage: "List tags with their note counts",
			Action: withApp(func(ctx context.Context, _ *cli.Command, app *internal.App) error {
				return app.Tags(ctx)
			}),
		},
		{
			Name:      "html",
			Usage:     "Render one note, or every note and the overview page, to HTML",
			ArgsUsage: "[ID]",
			Flags: append(queryFlags(),
				&cli.BoolFlag{Name: "watch", Aliases: []string{"w"}, Usage: "Keep running and re-render changed notes"},
			),
			Action: withApp(func(ctx context.Context, cmd *cli.Command, app *internal.App) error {
				return app.HTML(ctx, query(cmd), cmd.Bool("watch"))
			}),
		},
		{
			Name:      "pdf",
			Usage:     "Render one note, or every note, to PDF with pandoc",
			ArgsUsage: "[ID]",
			Flags:     queryFlags(),
			Action: withApp(func(ctx context.Context, cmd *cli.Command, app *internal.App) error {
				return app.PDF(ctx, query(cmd))
			}),
		},
		{
			Name:  "settings",
			Usage: "Print the settings, or change them with --set key=value",
			Flags: []cli.Flag{
				&cli.StringSliceFlag{Name: "set", Usage: "key=value; repeat for several"},
			},
			Action: withApp(func(ctx context.Context, cmd *cli.Command, app *internal.App) error {
				return app.Settings(ctx, cmd.StringSlice("set"))
			}),
		},
		{
			Name:  "serve",
			Usage: "Serve the HTTP API with live change events",
			Action: withApp(func(ctx context.Context, _ *cli.Command, app *internal.App) error {
				return app.Serve(ctx)
			}),
		},
		{
			Name:  "mcp",
			Usage: "Serve MCP tools over stdin/stdout",
			Action: withApp(func(ctx context.Context, _ *cli.Command, app *internal.App) error {
				return app.ServeMCP(ctx)
			}),
		},
	}
}

func runInit(ctx context.Context, cmd *cli.Command) error {
	dir := cmd.Args().First()
	if dir == "" {
		dir = cmd.String("root")
	}
	if dir == "" {
		dir = "."
	}
	root, err := internal.InitRepository(ctx, dir, nil)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.Root().Writer, "Initialised slipbox in %s\n", root)
	return nil
}

type appAction func(ctx context.Context, cmd *cli.Command, app *internal.App) error

// withApp opens the repository before running fn.
func withApp(fn appAction) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		opts := []internal.Option{internal.WithOutput(cmd.Root().Writer)}
		if root := cmd.String("root"); root != "" {
			opts = append(opts, internal.WithRoot(root))
		}
		app, err := internal.New(opts...)
		if err != nil {
			return err
		}
		return fn(ctx, cmd, app)
	}
}

func queryFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "id", Usage: "Note id, or a fragment of its file name"},
		&cli.StringFlag{Name: "title", Usage: "Note title, or a fragment of its file name"},
		&cli.StringFlag{Name: "file", Aliases: []string{"f"}, Usage: "Note file name"},
	}
}

// query reads the note lookup flags. A positional argument stands in for
// --id. It returns nil when nothing names a note.
func query(cmd *cli.Command) *repository.Query {
	q := repository.Query{
		ID:       cmd.String("id"),
		Title:    cmd.String("title"),
		Filename: cmd.String("file"),
	}
	if q.ID == "" && cmd.Args().Present() {
		q.ID = cmd.Args().First()
	}
	if q == (repository.Query{}) {
		return nil
	}
	return &q
}

func requiredQuery(cmd *cli.Command) repository.Query {
	if q := query(cmd); q != nil {
		return *q
	}
	return repository.Query{}
}
