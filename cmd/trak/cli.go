package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/hpungsan/trak/internal/binder"
	"github.com/hpungsan/trak/internal/config"
	"github.com/hpungsan/trak/internal/errors"
	"github.com/hpungsan/trak/internal/ops"
	"github.com/hpungsan/trak/internal/project"
)

// newCLIApp creates the CLI application with all commands.
func newCLIApp(db *sql.DB, cfg *config.Config, baseDir string) *cli.App {
	app := &cli.App{
		Name:    "trak",
		Usage:   "Local project tracker",
		Version: Version,
		Commands: []*cli.Command{
			createCmd(db, cfg),
			showCmd(db, cfg),
			listCmd(db),
			updateCmd(db, cfg),
			deleteCmd(db, cfg),
			exportCmd(db, baseDir),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// createCmd creates the create command.
func createCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "create",
		Usage:     "Create a new project (optionally reads notes from stdin)",
		ArgsUsage: "<name>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "summary", Aliases: []string{"s"}, Usage: "One-line summary"},
			&cli.StringFlag{Name: "status", Value: "active", Usage: "Status: active|paused|done"},
			&cli.StringFlag{Name: "tags", Usage: "Comma-separated tags"},
			&cli.StringFlag{Name: "assign", Usage: "Comma-separated assignments as resource:role pairs"},
			&cli.StringFlag{Name: "started", Usage: "Start date (YYYY-MM-DD)"},
			&cli.StringFlag{Name: "due", Usage: "Due date (YYYY-MM-DD)"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return outputError(errors.NewInvalidRequest("name is required"))
			}

			input := ops.CreateInput{
				Name:    c.Args().First(),
				Summary: c.String("summary"),
				Status:  c.String("status"),
				Tags:    parseTags(c.String("tags")),
			}

			if stdinHasData() {
				notes, err := readStdin()
				if err != nil {
					return outputError(errors.NewInternal(err))
				}
				input.Notes = notes
			}

			if assign := c.String("assign"); assign != "" {
				assignments, err := parseAssignments(assign)
				if err != nil {
					return outputError(err)
				}
				input.Assignments = assignments
			}

			var err error
			if input.StartedAt, err = parseDate(c.String("started")); err != nil {
				return outputError(err)
			}
			if input.DueAt, err = parseDate(c.String("due")); err != nil {
				return outputError(err)
			}

			output, err := ops.Create(c.Context, db, cfg, input)
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// showCmd creates the show command. It loads the project through a bound
// view model, the same path interactive frontends use.
func showCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "show",
		Usage:     "Show a project by id",
		ArgsUsage: "<id>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "include-deleted", Usage: "Also match soft-deleted projects"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return outputError(errors.NewInvalidRequest("id is required"))
			}

			if c.Bool("include-deleted") {
				// The factory registry has no deleted-read method; go direct.
				p, err := ops.Get(db, cfg, ops.GetInput{ID: c.Args().First(), IncludeDeleted: true})
				if err != nil {
					return outputError(err)
				}
				return outputJSON(ops.ViewOf(p))
			}

			b := newBinder(db, cfg)
			p, err := bindProject(c, b, c.Args().First())
			if err != nil {
				return outputError(err)
			}

			return outputJSON(ops.ViewOf(p))
		},
	}
}

// listCmd creates the list command.
func listCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List projects, most recently updated first",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "status", Usage: "Filter by status: active|paused|done"},
			&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Value: 20, Usage: "Maximum items to return"},
			&cli.IntFlag{Name: "offset", Aliases: []string{"o"}, Value: 0, Usage: "Items to skip"},
			&cli.BoolFlag{Name: "include-deleted", Usage: "Include soft-deleted projects"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.List(db, ops.ListInput{
				Status:         c.String("status"),
				Limit:          c.Int("limit"),
				Offset:         c.Int("offset"),
				IncludeDeleted: c.Bool("include-deleted"),
			})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// updateCmd creates the update command. Edits flow through the bound view
// model so validation, dirty tracking, and the save pipeline all apply.
func updateCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "update",
		Usage:     "Update fields of a project (optionally reads notes from stdin)",
		ArgsUsage: "<id>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "name", Aliases: []string{"n"}, Usage: "New project name"},
			&cli.StringFlag{Name: "summary", Aliases: []string{"s"}, Usage: "New one-line summary"},
			&cli.StringFlag{Name: "status", Usage: "New status: active|paused|done"},
			&cli.StringFlag{Name: "tags", Usage: "New comma-separated tags"},
			&cli.StringFlag{Name: "assign", Usage: "New comma-separated resource:role pairs"},
			&cli.StringFlag{Name: "started", Usage: "New start date (YYYY-MM-DD)"},
			&cli.StringFlag{Name: "due", Usage: "New due date (YYYY-MM-DD)"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return outputError(errors.NewInvalidRequest("id is required"))
			}

			b := newBinder(db, cfg)
			p, err := bindProject(c, b, c.Args().First())
			if err != nil {
				return outputError(err)
			}

			touched := false
			if c.IsSet("name") {
				p.Name = c.String("name")
				touched = true
			}
			if c.IsSet("summary") {
				p.Summary = c.String("summary")
				touched = true
			}
			if c.IsSet("status") {
				p.Status = project.Status(c.String("status"))
				touched = true
			}
			if c.IsSet("tags") {
				p.Tags = parseTags(c.String("tags"))
				touched = true
			}
			if c.IsSet("assign") {
				assignments, err := parseAssignments(c.String("assign"))
				if err != nil {
					return outputError(err)
				}
				p.Assignments = assignments
				touched = true
			}
			if c.IsSet("started") {
				if p.StartedAt, err = parseDate(c.String("started")); err != nil {
					return outputError(err)
				}
				touched = true
			}
			if c.IsSet("due") {
				if p.DueAt, err = parseDate(c.String("due")); err != nil {
					return outputError(err)
				}
				touched = true
			}
			if stdinHasData() {
				notes, err := readStdin()
				if err != nil {
					return outputError(errors.NewInternal(err))
				}
				p.Notes = notes
				touched = true
			}

			if !touched {
				return outputError(errors.NewInvalidRequest("at least one field must be provided"))
			}

			b.Invalidate()
			if !p.IsValid() {
				return outputError(errors.NewInvalidRequest(strings.Join(p.Problems(), "; ")))
			}
			if !b.CanSave() {
				// Nothing actually changed; report current state.
				return outputJSON(ops.ViewOf(p))
			}

			if err := awaitVerb(b, func() error { return b.Save(c.Context) }); err != nil {
				return outputError(err)
			}

			return outputJSON(ops.ViewOf(b.Model().(*project.Project)))
		},
	}
}

// deleteCmd creates the delete command. Deletion runs through the bound
// view model's mark-then-save path.
func deleteCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "Soft-delete a project",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return outputError(errors.NewInvalidRequest("id is required"))
			}

			b := newBinder(db, cfg)
			if _, err := bindProject(c, b, c.Args().First()); err != nil {
				return outputError(err)
			}

			if err := b.Delete(); err != nil {
				return outputError(err)
			}
			if err := awaitVerb(b, func() error { return b.Save(c.Context) }); err != nil {
				return outputError(err)
			}

			p := b.Model().(*project.Project)
			return outputJSON(map[string]any{
				"deleted": p.DeletedAt() != nil,
				"id":      p.ID(),
			})
		},
	}
}

// exportCmd creates the export command.
func exportCmd(db *sql.DB, baseDir string) *cli.Command {
	return &cli.Command{
		Name:      "export",
		Usage:     "Render a project to an HTML file under the exports directory",
		ArgsUsage: "<id>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "filename", Aliases: []string{"f"}, Usage: "Output filename (must end in .html)"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return outputError(errors.NewInvalidRequest("id is required"))
			}

			output, err := ops.Export(db, baseDir, ops.ExportInput{
				ID:       c.Args().First(),
				Filename: c.String("filename"),
			})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// newBinder builds a binder over the operation registry, honoring the
// configured manage-lifetime setting.
func newBinder(db *sql.DB, cfg *config.Config) *binder.Binder {
	var opts []binder.Option
	if cfg.Managed() {
		opts = append(opts, binder.WithManagedLifetime())
	}
	return binder.New(ops.NewRegistry(db, cfg), opts...)
}

// bindProject refreshes the binder with the named project and returns the
// bound model.
func bindProject(c *cli.Context, b *binder.Binder, id string) (*project.Project, error) {
	err := awaitVerb(b, func() error {
		return b.Refresh(c.Context, ops.MethodProjectGet, id)
	})
	if err != nil {
		// Surface the underlying store error rather than the factory wrapper.
		var trakErr *errors.TrakError
		if e, ok := err.(*errors.TrakError); ok && e.Unwrap() != nil {
			if cause, ok := e.Unwrap().(*errors.TrakError); ok {
				trakErr = cause
			}
		}
		if trakErr != nil {
			return nil, trakErr
		}
		return nil, err
	}

	p, ok := b.Model().(*project.Project)
	if !ok {
		return nil, errors.NewInternal(fmt.Errorf("unexpected model type %T", b.Model()))
	}
	return p, nil
}

// awaitVerb starts an asynchronous binder verb and blocks until the binder
// goes idle, returning any captured failure. The subscription is registered
// before the verb starts so the completion cannot be missed.
func awaitVerb(b *binder.Binder, start func() error) error {
	idle := make(chan struct{})
	var once sync.Once
	unsub := b.Subscribe(func(prop string) {
		if prop == binder.PropIsBusy && !b.IsBusy() {
			once.Do(func() { close(idle) })
		}
	})
	defer unsub()

	if err := start(); err != nil {
		return err
	}
	<-idle
	return b.Err()
}

// outputJSON writes JSON to stdout with indentation.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats an error for CLI output.
func outputError(err error) error {
	if trakErr, ok := err.(*errors.TrakError); ok {
		return cli.Exit(fmt.Sprintf("[%s] %s", trakErr.Code, trakErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}

// parseTags splits comma-separated tags.
func parseTags(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// parseAssignments splits comma-separated resource:role pairs.
func parseAssignments(s string) ([]project.Assignment, error) {
	parts := strings.Split(s, ",")
	assignments := make([]project.Assignment, 0, len(parts))
	for _, p := range parts {
		pair := strings.TrimSpace(p)
		if pair == "" {
			continue
		}
		resource, role, found := strings.Cut(pair, ":")
		if !found || resource == "" || role == "" {
			return nil, errors.NewInvalidRequest(
				fmt.Sprintf("assignment %q must be resource:role", pair))
		}
		assignments = append(assignments, project.Assignment{
			Resource: strings.TrimSpace(resource),
			Role:     strings.TrimSpace(role),
		})
	}
	return assignments, nil
}

// parseDate converts a YYYY-MM-DD date to a Unix timestamp.
func parseDate(s string) (*int64, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, errors.NewInvalidRequest(
			fmt.Sprintf("date %q must be YYYY-MM-DD", s))
	}
	ts := t.Unix()
	return &ts, nil
}

// stdinHasData returns true if stdin is piped with data available.
func stdinHasData() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}

// readStdin reads all of stdin.
func readStdin() (string, error) {
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
