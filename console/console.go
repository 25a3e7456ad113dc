// Package console builds the command-line interface of an application.
//
// The root command carries three built-ins:
//
//	optimize   cache the compiled route table at router.cacheFile
//	routes     print the route table
//	serve      run the HTTP server
//
// Extra commands are registered with WithCommand and enabled by listing
// their names in console.commands.
package console

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/infuse/internal"
)

// CommandFactory builds a command bound to the application.
type CommandFactory func(app *internal.App) *cobra.Command

// Option configures a Console.
type Option func(*Console)

// WithCommand registers a command under name. It is added to the root only
// when console.commands lists name.
func WithCommand(name string, f CommandFactory) Option {
	return func(c *Console) {
		if name != "" && f != nil {
			c.commands.Register(name, f)
		}
	}
}

// Console is the root command of an application.
type Console struct {
	app      *internal.App
	commands *internal.Registry[CommandFactory]
	root     *cobra.Command
}

// New builds the command tree for app. Every name in console.commands must
// have been registered with WithCommand.
func New(app *internal.App, opts ...Option) (*Console, error) {
	c := &Console{
		app:      app,
		commands: internal.NewRegistry[CommandFactory]("command"),
	}
	for _, opt := range opts {
		opt(c)
	}

	title := app.Config().GetString("site.title")
	if title == "" {
		title = "infuse"
	}
	c.root = &cobra.Command{
		Use:           "infuse",
		Short:         title + " console",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	c.root.AddCommand(
		optimizeCommand(app),
		routesCommand(app),
		serveCommand(app),
	)

	for _, name := range app.Config().GetStringSlice("console.commands") {
		f, err := c.commands.Get(name)
		if err != nil {
			return nil, err
		}
		c.root.AddCommand(f(app))
	}
	return c, nil
}

// Root returns the root command.
func (c *Console) Root() *cobra.Command { return c.root }

// Execute runs the command named by args and returns the process exit code:
// 0 on success, 1 when the command failed.
func (c *Console) Execute(ctx context.Context, args []string) int {
	c.root.SetArgs(args)
	if err := c.root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(c.root.ErrOrStderr(), "Error:", err)
		c.app.Logger().ErrorContext(ctx, "command failed",
			slog.String("command", c.root.Name()),
			slog.String("error", err.Error()),
		)
		return 1
	}
	return 0
}
