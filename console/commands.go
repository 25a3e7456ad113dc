package console

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/dmitrymomot/infuse/internal"
)

const (
	formatText = "text"
	formatYAML = "yaml"
)

func optimizeCommand(app *internal.App) *cobra.Command {
	return &cobra.Command{
		Use:   "optimize",
		Short: "Optimizes the app",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			path := app.Config().GetString("router.cacheFile")
			if path == "" {
				fmt.Fprintln(out, "The route table could be cached with the router.cacheFile setting")
				return nil
			}

			fmt.Fprintln(out, "-- Caching route table")
			removed, err := internal.RemoveRouteCache(path)
			if err != nil {
				return err
			}
			if removed {
				fmt.Fprintf(out, "Removed previous cache %s\n", path)
			}

			table, err := app.CompileRoutes()
			if err != nil {
				return err
			}
			if err := internal.WriteRouteCache(path, table); err != nil {
				return err
			}
			fmt.Fprintf(out, "Cached %d routes in %s\n", len(table), path)
			return nil
		},
	}
}

func routesCommand(app *internal.App) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "routes",
		Short: "Prints the route table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			routes := app.Router().Routes()
			out := cmd.OutOrStdout()

			switch strings.ToLower(format) {
			case formatYAML:
				enc := yaml.NewEncoder(out)
				enc.SetIndent(2)
				if err := enc.Encode(routes); err != nil {
					return fmt.Errorf("encode routes: %w", err)
				}
				return enc.Close()
			case formatText:
				tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "METHOD\tPATTERN\tHANDLER")
				for _, r := range routes {
					handler := r.Handler
					if handler == "" {
						handler = "-"
					}
					fmt.Fprintf(tw, "%s\t%s\t%s\n", r.Method, r.Pattern, handler)
				}
				return tw.Flush()
			default:
				return fmt.Errorf("unsupported format %q", format)
			}
		},
	}
	cmd.Flags().StringVar(&format, "format", formatText, "Output format: text or yaml")
	return cmd
}

func serveCommand(app *internal.App) *cobra.Command {
	var (
		addr        string
		watchRoutes bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Starts the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts := []internal.RunOption{internal.WithContext(cmd.Context())}
			if watchRoutes {
				opts = append(opts, internal.WatchRoutes())
			}
			return app.Run(addr, opts...)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Address to listen on (default \":<site.port>\")")
	cmd.Flags().BoolVar(&watchRoutes, "watch-routes", false, "Reload the route table when router.cacheFile changes")
	return cmd
}
