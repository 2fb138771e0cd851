package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/npmmeta/pkg/batch"
	"github.com/matzehuels/npmmeta/pkg/errors"
	"github.com/matzehuels/npmmeta/pkg/resolve"
	"github.com/matzehuels/npmmeta/pkg/service"
)

// queryFlags are shared by the query commands.
type queryFlags struct {
	force    bool
	metadata bool
	noThrow  bool
	noCache  bool
	json     bool
}

func (f *queryFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.force, "force", false, "only accept cached data younger than the force timeout")
	cmd.Flags().BoolVar(&f.metadata, "metadata", false, "include per-version metadata")
	cmd.Flags().BoolVar(&f.noThrow, "no-throw", false, "report failed specifiers in place instead of failing")
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "bypass the store")
	cmd.Flags().BoolVar(&f.json, "json", false, "print JSON as served by the HTTP API")
}

func (f *queryFlags) options() service.QueryOptions {
	return service.QueryOptions{
		Force:    f.force,
		Metadata: f.metadata,
		Throw:    !f.noThrow,
	}
}

// latestCommand creates the latest command.
func (c *CLI) latestCommand() *cobra.Command {
	var flags queryFlags

	cmd := &cobra.Command{
		Use:   "latest <spec>...",
		Short: "Resolve specifiers to a single version each",
		Example: `  npmmeta latest vite
  npmmeta latest vite@^4 @nuxt/kit@3 --metadata
  npmmeta latest "vite@^4+react@next" --json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := runQuery(cmd.Context(), c, flags.noCache, "Resolving", args, flags.options(), (*service.Service).Latest)
			if err != nil {
				return err
			}
			if flags.json {
				return writeJSON(os.Stdout, res)
			}
			printLatest(res)
			return nil
		},
	}

	flags.register(cmd)
	return cmd
}

// versionsCommand creates the versions command.
func (c *CLI) versionsCommand() *cobra.Command {
	var (
		flags  queryFlags
		loose  bool
		after  string
		browse bool
	)

	cmd := &cobra.Command{
		Use:   "versions <spec>...",
		Short: "List the versions matching each specifier",
		Example: `  npmmeta versions vite@^5
  npmmeta versions vite@^5 --loose --after 2024-01-01
  npmmeta versions react --browse`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := flags.options()
			opts.Loose = loose
			if after != "" {
				t, ok := resolve.ParseAfter(after)
				if !ok {
					return errors.New(errors.ErrCodeInvalidInput, "cannot parse --after %q", after)
				}
				opts.After = t
			}
			if browse {
				opts.Metadata = true
			}

			res, err := runQuery(cmd.Context(), c, flags.noCache, "Fetching versions", args, opts, (*service.Service).Versions)
			if err != nil {
				return err
			}

			switch {
			case browse:
				return browseVersions(res)
			case flags.json:
				return writeJSON(os.Stdout, res)
			}
			printVersions(res)
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&loose, "loose", false, "also list versions older than a matching one")
	cmd.Flags().StringVar(&after, "after", "", "only versions published after this date")
	cmd.Flags().BoolVar(&browse, "browse", false, "browse the versions interactively")
	return cmd
}

// runQuery loads the configuration, builds a service and runs q with a
// spinner on stderr. Arguments are joined into one batch.
func runQuery[T any](ctx context.Context, c *CLI, noCache bool, label string, args []string, opts service.QueryOptions, q func(*service.Service, context.Context, string, service.QueryOptions) (batch.Result[T], error)) (batch.Result[T], error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return batch.Result[T]{}, err
	}
	svc, closeStore, err := c.newService(ctx, cfg, noCache)
	if err != nil {
		return batch.Result[T]{}, err
	}
	defer func() {
		if err := closeStore(); err != nil {
			loggerFromContext(ctx).Warn("close store", "err", err)
		}
	}()

	raw := strings.Join(args, "+")
	prog := newProgress(loggerFromContext(ctx))
	spin := startSpinner(ctx, os.Stderr, label+" "+raw)
	res, err := q(svc, ctx, raw, opts)
	spin.stop()
	if err != nil {
		return batch.Result[T]{}, err
	}
	prog.done(fmt.Sprintf("Resolved %d specifier(s)", len(res.Items)))
	return res, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func browseVersions(res batch.Result[*resolve.VersionsInfo]) error {
	for _, item := range res.Items {
		if item.Failed() {
			printError("%s: %s", item.Err.Name, item.Err.Error)
			continue
		}
		model := NewVersionListModel(item.Value)
		if _, err := tea.NewProgram(model, tea.WithAltScreen()).Run(); err != nil {
			return err
		}
	}
	return nil
}
