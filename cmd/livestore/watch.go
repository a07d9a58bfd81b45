package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/vango-dev/livestore/internal/errors"
	"github.com/vango-dev/livestore/internal/script"
	"github.com/vango-dev/livestore/pkg/host"
	"github.com/vango-dev/livestore/pkg/livestore"
)

func watchCmd(a *app) *cobra.Command {
	var (
		doc        string
		scriptPath string
		flags      bindFlags
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Replay a mutation script and print every render",
		Long: `Load a document into a store, mount a component bound to it and replay
a mutation script turn by turn. Each render prints one line:

  render N rev=R VALUE

Steps between flush ops run as one turn and are delivered as one batch.

Examples:
  livestore watch --doc state.yaml --script steps.yaml
  livestore watch --doc state.json --script steps.yaml --paths-from user
  livestore watch --doc state.yaml --script steps.yaml --where 'type == "insert"'`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if doc == "" {
				doc = a.cfg.Document
			}
			if doc == "" {
				return errors.New("E302").
					WithDetail("No document given").
					WithSuggestion("Pass --doc or set document in the configuration")
			}
			opts, err := flags.options(cmd)
			if err != nil {
				return err
			}

			raw, err := script.LoadDocument(doc)
			if err != nil {
				return err
			}
			steps := &script.Script{}
			if scriptPath != "" {
				if steps, err = script.LoadFile(scriptPath); err != nil {
					return err
				}
			}

			logger := a.cfg.NewLogger(cmd.ErrOrStderr())
			return runWatch(cmd.OutOrStdout(), raw, steps, opts, &host.Config{
				MaxQueue:        a.cfg.Host.MaxQueue,
				MaxSettlePasses: a.cfg.Host.MaxSettlePasses,
				Logger:          logger,
			})
		},
	}

	cmd.Flags().StringVarP(&doc, "doc", "d", "", "YAML or JSON document (default from config)")
	cmd.Flags().StringVarP(&scriptPath, "script", "s", "", "Mutation script")
	flags.register(cmd)

	return cmd
}

// runWatch mounts a bound component on a manually drained host and applies
// each turn of steps as one task.
func runWatch(out io.Writer, raw any, steps *script.Script, opts livestore.Options, cfg *host.Config) error {
	h := host.New(cfg)
	defer h.Close()

	store, err := livestore.New(raw, livestore.WithScheduler(h), livestore.WithLogger(cfg.Logger))
	if err != nil {
		return err
	}

	renders := 0
	ci := h.Mount(host.FuncComponent(func() string {
		v, rev := livestore.UseStoreRevision(store, opts)
		renders++
		line := fmt.Sprintf("render %d rev=%d %s", renders, rev, v.String())
		fmt.Fprintln(out, line)
		return line
	}))
	if err := ci.Err(); err != nil {
		return err
	}

	for _, turn := range steps.Turns {
		var applyErr error
		h.Dispatch(func() {
			applyErr = script.Apply(store.Value(), turn)
		})
		h.Drain()
		if applyErr != nil {
			return applyErr
		}
	}
	return nil
}
