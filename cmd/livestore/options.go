package main

import (
	"github.com/spf13/cobra"

	"github.com/vango-dev/livestore/pkg/livestore"
	"github.com/vango-dev/livestore/pkg/observable"
)

// bindFlags are the binding options shared by watch and serve.
type bindFlags struct {
	path      string
	pathsOf   string
	pathsFrom string
	where     string
	off       bool
}

func (f *bindFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.path, "path", "", "Re-render only on changes at exactly this path")
	cmd.Flags().StringVar(&f.pathsOf, "paths-of", "", "Re-render only on changes to direct children of this path")
	cmd.Flags().StringVar(&f.pathsFrom, "paths-from", "", "Re-render only on changes at or below this path")
	cmd.Flags().StringVar(&f.where, "where", "", "Expression each change must satisfy (type, path, key, depth, value, oldValue)")
	cmd.Flags().BoolVar(&f.off, "off", false, "Bind without subscribing")
	cmd.MarkFlagsMutuallyExclusive("path", "paths-of", "paths-from", "off")
	cmd.MarkFlagsMutuallyExclusive("where", "off")
}

// options builds and validates the binding options.
func (f *bindFlags) options(cmd *cobra.Command) (livestore.Options, error) {
	if f.off {
		return livestore.Off(), nil
	}

	var filter observable.Filter
	switch {
	case cmd.Flags().Changed("path"):
		filter = observable.ExactPath(f.path)
	case cmd.Flags().Changed("paths-of"):
		filter = observable.PathsOf(f.pathsOf)
	case cmd.Flags().Changed("paths-from"):
		filter = observable.PathsFrom(f.pathsFrom)
	default:
		filter = observable.All()
	}
	if f.where != "" {
		filter = filter.Where(f.where)
	}

	opts := livestore.Filtered(filter)
	if err := opts.Validate(); err != nil {
		return livestore.Options{}, err
	}
	return opts, nil
}
