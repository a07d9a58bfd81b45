package main

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vango-dev/livestore/pkg/livestore"
)

func parseBindFlags(t *testing.T, args ...string) (livestore.Options, error) {
	t.Helper()
	var f bindFlags
	cmd := &cobra.Command{Use: "test", RunE: func(*cobra.Command, []string) error { return nil }}
	f.register(cmd)
	require.NoError(t, cmd.ParseFlags(args))
	require.NoError(t, cmd.ValidateFlagGroups())
	return f.options(cmd)
}

func TestBindFlags(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"default", nil, livestore.All().String()},
		{"off", []string{"--off"}, "off"},
		{"paths from", []string{"--paths-from", "user"}, livestore.PathsFrom("user").String()},
		{"where", []string{"--where", `type == "insert"`}, livestore.All().Filter().Where(`type == "insert"`).String()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts, err := parseBindFlags(t, tt.args...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, opts.String())
		})
	}
}

func TestBindFlagsExactPath(t *testing.T) {
	opts, err := parseBindFlags(t, "--path", "user.name", "--where", "depth > 1")
	require.NoError(t, err)
	assert.False(t, opts.Disabled())
	assert.Contains(t, opts.String(), "user.name")
	assert.Contains(t, opts.String(), "depth > 1")
}

func TestBindFlagsInvalid(t *testing.T) {
	_, err := parseBindFlags(t, "--where", "type +")
	require.Error(t, err)
	assert.ErrorIs(t, err, livestore.ErrInvalidArgument)
}

func TestBindFlagsMutuallyExclusive(t *testing.T) {
	var f bindFlags
	cmd := &cobra.Command{Use: "test"}
	f.register(cmd)
	require.NoError(t, cmd.ParseFlags([]string{"--off", "--paths-from", "user"}))
	assert.Error(t, cmd.ValidateFlagGroups())
}
