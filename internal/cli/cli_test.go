package cli

import (
	"bytes"
	"context"
	"testing"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	"github.com/robert-malhotra/mat2img/internal/synth"
	"github.com/robert-malhotra/mat2img/mat"
)

// useMemFs swaps the command filesystem for an in-memory one.
func useMemFs(t *testing.T) afero.Fs {
	t.Helper()
	old := fs
	fs = afero.NewMemMapFs()
	t.Cleanup(func() { fs = old })
	return fs
}

// execute runs the root command with args and returns stdout and stderr.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	resetCommand(rootCmd)
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		resetCommand(rootCmd)
	})
	err := rootCmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

// resetCommand restores flag defaults and drops contexts left by an
// earlier run.
func resetCommand(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.PersistentFlags().VisitAll(reset)
	cmd.Flags().VisitAll(reset)
	cmd.SetContext(nil)
	for _, c := range cmd.Commands() {
		resetCommand(c)
	}
}

func writeRecords(t *testing.T, fs afero.Fs, dir string, enc mat.Encoding, count int) {
	t.Helper()
	opts := synth.Options{Encoding: enc, Count: count, Size: 16, Labels: 2, Seed: 1, Workers: 1}
	_, err := synth.Write(context.Background(), fs, dir, opts)
	require.NoError(t, err)
}
