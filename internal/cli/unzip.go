package cli

import (
	"github.com/spf13/cobra"

	"github.com/robert-malhotra/mat2img/internal/archive"
)

var unzipOutput string

var unzipCmd = &cobra.Command{
	Use:   "unzip <dir>",
	Short: "Extract the zip archives of a directory",
	Long:  `Extracts every *.zip archive of a directory, by default into the same directory.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runUnzip,
}

func init() {
	unzipCmd.Flags().StringVarP(&unzipOutput, "output", "o", "", "destination directory (default: the archive directory)")
	rootCmd.AddCommand(unzipCmd)
}

func runUnzip(cmd *cobra.Command, args []string) error {
	out := unzipOutput
	if out == "" {
		out = args[0]
	}
	n, err := archive.ExtractAll(cmd.Context(), fs, args[0], out)
	if err != nil {
		return err
	}
	cmd.Printf("Extracted %d archive(s) into %s\n", n, out)
	return nil
}
