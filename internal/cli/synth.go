package cli

import (
	"github.com/spf13/cobra"

	"github.com/robert-malhotra/mat2img/internal/logger"
	"github.com/robert-malhotra/mat2img/internal/synth"
	"github.com/robert-malhotra/mat2img/mat"
)

var (
	synthOpts     = synth.DefaultOptions()
	synthEncoding string
	synthRaw      bool
)

var synthCmd = &cobra.Command{
	Use:   "synth <dir>",
	Short: "Write synthetic cjdata MAT-files",
	Long: `Writes numbered MAT-files holding a cjdata record with a random int16 image,
for trying the converter without a real dataset.`,
	Args: cobra.ExactArgs(1),
	RunE: runSynth,
}

func init() {
	f := synthCmd.Flags()
	f.StringVar(&synthEncoding, "encoding", "legacy", "file encoding: legacy or v73")
	f.IntVarP(&synthOpts.Count, "count", "n", synthOpts.Count, "number of files")
	f.IntVar(&synthOpts.Size, "size", synthOpts.Size, "image side in pixels")
	f.IntVar(&synthOpts.Labels, "labels", synthOpts.Labels, "number of distinct labels")
	f.Uint64Var(&synthOpts.Seed, "seed", synthOpts.Seed, "random seed")
	f.IntVarP(&synthOpts.Workers, "workers", "w", synthOpts.Workers, "files written concurrently")
	f.BoolVar(&synthRaw, "no-compress", false, "store data uncompressed")
	f.BoolVar(&synthOpts.Checksums, "checksums", false, "add Fletcher-32 checksums to v7.3 datasets")
	rootCmd.AddCommand(synthCmd)
}

func runSynth(cmd *cobra.Command, args []string) error {
	enc, err := mat.ParseEncoding(synthEncoding)
	if err != nil {
		return err
	}
	opts := synthOpts
	opts.Encoding = enc
	opts.Compress = !synthRaw

	paths, err := synth.Write(cmd.Context(), fs, args[0], opts)
	if err != nil {
		return err
	}
	logger.FromContext(cmd.Context()).Info("Wrote synthetic files", "dir", args[0], "count", len(paths), "encoding", enc)
	return nil
}
