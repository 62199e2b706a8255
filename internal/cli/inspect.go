package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/robert-malhotra/mat2img/hdf5"
	"github.com/robert-malhotra/mat2img/mat"
)

// maxShownText is the longest char value printed inline.
const maxShownText = 64

var inspectHDF5 bool

var inspectCmd = &cobra.Command{
	Use:   "inspect <file.mat>",
	Short: "Print the variables of a MAT-file",
	Long: `Prints the decoded variable tree of a MAT-file. With --hdf5 the raw HDF5
object tree of a v7.3 file is printed instead.`,
	Args: cobra.ExactArgs(1),
	RunE: runInspect,
}

func init() {
	inspectCmd.Flags().BoolVar(&inspectHDF5, "hdf5", false, "dump the HDF5 object tree of a v7.3 file")
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	if inspectHDF5 {
		return dumpHDF5(cmd, args[0])
	}
	data, err := afero.ReadFile(fs, args[0])
	if err != nil {
		return err
	}
	f, err := mat.Decode(data)
	if err != nil {
		return fmt.Errorf("decoding %s: %w", args[0], err)
	}
	cmd.Printf("%s (%s)\n", args[0], f.Encoding)
	if text := strings.TrimSpace(f.Header); text != "" {
		cmd.Printf("  %s\n", text)
	}
	for _, v := range f.Variables {
		printValue(cmd, "  ", v.Name, v.Value)
	}
	return nil
}

func printValue(cmd *cobra.Command, indent, name string, v mat.Value) {
	cmd.Printf("%s%s: %s %s%s\n", indent, name, formatDims(v.Dims()), v.ClassName(), preview(v))
	switch v := v.(type) {
	case *mat.Struct:
		if len(v.Elements) != 1 {
			return
		}
		for _, field := range v.Fields {
			if child, ok := v.Field(field, 0); ok {
				printValue(cmd, indent+"  ", field, child)
			}
		}
	case *mat.Cell:
		for i, child := range v.Elements {
			printValue(cmd, indent+"  ", "{"+strconv.Itoa(i+1)+"}", child)
		}
	}
}

func preview(v mat.Value) string {
	switch v := v.(type) {
	case *mat.Numeric:
		if v.Len() == 1 && !v.IsComplex() {
			return " = " + strconv.FormatFloat(v.Real[0], 'g', -1, 64)
		}
	case *mat.Char:
		if rows := v.Rows(); len(rows) == 1 && len(rows[0]) <= maxShownText {
			return " = " + strconv.Quote(rows[0])
		}
	}
	return ""
}

func formatDims(dims []int) string {
	parts := make([]string, len(dims))
	for i, d := range dims {
		parts[i] = strconv.Itoa(d)
	}
	return strings.Join(parts, "x")
}

func dumpHDF5(cmd *cobra.Command, path string) error {
	r, err := fs.Open(path)
	if err != nil {
		return err
	}
	defer r.Close()
	f, err := hdf5.NewFile(r)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	cmd.Printf("Superblock version: %d\n", f.Version())
	cmd.Printf("User block: %d bytes\n", f.UserBlockSize())
	return hdf5.Walk(f.Root(), func(p string, obj any, err error) error {
		indent := strings.Repeat("  ", len(hdf5.SplitPath(p)))
		if err != nil {
			cmd.Printf("%s%q: ERROR %v\n", indent, p, err)
			return nil
		}
		switch o := obj.(type) {
		case *hdf5.Group:
			members, err := o.Members()
			if err != nil {
				cmd.Printf("%sGroup %q: ERROR %v\n", indent, p, err)
				return hdf5.SkipGroup
			}
			cmd.Printf("%sGroup %q: %d members, attrs %v\n", indent, p, len(members), o.Attrs())
		case *hdf5.Dataset:
			cmd.Printf("%sDataset %q: shape %v, attrs %v\n", indent, p, o.Shape(), o.Attrs())
		}
		return nil
	})
}
