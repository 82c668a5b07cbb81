package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gorustyt/planarnav/common/rw"
	"github.com/gorustyt/planarnav/debug_utils"
)

func DumpCmd(root *rootFlags) *cobra.Command {
	var out, format string
	c := &cobra.Command{
		Use:   "dump",
		Short: "generate the scene navmesh and write it to a file",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(root)
			if err != nil {
				return err
			}
			defer s.close()

			var data []byte
			switch format {
			case "pb":
				if data, err = debug_utils.EncodeNavMesh(s.nav.Mesh(), s.nav.Polygons()); err != nil {
					return err
				}
			case "bin":
				data = debug_utils.EncodeNavMeshBin(s.nav.Mesh())
			case "obj":
				w := rw.NewBinWriter()
				debug_utils.DuDumpNavMeshToObj(s.nav.Mesh(), w)
				data = w.GetWriteBytes()
			default:
				return fmt.Errorf("unknown format %q, want pb, bin or obj", format)
			}
			if err := os.WriteFile(out, data, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", out, err)
			}
			s.log.Info("navmesh dumped", zap.String("file", out), zap.String("format", format), zap.Int("bytes", len(data)))
			return nil
		},
	}
	c.Flags().StringVar(&out, "out", "navmesh.bin", "output file")
	c.Flags().StringVar(&format, "format", "bin", "pb, bin or obj")
	return c
}
