package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func PathCmd(root *rootFlags) *cobra.Command {
	var from, to string
	c := &cobra.Command{
		Use:   "path",
		Short: "find a path across the scene navmesh",
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := parsePoint(from)
			if err != nil {
				return err
			}
			end, err := parsePoint(to)
			if err != nil {
				return err
			}
			s, err := openSession(root)
			if err != nil {
				return err
			}
			defer s.close()

			path, status := s.nav.FindPath(start, end)
			s.log.Info("path query",
				zap.Stringer("status", status), zap.Int("points", len(path)), zap.Int("triangles", s.nav.TriangleCount()))
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "status %s\n", status)
			for _, p := range path {
				fmt.Fprintf(out, "%g,%g\n", p[0], p[1])
			}
			return nil
		},
	}
	c.Flags().StringVar(&from, "from", "", "start point x,y")
	c.Flags().StringVar(&to, "to", "", "end point x,y")
	_ = c.MarkFlagRequired("from")
	_ = c.MarkFlagRequired("to")
	return c
}
