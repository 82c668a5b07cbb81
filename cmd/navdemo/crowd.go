package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gorustyt/planarnav/common"
	"github.com/gorustyt/planarnav/debug_utils"
	"github.com/gorustyt/planarnav/detour_crowd"
)

func CrowdCmd(root *rootFlags) *cobra.Command {
	var (
		ticks int
		dt    float64
	)
	c := &cobra.Command{
		Use:   "crowd",
		Short: "simulate the agents of the scene",
		RunE: func(cmd *cobra.Command, args []string) error {
			if ticks < 0 || dt <= 0 {
				return fmt.Errorf("ticks must not be negative and dt must be positive")
			}
			s, err := openSession(root)
			if err != nil {
				return err
			}
			defer s.close()

			crowd := detour_crowd.NewCrowd(s.cfg.Crowd, s.cfg.BVH, s.nav, s.log)
			for i, spec := range s.file.Agents {
				a := detour_crowd.Agent{Position: spec.Position, Radius: spec.Radius, Speed: spec.Speed, Swarm: spec.Swarm}
				if spec.Target != nil {
					a.Target.SetTargetPosition(*spec.Target)
				}
				if crowd.AddAgent(a) < 0 {
					s.log.Warn("crowd full, agent dropped", zap.Int("agent", i))
				}
			}
			for tick := 0; tick < ticks; tick++ {
				crowd.Update(dt, s.scene, s.scene)
				crowd.Advance(dt)
			}

			dl := debug_utils.NewDuDisplayList(256)
			debug_utils.DuDebugDrawCrowd(dl, debug_utils.AllVisible, crowd, s.cfg.Crowd.AvoidanceRadiusFactor)
			out := cmd.OutOrStdout()
			for i, a := range crowd.Agents() {
				if a == nil {
					continue
				}
				fmt.Fprintf(out, "agent %d at %g,%g", i, a.Position[0], a.Position[1])
				if goal, ok := a.Target.GetTargetPosition(s.scene); ok {
					fmt.Fprintf(out, " goal distance %.3f", common.Vdist(a.Position, goal))
				}
				fmt.Fprintln(out)
			}
			for cat := debug_utils.DuDebugCategory(0); cat < debug_utils.DU_DRAW_CATEGORY_COUNT; cat++ {
				fmt.Fprintf(out, "draw %s %d\n", cat, dl.Count(cat))
			}
			return nil
		},
	}
	c.Flags().IntVar(&ticks, "ticks", 100, "number of simulation ticks")
	c.Flags().Float64Var(&dt, "dt", 0.05, "tick length in seconds")
	return c
}
