package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gorustyt/planarnav/common"
	"github.com/gorustyt/planarnav/common/logger"
	"github.com/gorustyt/planarnav/config"
	"github.com/gorustyt/planarnav/detour"
	"github.com/gorustyt/planarnav/scene"
)

const VERSION = "0.1.0"

func main() {
	if err := RootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

type rootFlags struct {
	configFile string
	sceneFile  string
	logLevel   string
}

func RootCmd() *cobra.Command {
	f := &rootFlags{}
	c := &cobra.Command{
		Use:           "navdemo",
		Short:         "planar navigation toolbox",
		Version:       VERSION,
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	c.PersistentFlags().StringVar(&f.configFile, "config", "", "config file, defaults are used when empty")
	c.PersistentFlags().StringVar(&f.sceneFile, "scene", "", "scene yaml file")
	c.PersistentFlags().StringVar(&f.logLevel, "log-level", "", "overrides log.level of the config")
	c.AddCommand(PathCmd(f), CrowdCmd(f), DumpCmd(f))
	return c
}

// session is what every subcommand needs: a config, a logger and a generated
// navmesh over the scene.
type session struct {
	cfg   *config.Config
	log   *zap.Logger
	file  *scene.File
	scene *scene.Memory
	nav   *detour.NavMesh
}

func openSession(f *rootFlags) (*session, error) {
	cfg := config.Default()
	if f.configFile != "" {
		var err error
		if cfg, err = config.Load(f.configFile); err != nil {
			return nil, err
		}
	}
	if f.logLevel != "" {
		cfg.Log.Level = f.logLevel
	}
	log, err := logger.New(cfg.Log)
	if err != nil {
		return nil, err
	}
	if f.sceneFile == "" {
		return nil, fmt.Errorf("--scene is required")
	}
	file, err := scene.LoadFile(f.sceneFile)
	if err != nil {
		return nil, err
	}
	mem, err := file.Build()
	if err != nil {
		return nil, fmt.Errorf("build scene %s: %w", f.sceneFile, err)
	}
	nav := detour.NewNavMesh(cfg.NavMesh, log)
	nav.Generate(mem, mem.Heights())
	return &session{cfg: cfg, log: log, file: file, scene: mem, nav: nav}, nil
}

func (s *session) close() {
	_ = s.log.Sync()
}

// parsePoint reads "x,y".
func parsePoint(s string) (common.Vec2, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return common.Vec2{}, fmt.Errorf("point %q: want x,y", s)
	}
	var p common.Vec2
	for i, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return common.Vec2{}, fmt.Errorf("point %q: %w", s, err)
		}
		p[i] = v
	}
	return p, nil
}
