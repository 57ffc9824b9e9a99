/*
anima-loader parses a mesh from storage, a zip bundle or a raw resource
manifest and prints its scene graph.

	anima-loader [-config anima.toml] [-watch] <origin>
*/
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spaghettifunk/anima-loader/engine/core"
	"github.com/spaghettifunk/anima-loader/engine/resources"
	"github.com/spaghettifunk/anima-loader/engine/systems"
)

func main() {
	configPath := flag.String("config", "", "path of the TOML configuration")
	watch := flag.Bool("watch", false, "reload the mesh whenever it or its files change")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: anima-loader [-config file] [-watch] <origin>\n\n")
		fmt.Fprintf(flag.CommandLine.Output(), "origin is a storage path, asset:<path> or raw:<id|name>\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	if err := run(*configPath, *watch, flag.Arg(0)); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render(err.Error()))
		os.Exit(1)
	}
}

func run(configPath string, watch bool, ref string) error {
	cfg := core.DefaultConfig()
	if configPath != "" {
		var err error
		if cfg, err = core.LoadConfig(configPath); err != nil {
			return err
		}
	}
	cfg.Assets.Watch = cfg.Assets.Watch || watch

	level, err := core.ParseLogLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	core.SetLogLevel(level)

	sm, err := systems.NewSystemManager(cfg)
	if err != nil {
		return err
	}
	defer sm.Shutdown()

	origin, err := sm.ResolveOrigin(ref)
	if err != nil {
		return core.Report(err, ref)
	}
	if err := load(sm, ref, origin); err != nil {
		return err
	}
	if !cfg.Assets.Watch {
		return nil
	}

	// signal channel to capture system calls
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)

	if origin.Kind() != resources.OriginStorage {
		core.LogWarn("only storage origins are watched, '%s' will not reload", ref)
	}
	core.LogInfo("watching '%s' for changes", sm.AssetManager().Root())
	for {
		select {
		case <-sigCh:
			return nil
		case change := <-sm.AssetManager().Events():
			if _, ok := sm.MeshLoaderSystem().Get(ref); ok {
				continue
			}
			core.LogInfo("reloading '%s' after %s of '%s'", ref, change.Op, change.Asset.Path)
			if err := load(sm, ref, origin); err != nil {
				fmt.Fprintln(os.Stderr, errorStyle.Render(err.Error()))
			}
		}
	}
}

func load(sm *systems.SystemManager, ref string, origin resources.Origin) error {
	mesh, err := sm.MeshLoaderSystem().Load(ref, origin)
	if err != nil {
		return core.Report(err, origin.String())
	}
	printMesh(os.Stdout, mesh, core.MetricsSnapshotNow())
	return nil
}
