/*
This is an example of application that will use the
engine package to test things out
*/
package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/spaghettifunk/anima2d/engine"
	"github.com/spaghettifunk/anima2d/engine/core"
	"github.com/spaghettifunk/anima2d/testbed"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to a TOML application config")
		backend    = flag.String("backend", "", "renderer backend override (opengl, headless)")
		frames     = flag.Uint64("frames", 0, "stop after this many frames, 0 runs until quit")
		logLevel   = flag.String("log-level", "", "log level override (debug, info, warn, error)")
		sprites    = flag.Int("sprites", testbed.DefaultSpriteCount, "number of bouncing sprites")
		textures   = flag.Int("textures", testbed.DefaultTextureCount, "number of generated textures")
		font       = flag.String("font", "", "bitmap font asset for the overlay")
		seed       = flag.Uint64("seed", 1, "random seed for the sprite field")
	)
	flag.Parse()

	config := engine.DefaultApplicationConfig()
	if *configPath != "" {
		c, err := engine.LoadApplicationConfig(*configPath)
		if err != nil {
			core.LogFatal("%s", err)
		}
		config = c
	}
	if *backend != "" {
		config.Renderer.Backend = *backend
	}
	if *frames > 0 {
		config.Renderer.Frames = *frames
	}
	if *logLevel != "" {
		config.Log.Level = *logLevel
	}

	tb, err := testbed.NewTestGame(config, testbed.Options{
		Seed:         *seed,
		SpriteCount:  *sprites,
		TextureCount: *textures,
		Font:         *font,
	})
	if err != nil {
		core.LogFatal("%s", err)
	}

	e, err := engine.New(tb.Game)
	if err != nil {
		core.LogFatal("%s", err)
	}

	if err := e.Initialize(); err != nil {
		core.LogError("%s", err)
		_ = e.Shutdown()
		os.Exit(1)
	}

	// signal channel to capture system calls
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	go func() {
		<-sigCh
		// the loop owns the graphics context, so only ask it to stop
		e.Stop()
	}()

	runErr := e.Run()
	if err := e.Shutdown(); err != nil {
		core.LogError("%s", err)
	}
	if runErr != nil {
		core.LogError("%s", runErr)
		os.Exit(1)
	}
}
