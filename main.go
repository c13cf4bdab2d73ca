/*
Demo application: registers the Record loader, loads assets/test.ron and logs
its Added/Modified events until interrupted.
*/
package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spaghettifunk/anima-custom-asset/engine"
	"github.com/spaghettifunk/anima-custom-asset/engine/config"
	"github.com/spaghettifunk/anima-custom-asset/engine/core"
	"github.com/spaghettifunk/anima-custom-asset/testbed"
)

func main() {
	path := os.Getenv("ANIMA_CONFIG")
	if path == "" {
		path = config.DefaultPath
	}

	cfg, err := config.Load(path)
	if err != nil {
		core.LogFatal("failed to load configuration: %s", err)
	}

	appConfig, err := engine.NewApplicationConfig(cfg)
	if err != nil {
		core.LogFatal("invalid application configuration: %s", err)
	}

	tb := testbed.NewTestGame(appConfig)

	engine, err := engine.New(tb.Game)
	if err != nil {
		panic(err)
	}

	if err := engine.Initialize(); err != nil {
		panic(err)
	}

	// signal channel to capture system calls
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)

	// start shutdown goroutine
	go func() {
		// capture sigterm and other system call here
		<-sigCh
		_ = engine.Shutdown()
	}()

	// run engine
	if err := engine.Run(); err != nil {
		panic(err)
	}
}
