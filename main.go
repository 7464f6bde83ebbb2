/*
This is an example of application that will use the
engine package to test things out
*/
package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/halcyon-games/prism/engine"
	"github.com/halcyon-games/prism/engine/config"
	"github.com/halcyon-games/prism/testbed"
)

const configPath = "prism.toml"

func main() {
	cfg, err := config.Load(configPath)
	if err != nil {
		panic(err)
	}

	tb := testbed.NewTestGame(cfg)

	engine, err := engine.New(tb.Game, configPath)
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

	if err := engine.Shutdown(); err != nil {
		panic(err)
	}
}
