package main

import (
	"fmt"
	"os"

	"github.com/clementlassalle/guards-schedule-app-adcosc/internal/app"
	"github.com/clementlassalle/guards-schedule-app-adcosc/internal/config"
)

func main() {
	open := func() (*app.App, error) {
		cfg, err := config.Load()
		if err != nil {
			return nil, err
		}
		return app.Open(cfg)
	}
	if err := newRootCmd(open, os.Stdout).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
