package main

import (
	"fmt"
	"os"

	"github.com/lifelink-health/platform/pkg/common/logger"
	"github.com/urfave/cli/v2"
)

func main() {
	logger.Init()

	app := &cli.App{
		Name:  "lifelink-cli",
		Usage: "Utility for seeding donors and running offline matches",
		Commands: []*cli.Command{
			seedCmd,
			matchCmd,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Println("Error: ", err)
		os.Exit(1)
	}
}
