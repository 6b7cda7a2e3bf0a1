package main

import (
	"context"
	"log"
	"os"

	"qingplan/internal/buildinfo"
	"qingplan/internal/client/cli"
	"qingplan/internal/client/config"
	"qingplan/internal/logging"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	ctx := context.Background()
	cfg := config.LoadConfig()
	app, err := cli.NewApp(cfg, logging.NewDefault())

	if err != nil {
		log.Fatalf("%v", err)
		return
	}

	app.Run(ctx)

}
