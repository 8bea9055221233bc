package main

import (
	"context"
	"log"
	"os"

	"github.com/digivault/digivault/internal/buildinfo"
	"github.com/digivault/digivault/internal/cli"
	"github.com/digivault/digivault/internal/config"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	ctx := context.Background()
	cfg := config.LoadConfig()
	app, err := cli.NewApp(ctx, cfg)

	if err != nil {
		log.Fatalf("%v", err)
		return
	}

	app.Run(ctx)

}
