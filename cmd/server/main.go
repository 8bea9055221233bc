package main

import (
	"context"
	"log"

	"github.com/digivault/digivault/internal/config"
	"github.com/digivault/digivault/internal/web"
)

func main() {

	ctx := context.Background()
	cfg := config.LoadConfig()
	app, err := web.NewApp(ctx, cfg)

	if err != nil {
		log.Printf("%v", err)
		return
	}

	app.Run(ctx)

}
