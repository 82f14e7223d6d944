package main

import (
	"log"
	"log/slog"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/BDNK1/botflow/executor"
	"github.com/BDNK1/botflow/runtime"
	"github.com/BDNK1/botflow/server"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := runtime.EngineConfig{}
	if err := runtime.PrepareConfig(&cfg); err != nil {
		log.Fatalf("Error preparing engine config: %v", err)
	}
	httpCfg := executor.HTTPConfig{}
	if err := runtime.PrepareConfig(&httpCfg); err != nil {
		log.Fatalf("Error preparing http config: %v", err)
	}

	app, err := runtime.NewApp("flows", cfg, executor.NewDefaultExecutor(logger, httpCfg), logger)
	if err != nil {
		log.Fatalf("Error initializing app: %v", err)
	}
	app.Engine.StartCleanup()
	defer app.Engine.Close()

	g := gin.Default()
	server.NewHandler(app, logger, g)

	if err := g.Run(":8080"); err != nil {
		log.Fatalf("Error running server: %v", err)
	}
}
