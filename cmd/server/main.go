package main

import (
	"github.com/amber-ici/amber/backend/internal/server"
	"github.com/amber-ici/amber/backend/internal/util"
	"github.com/amber-ici/amber/backend/pkg/logger"
	"github.com/amber-ici/amber/backend/pkg/logger/console"
)

func main() {
	util.LoadEnv()

	debug := util.GetEnvBool("DEBUG", false)

	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug: debug,
	})
	logger.Init(consoleLogger)

	server.Init()
}
