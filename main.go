package main

import (
	"flag"

	"shopfront/internal/config"
	"shopfront/internal/webserver"
)

func main() {
	confPath := flag.String("config", "config.toml", "Path to config file")
	flag.Parse()

	server := webserver.New()
	logger := server.Logger()

	conf, err := config.LoadFromTomlFileAndValidate(*confPath)
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}

	server.Run(conf)
}
