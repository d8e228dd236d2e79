// Command main prints the API route table as YAML.
package main

import (
	"log"
	"os"

	"chirp/internal/config"
	"chirp/internal/server"

	"gopkg.in/yaml.v3"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	app := server.NewApp()
	server.NewServer(cfg, server.Deps{}).SetupRoutes(app)

	enc := yaml.NewEncoder(os.Stdout)
	enc.SetIndent(2)
	if err := enc.Encode(map[string]any{"routes": server.RouteTable(app)}); err != nil {
		log.Fatalf("Encode routes failed: %v", err)
	}
	_ = enc.Close()
}
