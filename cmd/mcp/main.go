package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/server"
	"github.com/playsevenate9/backend/internal/ai"
	sevenmcp "github.com/playsevenate9/backend/internal/mcp"
)

func main() {
	think := flag.Bool("think", false, "pause like a human before each bot move")
	profilesFile := flag.String("profiles", "", "YAML file overriding the built-in bot tiers")
	flag.Parse()

	profiles := ai.DefaultProfiles()
	if *profilesFile != "" {
		p, err := ai.ReadProfiles(*profilesFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		profiles = p
	}

	table := sevenmcp.NewTable(ai.NewDriver(nil, profiles, *think, nil))

	s := server.NewMCPServer("seven-ate-nine", "1.0.0")
	sevenmcp.RegisterTools(s, table)

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
