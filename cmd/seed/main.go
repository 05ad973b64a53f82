package main

import (
	"flag"
	"os"

	"github.com/oggyb/elite-matchmaking/internal/config"
	"github.com/oggyb/elite-matchmaking/internal/db"
	"github.com/oggyb/elite-matchmaking/internal/logger"
)

func main() {
	file := flag.String("file", "", "scripted profiles YAML (defaults to the embedded set)")
	demo := flag.Bool("demo", false, "wipe the database and add demo members and decisions")
	flag.Parse()

	// Load configuration
	cfg := config.New()
	logger.InitFromConfig(cfg)
	log := logger.L()

	if *file == "" {
		*file = cfg.Bot.SeedFile
	}
	if *demo && cfg.App.ENV != "development" {
		log.Error("refusing to wipe a non-development database", "env", cfg.App.ENV)
		os.Exit(1)
	}

	database, err := db.NewDB(cfg)
	if err != nil {
		log.Error("failed to init db", "err", err)
		os.Exit(1)
	}

	scripted, err := db.LoadScriptedProfiles(*file)
	if err != nil {
		log.Error("failed to load scripted profiles", "err", err)
		os.Exit(1)
	}

	if *demo {
		err = db.SeedDemoData(database, scripted)
	} else {
		err = db.SeedScriptedProfiles(database, scripted)
	}
	if err != nil {
		log.Error("failed to seed", "err", err)
		os.Exit(1)
	}

	log.Info("seeding completed", "scripted", len(scripted), "demo", *demo)
}
