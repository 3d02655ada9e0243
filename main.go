package main

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/lettergrid/apps/go-server/internal/db"
	"github.com/robalobadob/lettergrid/apps/go-server/internal/game"
	"github.com/robalobadob/lettergrid/apps/go-server/internal/httpserver"
	"github.com/robalobadob/lettergrid/apps/go-server/internal/store"
	"github.com/robalobadob/lettergrid/apps/go-server/internal/words"
)

func main() {
	_ = godotenv.Load()
	if lvl, err := zerolog.ParseLevel(getEnv("LOG_LEVEL", "info")); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	sqlDB, err := db.Open(getEnv("DB_PATH", "./data/lettergrid.db"))
	if err != nil {
		log.Fatal().Err(err).Msg("open database")
	}
	defer sqlDB.Close()
	if err := db.Migrate(sqlDB); err != nil {
		log.Fatal().Err(err).Msg("migrate database")
	}

	if err := words.Init(); err != nil {
		log.Fatal().Err(err).Msg("failed to load word list")
	}
	var validator game.Validator = words.Local{}
	if url := os.Getenv("DICTIONARY_URL"); url != "" {
		validator = words.NewRemote(url)
		log.Info().Str("url", url).Msg("using remote dictionary")
	}

	gridSize, _ := strconv.Atoi(os.Getenv("GRID_SIZE"))

	srv := httpserver.New(httpserver.Config{
		Store:     store.NewMemoryStore(),
		DB:        sqlDB,
		Validator: validator,
		DailySalt: getEnv("DAILY_SALT", "local_dev_salt"),
		GridSize:  gridSize,
	})
	port := getEnv("PORT", "5175")
	log.Info().Str("port", port).Int("words", words.Stats()).Msg("starting go-server")
	if err := srv.Start(":" + port); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
