package main

import (
	"battler-server/internal/agent"
	"battler-server/internal/catalog"
	"battler-server/internal/domain"
	"battler-server/internal/engine"
	"battler-server/internal/infrastructure/storage"
	"battler-server/internal/server"
	"battler-server/internal/version"
	"battler-server/pkg/logger"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
)

func init() {
	// .env опционален: в контейнере конфигурация приходит из окружения.
	_ = godotenv.Load()
	logger.Init()
}

func main() {
	// 1. Парсинг конфигурации
	var catalogDir string
	var watchCatalog bool
	var botMode string
	flag.StringVar(&catalogDir, "catalog", "", "Directory with monster YAML files (empty = embedded catalog)")
	flag.BoolVar(&watchCatalog, "watch", false, "Hot-reload the catalog directory on change")
	flag.StringVar(&botMode, "bot", "", "Spawn a headless agent in the given mode (gauntlet, endless, ...)")
	flag.Parse()

	logger.Log.Info("Starting Monster Battler...")
	logger.Log.Info(version.String())

	// 2. Каталог монстров
	var cat *catalog.Catalog
	var err error
	if catalogDir != "" {
		cat, err = catalog.LoadDir(catalogDir)
		if err != nil {
			logger.Log.Fatal("Failed to load catalog:", err)
		}
		logger.Log.Infof("📜 Catalog: %d monsters from %s", cat.Count(), catalogDir)
	} else {
		cat = catalog.MustLoad()
		logger.Log.Infof("📜 Catalog: %d monsters (embedded)", cat.Count())
	}

	// 3. Хранилище
	saveDir := os.Getenv("MB_SAVE_DIR")
	if saveDir == "" {
		saveDir = "./data"
	}
	local, err := storage.NewFileStore(saveDir)
	if err != nil {
		logger.Log.Fatal("Failed to open save directory:", err)
	}

	// Сервер таблицы лидеров опционален: без DSN работаем локально.
	var remote storage.RemoteStore
	if dsn := os.Getenv("MB_SCOREBOARD_DSN"); dsn != "" {
		pg, err := storage.OpenPostgres(dsn)
		if err != nil {
			// Недоступность сервера не мешает игре.
			logger.Log.WithError(err).Warn("Scoreboard server unavailable, running local-only")
		} else {
			remote = pg
			defer pg.Close()
			logger.Log.Info("🏆 Scoreboard server connected")
		}
	}

	sessions := &storage.StaticSessionProvider{UserID: os.Getenv("MB_USER_ID")}
	store := storage.NewService(local, remote, sessions)

	// 4. Инициализация ядра
	gameService := engine.NewGameService(cat, store)

	// Горячая перезагрузка каталога (только при -catalog + -watch)
	if watchCatalog && catalogDir != "" {
		watcher, err := catalog.NewWatcher(catalogDir)
		if err != nil {
			logger.Log.Fatal("Failed to watch catalog:", err)
		}
		defer watcher.Close()
		go func() {
			for fresh := range watcher.Reloads {
				gameService.SetCatalog(fresh)
			}
		}()
	}

	// Headless-агент для нагрузочной обкатки
	if botMode != "" {
		bot, err := agent.NewBot(gameService, domain.GameMode(botMode))
		if err != nil {
			logger.Log.Fatal("Failed to start bot:", err)
		}
		go bot.Run()
	}

	port := os.Getenv("MB_PORT")
	if port == "" {
		port = "8080"
	}

	// Graceful Shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	// 5. Запуск сервера
	srv := server.New(gameService, port)

	go func() {
		if err := srv.Run(); err != nil {
			logger.Log.Fatal("Server start error:", err)
		}
	}()

	<-stop
	logger.Log.Info("Shutting down...")

	for _, id := range gameService.SessionIDs() {
		gameService.EndSession(id)
	}

	logger.Log.Info("Done.")
}
