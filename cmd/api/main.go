package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"

	"github.com/progate-hackathon-strawberry-flavor/floodtris/internal/api/handlers"
	"github.com/progate-hackathon-strawberry-flavor/floodtris/internal/api/middleware"
	"github.com/progate-hackathon-strawberry-flavor/floodtris/internal/database"
	modeltetris "github.com/progate-hackathon-strawberry-flavor/floodtris/internal/models/tetris"
	"github.com/progate-hackathon-strawberry-flavor/floodtris/internal/services/tetris"
)

func main() {
	if os.Getenv("APP_ENV") != "production" {
		err := godotenv.Load()
		if err != nil {
			log.Printf("warning: Error loading .env file (this is fine in production): %v", err)
		}
	}

	catalog := modeltetris.DefaultCatalog()
	if path := os.Getenv("CATALOG_FILE"); path != "" {
		loaded, err := modeltetris.LoadCatalogFile(path)
		if err != nil {
			log.Fatalf("カタログの読み込みに失敗しました: %v", err)
		}
		catalog = loaded
		log.Printf("Loaded %d piece types from %s", len(catalog), path)
	}

	cfg, err := tetris.LoadConfigFromEnv(catalog.TypeByName)
	if err != nil {
		log.Fatalf("ゲーム設定の読み込みに失敗しました: %v", err)
	}

	// DATABASE_URL が無い場合は結果を保存せずに起動する
	var resultRepo database.ResultRepository
	if databaseURL := os.Getenv("DATABASE_URL"); databaseURL != "" {
		dbService, err := database.NewDatabaseService(databaseURL)
		if err != nil {
			log.Fatalf("データベースの初期化に失敗しました: %v", err)
		}
		defer dbService.Close()
		resultRepo = dbService.Results()
	} else {
		log.Println("warning: DATABASE_URL is not set, results will not be saved")
	}

	tickInterval := tetris.DefaultTickInterval
	if raw := os.Getenv("TICK_INTERVAL"); raw != "" {
		tickInterval, err = time.ParseDuration(raw)
		if err != nil {
			log.Fatalf("TICK_INTERVAL の形式が不正です: %v", err)
		}
	}

	sessionManager, err := tetris.NewSessionManager(cfg, catalog, resultRepo, tickInterval)
	if err != nil {
		log.Fatalf("セッションマネージャーの作成に失敗しました: %v", err)
	}
	go sessionManager.Run()

	origins := middleware.AllowedOrigins()
	gameHandler := handlers.NewGameHandler(sessionManager, origins)
	resultHandler := handlers.NewResultHandler(resultRepo)
	publicHandler := handlers.NewPublicHandler(cfg, catalog)

	r := chi.NewRouter()
	r.Use(middleware.CORSHandler(origins))

	// 認証不要な公開エンドポイント
	r.Get("/api/public", publicHandler.GetGameInfo)
	r.Get("/api/results", resultHandler.GetTopResults)
	r.Get("/api/results/user/{userID}", resultHandler.GetUserResult)
	// WebSocketは接続後の最初のメッセージで認証する
	r.Get("/api/game/ws/{roomID}", gameHandler.HandleWebSocketConnection)

	// 認証が必要なエンドポイント
	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthMiddleware)
		r.Post("/api/game/rooms", gameHandler.CreateRoom)
		r.Get("/api/game/rooms/{roomID}", gameHandler.GetRoomStatus)
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	server := &http.Server{Addr: ":" + port, Handler: r}

	go func() {
		log.Printf("Server starting on :%s (board %dx%d, flood level %d)", port, cfg.BoardWidth, cfg.BoardHeight, cfg.FloodLevel)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("サーバーの起動に失敗しました: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	sessionManager.Shutdown()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("サーバーのシャットダウンに失敗しました: %v", err)
	}
	log.Println("Server stopped")
}
