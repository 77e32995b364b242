package main

import (
	"context"
	"log"
	"math/rand/v2"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"menu-planner/internal/app"
	"menu-planner/internal/catalog"
	"menu-planner/internal/checked"
	"menu-planner/internal/clipper"
	"menu-planner/internal/config"
	"menu-planner/internal/database"
	"menu-planner/internal/localstore"
	"menu-planner/internal/menu"
	"menu-planner/internal/metrics"
	"menu-planner/internal/notify"
	"menu-planner/internal/recipe"
	"menu-planner/internal/shopping"
	"menu-planner/internal/telegram"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.TelegramBotToken == "" {
		log.Fatal("TELEGRAM_BOT_TOKEN must be set for the bot")
	}

	ctx := context.Background()

	db, err := database.NewDB(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	local, err := localstore.New(cfg.LocalStoreDir)
	if err != nil {
		log.Fatalf("Failed to initialize local store: %v", err)
	}

	tables, err := shopping.LoadTables()
	if err != nil {
		log.Fatalf("Failed to load shopping tables: %v", err)
	}

	recipeRepo := recipe.NewRepository(db.SQL)
	menuRepo := menu.NewRepository(db.SQL)
	savedRepo := recipe.NewSavedRepository(db.SQL)
	metricsStore := metrics.NewStore(db.SQL)
	checkedStore := checked.NewStore(local)

	// With a remote catalog, fetched recipes are mirrored into the local
	// repository so menu resolution and search keep working, and imports
	// write through to the remote admin API.
	var cat catalog.Client
	var saver clipper.RecipeSaver = recipeRepo
	if cfg.CatalogURL != "" {
		remote := catalog.NewHTTPClient(cfg.CatalogURL, cfg.CatalogKey, cfg.CatalogAdminKey)
		cat = catalog.NewMirroringClient(remote, recipeRepo)
		if w, ok := remote.(catalog.Writer); ok {
			saver = catalog.NewWriteThroughSaver(w, recipeRepo)
		}
	} else {
		cat = catalog.NewStoreClient(recipeRepo)
	}

	// The notifier is wired after the bot exists; start with the log sink.
	now := uint64(time.Now().UnixNano())
	var notifier notify.Notifier = notify.LogNotifier{}
	application := app.NewApp(
		cfg,
		cat,
		recipeRepo,
		menuRepo,
		savedRepo,
		shopping.NewAggregator(tables),
		checkedStore,
		local,
		metricsStore,
		clipper.NewClipper(saver),
		&notifierProxy{target: &notifier},
		rand.New(rand.NewPCG(now, now>>32)),
	)

	application.Login(cfg.UserID)
	if err := application.Bootstrap(ctx); err != nil {
		log.Fatalf("Bootstrap failed: %v", err)
	}

	bot, err := telegram.NewBot(cfg, application)
	if err != nil {
		log.Fatalf("Failed to initialize Telegram Bot: %v", err)
	}
	if cfg.TelegramChatID != 0 {
		notifier = notify.NewTelegramNotifier(bot.API(), cfg.TelegramChatID)
	}

	bot.RegisterHandlers()

	srv := &http.Server{Addr: ":8080"}
	go func() {
		log.Println("Bot listening on :8080")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server error: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Println("Shutting down...")
	if err := application.Flush(); err != nil {
		log.Printf("Warning: failed to flush navigation snapshot: %v", err)
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
}

// notifierProxy lets the app be constructed before the bot the
// notifications will travel through.
type notifierProxy struct {
	target *notify.Notifier
}

func (p *notifierProxy) Success(msg string) { (*p.target).Success(msg) }
func (p *notifierProxy) Warning(msg string) { (*p.target).Warning(msg) }
func (p *notifierProxy) Error(msg string)   { (*p.target).Error(msg) }
