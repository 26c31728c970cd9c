package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/phikva/helseapp-sub000/internal/cache"
	"github.com/phikva/helseapp-sub000/internal/config"
	"github.com/phikva/helseapp-sub000/internal/content"
	"github.com/phikva/helseapp-sub000/internal/database"
	"github.com/phikva/helseapp-sub000/internal/mealplan"
	"github.com/phikva/helseapp-sub000/internal/relation"
	"github.com/phikva/helseapp-sub000/internal/repository"
	"github.com/phikva/helseapp-sub000/internal/services"
	"github.com/phikva/helseapp-sub000/internal/session"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("loading config", "error", err)
		os.Exit(1)
	}

	db, err := database.Open(cfg.DatabasePath)
	if err != nil {
		slog.Error("opening database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		slog.Error("running migrations", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	settingsRepo := repository.NewSettingsRepository(db)
	planRepo := repository.NewMealPlanRepository(db)

	sessions := session.NewManager([]byte(cfg.SessionSecret), settingsRepo)
	if err := sessions.Load(ctx); err != nil {
		slog.Error("restoring session", "error", err)
		os.Exit(1)
	}

	contentClient := content.NewClient(cfg.ContentBaseURL, cfg.ContentDataset, cfg.ContentAPIToken)
	relationClient := relation.NewClient(cfg.RelationBaseURL, cfg.RelationAPIKey, sessions)

	details := cache.NewRecipeDetails(contentClient)
	contentCache := cache.NewContentCache(contentClient)
	profileCache := cache.NewProfileCache(relationClient, sessions)
	savedCache := cache.NewSavedRecipes(relationClient, details, sessions)

	plans := mealplan.NewStore(planRepo, settingsRepo)

	syncCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	contentCache.Refresh(syncCtx)
	snapshot := contentCache.Snapshot()
	if snapshot.Err != nil {
		slog.Warn("content refresh failed, serving cached data", "error", snapshot.Err)
	} else {
		slog.Info("content refreshed",
			"recipes", len(snapshot.Recipes),
			"categories", len(snapshot.Categories))
	}

	if _, signedIn := sessions.Current(); signedIn {
		profileCache.Refresh(syncCtx)
		savedCache.Refresh(syncCtx)
		saved := savedCache.Snapshot()
		slog.Info("saved recipes refreshed",
			"saved", len(saved.Saved),
			"favorites", len(saved.Favorites))
	} else {
		slog.Info("no session, skipping profile sync")
	}

	week, err := plans.CurrentWeek(ctx)
	if err != nil {
		slog.Error("loading current week", "error", err)
		os.Exit(1)
	}
	weekDate, err := time.Parse("2006-01-02", week)
	if err != nil {
		slog.Warn("stored week pointer unreadable, using today", "week", week, "error", err)
		weekDate = time.Now()
	}
	plan, err := plans.PlanForWeek(ctx, weekDate)
	if err != nil {
		slog.Error("loading week plan", "error", err)
		os.Exit(1)
	}

	filled := 0
	for _, day := range plan.Days {
		for _, slot := range day {
			if slot.Recipe != nil {
				filled++
			}
		}
	}
	slog.Info("meal plan ready", "week", plan.WeekStart, "planned_meals", filled)

	if cfg.PlanExportPath != "" {
		calendar, err := services.NewPlanExporter().Export(plan)
		if err != nil {
			slog.Error("exporting plan", "error", err)
			os.Exit(1)
		}
		if err := os.WriteFile(cfg.PlanExportPath, []byte(calendar), 0o644); err != nil {
			slog.Error("writing plan export", "error", err)
			os.Exit(1)
		}
		slog.Info("plan exported", "path", cfg.PlanExportPath)
	}
}
