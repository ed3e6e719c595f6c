package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"

	"github.com/nestlyflow/nestlyflow-go/internal/config"
	"github.com/nestlyflow/nestlyflow-go/internal/groq"
	"github.com/nestlyflow/nestlyflow-go/internal/handler"
	"github.com/nestlyflow/nestlyflow-go/internal/mailer"
	"github.com/nestlyflow/nestlyflow-go/internal/middleware"
	"github.com/nestlyflow/nestlyflow-go/internal/repository"
	"github.com/nestlyflow/nestlyflow-go/internal/service"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Warn("no .env file found, using environment variables")
	}

	cfg := config.Load()

	db, err := repository.NewDB(cfg.DatabaseDSN)
	if err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	userRepo := repository.NewUserRepository(db)
	todoRepo := repository.NewTodoRepository(db)
	tokenRepo := repository.NewResetTokenRepository(db)

	resetMailer := mailer.New(cfg.ResendAPIKey, cfg.MailFrom)
	groqClient := groq.NewClient(cfg.GroqAPIKey)

	todoService := service.NewTodoService(todoRepo)
	authService := service.NewAuthService(userRepo, todoService, tokenRepo, resetMailer,
		cfg.JWTSecret, cfg.JWTExpiry, cfg.ResetBaseURL)
	dashboardService := service.NewDashboardService(todoRepo)
	chatService := service.NewChatService(groqClient, todoService)

	authHandler := handler.NewAuthHandler(authService)
	todoHandler := handler.NewTodoHandler(todoService)
	dashboardHandler := handler.NewDashboardHandler(dashboardService)
	chatHandler := handler.NewChatHandler(chatService, authService)

	requireAuth := middleware.JWTAuth(cfg.JWTSecret)
	optionalAuth := middleware.OptionalJWTAuth(cfg.JWTSecret)

	r := chi.NewRouter()
	r.Use(middleware.Logger)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"message":"Welcome to the To-Do Application API!"}`))
	})

	r.Route("/auth", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimit(5, 10))
			r.Post("/signup", authHandler.HandleSignup)
			r.Post("/login", authHandler.HandleLogin)
			r.Post("/forgot-password", authHandler.HandleForgotPassword)
			r.Post("/reset-password", authHandler.HandleResetPassword)
		})
		r.Post("/logout", authHandler.HandleLogout)

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/users/me", authHandler.HandleMe)
			r.Patch("/users/me", authHandler.HandleUpdateMe)
			r.Delete("/users/me", authHandler.HandleDeleteMe)
			r.Post("/users/me/reset-password", authHandler.HandleChangePassword)
		})
	})

	r.Route("/crud", func(r chi.Router) {
		r.Use(requireAuth)
		r.Get("/todos", todoHandler.HandleList)
		r.Post("/todos", todoHandler.HandleCreate)
		r.Get("/todos/{id}", todoHandler.HandleGet)
		r.Put("/todos/{id}", todoHandler.HandleUpdate)
		r.Delete("/todos/{id}", todoHandler.HandleDelete)
	})

	r.With(requireAuth).Get("/api/", dashboardHandler.HandleDashboard)
	r.With(optionalAuth).Post("/chat/chatbot", chatHandler.HandleChat)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		slog.Info("server starting", "port", cfg.Port, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped")
}
