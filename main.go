package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/inkreader/backend/config"
	"github.com/inkreader/backend/handlers"
	"github.com/inkreader/backend/middleware"
	"github.com/inkreader/backend/service"
	"github.com/inkreader/backend/store"
	"github.com/inkreader/backend/utils"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("config:", err)
	}
	config.ValidateEnv()

	ctx := context.Background()
	db, err := store.NewMongoDB(ctx, cfg.MongoURI, cfg.DBName)
	if err != nil {
		log.Fatal("mongodb:", err)
	}
	defer func() {
		if err := db.Disconnect(context.Background()); err != nil {
			log.Println("mongodb disconnect:", err)
		}
	}()
	if err := db.EnsureIndexes(ctx); err != nil {
		log.Fatal("indexes:", err)
	}
	handlers.EnsureAdminUser(ctx, db, cfg.AdminEmail, cfg.AdminPassword)

	var s3Service *service.S3Service
	if cfg.S3Bucket != "" {
		s3Service, err = service.NewS3Service(ctx, cfg.S3Bucket, cfg.S3Region, cfg.S3AccessKeyID, cfg.S3SecretKey)
		if err != nil {
			log.Fatal("s3:", err)
		}
	} else {
		log.Println("warning: AWS_S3_BUCKET not set; uploads will fail")
	}
	mailer := service.NewMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.SMTPFrom)
	if mailer == nil {
		log.Println("warning: SMTP not configured; chapter notifications disabled")
	}

	authHandler := &handlers.AuthHandler{DB: db, JWTSecret: cfg.JWTSecret}
	mangaHandler := &handlers.MangaHandler{DB: db, Counts: utils.NewCountCache(30 * time.Second)}
	chaptersHandler := &handlers.ChaptersHandler{DB: db, Mailer: mailer, BaseURL: cfg.BaseURL}
	commentsHandler := &handlers.CommentsHandler{DB: db}
	reactionsHandler := &handlers.ReactionsHandler{DB: db}
	userHandler := &handlers.UserHandler{DB: db}
	adminHandler := &handlers.AdminHandler{DB: db}
	uploadHandler := &handlers.UploadHandler{S3: s3Service, MaxUploadMB: cfg.MaxUploadMB}

	auth := middleware.Auth(cfg.JWTSecret, db)
	optionalAuth := middleware.OptionalAuth(cfg.JWTSecret, db)

	r := chi.NewRouter()
	r.Use(middleware.AllowAll())
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"message":"welcome to inkreader."}`))
	})
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})
	r.Route("/api", func(r chi.Router) {
		r.Get("/images/*", uploadHandler.Image)
		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)

		// Public reads; a valid token personalizes the response.
		r.Group(func(r chi.Router) {
			r.Use(optionalAuth)
			r.Get("/manga", mangaHandler.List)
			r.Get("/manga/{slug}", mangaHandler.Get)
			r.Get("/manga/{slug}/chapters", chaptersHandler.ListByManga)
			r.Get("/manga/{slug}/chapters/{number}", chaptersHandler.Read)
			r.Get("/comments", commentsHandler.List)
			r.Get("/reactions", reactionsHandler.Get)
			r.Post("/reactions", reactionsHandler.Post)
		})

		// Signed-in users.
		r.Group(func(r chi.Router) {
			r.Use(auth)
			r.Post("/auth/logout", authHandler.Logout)
			r.Get("/auth/me", authHandler.Me)

			r.Post("/manga/{id}/favorite", mangaHandler.Favorite)
			r.Post("/manga/{id}/rate", mangaHandler.Rate)
			r.Post("/manga/{id}/like", mangaHandler.Like)
			r.Post("/manga/{id}/dislike", mangaHandler.Dislike)

			r.Post("/comments", commentsHandler.Create)
			r.Put("/comments/{id}", commentsHandler.Update)
			r.Delete("/comments/{id}", commentsHandler.Delete)
			r.Post("/comments/{id}/like", commentsHandler.Like)
			r.Post("/comments/{id}/dislike", commentsHandler.Dislike)

			r.Get("/user/profile", userHandler.Profile)
			r.Put("/user/profile", userHandler.UpdateProfile)
			r.Get("/user/settings", userHandler.Settings)
			r.Put("/user/settings", userHandler.UpdateSettings)
			r.Get("/user/favorites", userHandler.Favorites)
			r.Get("/user/history", userHandler.History)
			r.Post("/user/history", userHandler.RecordHistory)
			r.Delete("/user/history", userHandler.ClearHistory)
			r.Get("/user/lists", userHandler.Lists)
			r.Post("/user/lists", userHandler.CreateList)
			r.Put("/user/lists/{listID}", userHandler.UpdateList)
			r.Delete("/user/lists/{listID}", userHandler.DeleteList)
			r.Post("/user/lists/{listID}/manga/{mangaID}", userHandler.AddListManga)
			r.Delete("/user/lists/{listID}/manga/{mangaID}", userHandler.RemoveListManga)

			r.Post("/upload", uploadHandler.Upload)
		})

		// Back office.
		r.Group(func(r chi.Router) {
			r.Use(auth)
			r.Use(middleware.RequireAdmin)

			r.Post("/manga", mangaHandler.Create)
			r.Put("/manga/{id}", mangaHandler.Update)
			r.Delete("/manga/{id}", mangaHandler.Delete)
			r.Post("/chapters", chaptersHandler.Create)
			r.Put("/chapters/{id}", chaptersHandler.Update)
			r.Delete("/chapters/{id}", chaptersHandler.Delete)

			r.Get("/admin/users", adminHandler.ListUsers)
			r.Post("/admin/users", adminHandler.CreateUser)
			r.Put("/admin/users/{userID}", adminHandler.UpdateUser)
			r.Delete("/admin/users/{userID}", adminHandler.DeleteUser)
			r.Get("/admin/stats", adminHandler.Stats)
			r.Get("/admin/export", adminHandler.Export)
			r.Post("/admin/import", adminHandler.Import)
		})
	})

	server := &http.Server{Addr: ":" + cfg.Port, Handler: r}
	go func() {
		log.Println("server listening on :" + cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal(err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Println("shutdown:", err)
	}
}
