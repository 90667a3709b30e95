package main

import (
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/CardDAO/truco-sub000/internal/cache"
	"github.com/CardDAO/truco-sub000/internal/config"
	"github.com/CardDAO/truco-sub000/internal/database"
	"github.com/CardDAO/truco-sub000/internal/server"
)

func main() {
	cfg := config.Load()

	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logrus.SetLevel(level)
	}
	logrus.WithField("addr", cfg.HTTPAddr).Info("starting truco server")

	db, err := database.New(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		logrus.WithError(err).Fatal("open results database")
	}
	defer db.Close()

	if cfg.RedisAddr != "" {
		if err := cache.InitRedis(cfg.RedisAddr, cfg.RedisDB); err != nil {
			logrus.WithError(err).Warn("redis unavailable, action stream disabled")
		}
	}

	hub := server.NewHub(cfg, db)
	go hub.Run()

	http.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		server.ServeWs(hub, w, r)
	})
	server.HandleRoutes(db)

	logrus.Fatal(http.ListenAndServe(cfg.HTTPAddr, nil))
}
