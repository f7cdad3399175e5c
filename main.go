package main

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/qaforge/qatrack/config"
	"github.com/qaforge/qatrack/pkg/api/middleware"
	"github.com/qaforge/qatrack/pkg/api/routers"
	"github.com/qaforge/qatrack/pkg/datamigrations"
	"github.com/qaforge/qatrack/pkg/db"
	"github.com/qaforge/qatrack/pkg/logger"
)

func main() {
	logger.InitLoggerOnce()
	initConfig()
	initDb()
	initServer()
}

func initConfig() {
	if _, err := config.LoadConfig(); err != nil {
		logger.GetLogger().Fatal("error loading config", err)
	}
}

func initDb() {
	if err := db.Initialize(); err != nil {
		logger.GetLogger().Fatal("error initializing database", err)
	}
	if err := datamigrations.ReconcilePlanRollups(db.GetDb()); err != nil {
		logger.GetLogger().Error("error reconciling plan rollups", err)
	}
}

func initServer() {
	serverConfig := config.GetServer()
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(cors.New(cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "X-Request-ID"},
		AllowCredentials: false,
		AllowAllOrigins:  true,
		MaxAge:           12 * time.Hour,
	}))

	routers.RegisterRouters(router, db.GetDb())

	logger.GetLogger().Info("listening on " + serverConfig.Port)
	if err := router.Run(serverConfig.Port); err != nil {
		logger.GetLogger().Fatal("server stopped", err)
	}
}
