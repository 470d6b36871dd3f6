package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/gin-gonic/gin"

	"tenet/api/middleware"
	"tenet/api/routes"
	"tenet/config"
	"tenet/db"
	"tenet/services"
	"tenet/store"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "config/config.yaml", "Path to the configuration file")
	flag.Parse()

	if err := config.LoadConfig(configPath); err != nil {
		panic("Failed to load configuration: " + err.Error())
	}
	log.Println("Starting server...")

	if err := db.ConnectDB(); err != nil {
		panic("Failed to connect to the database: " + err.Error())
	}

	ctx := context.Background()
	if err := store.Connect(ctx); err != nil {
		panic("Failed to connect to the document store: " + err.Error())
	}

	// Cache and push are optional; the service degrades to store reads.
	if err := services.InitRedis(); err != nil {
		log.Printf("Warning: Redis unavailable, feed cache disabled: %v", err)
	}
	if err := services.InitRabbitMQ(); err != nil {
		log.Printf("Warning: RabbitMQ unavailable, feed push disabled: %v", err)
	} else if err := services.StartFeedEventConsumer(ctx, "feed_push_queue"); err != nil {
		log.Printf("Warning: failed to start feed consumer: %v", err)
	}

	router := gin.Default()
	router.Use(gin.Recovery())
	router.Use(middleware.PrometheusMiddleware("tenet"))

	routes.PublicApi(router)

	addr := fmt.Sprintf("%s:%d", config.AppConfig.Backend.Host, config.AppConfig.Backend.Port)
	if err := router.Run(addr); err != nil {
		panic(err)
	}
}
