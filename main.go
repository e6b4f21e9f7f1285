package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"messaging-service/internal/clients"
	"messaging-service/internal/db"
	"messaging-service/internal/handlers"
	"messaging-service/internal/middleware"
	"messaging-service/internal/observability"
	"messaging-service/internal/rabbitmq"
	"messaging-service/internal/repositories"
	"messaging-service/internal/service"
	"messaging-service/internal/telemetry"
	"messaging-service/internal/ws"
)

func main() {
	database, err := db.Connect()
	if err != nil {
		log.Fatalf("failed to connect to db: %v", err)
	}

	shutdownTracing, err := observability.SetupTracing(context.Background(), getEnv("OTLP_GRPC_ADDR", ""), "messaging-service")
	if err != nil {
		log.Fatalf("failed to set up tracing: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(ctx); err != nil {
			log.Printf("tracing shutdown: %v", err)
		}
	}()

	publisher := rabbitmq.NewPublisher(getEnv("AMQP_URL", ""), getEnv("AMQP_EXCHANGE", "messaging_events"))
	defer publisher.Close()
	observability.SetPublisher(publisher)
	log.Printf("event publisher mode=%s", rabbitmq.Mode(publisher))

	auditEmitter := telemetry.NewAuditEmitter(publisher, "audit_log.messaging", "messaging-service", getEnv("ENVIRONMENT", "dev"))

	authClient := clients.NewAuthClient(getEnv("AUTH_URL", "http://localhost:8084"))
	userClient := clients.NewUserClient(getEnv("USER_URL", "http://localhost:8085"))
	uploadClient := clients.NewUploadClient(getEnv("UPLOAD_URL", "http://localhost:8086"))

	messageRepo := repositories.NewMessageRepo(database)
	hub := ws.NewHub()

	conversations := service.NewConversationService(messageRepo, userClient)
	dispatcher := service.NewDispatcher(messageRepo, uploadClient, hub)

	messageHandler := handlers.NewMessageHandler(conversations, dispatcher)
	wsHandler := ws.NewHandler(hub, authClient)

	router := gin.Default()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware("messaging-service"))
	router.Use(observability.HTTPMetricsMiddleware())

	authMiddleware := middleware.Auth(authClient)

	api := router.Group("/api/messages", authMiddleware)
	api.GET("/users", messageHandler.Sidebar)
	api.GET("/:id", messageHandler.GetConversation)
	api.PUT("/mark/:id", messageHandler.MarkMessageSeen)
	api.POST("/send/:id", messageHandler.SendMessage)

	router.GET("/ws", wsHandler.Handle)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	handlers.RegisterDebugRoutes(router, auditEmitter, getEnv("DEBUG_ROUTES", "") == "true")

	port := getEnv("PORT", "8083")
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}
