package main

import (
	"context"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/hive-corporation/fusion/internal/adapter/handler"
	"github.com/hive-corporation/fusion/internal/app"
	"github.com/hive-corporation/fusion/internal/config"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, using environment and config file only")
	}

	cfg, err := config.Load(config.Path())
	if err != nil {
		log.Fatalf("❌ Invalid configuration: %v", err)
	}

	application, err := app.New(context.Background(), cfg)
	if err != nil {
		log.Fatalf("❌ %v", err)
	}
	defer application.Close()

	// Defaults to localhost; set GRPC_LISTEN_ADDR to expose it
	lis, err := net.Listen("tcp", cfg.GRPC.ListenAddr)
	if err != nil {
		log.Fatalf("failed to listen: %v", err)
	}

	s := grpc.NewServer()

	handler.RegisterFusionServer(s, handler.NewGrpcServer(application.Sessions, application.Importer))

	healthServer := health.NewServer()
	healthServer.SetServingStatus(handler.FusionServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(s, healthServer)

	reflection.Register(s)

	go func() {
		log.Printf("🚀 Fusion gRPC API listening on %s\n", cfg.GRPC.ListenAddr)
		if err := s.Serve(lis); err != nil {
			log.Fatalf("failed to serve: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	healthServer.Shutdown()
	s.GracefulStop()
}
