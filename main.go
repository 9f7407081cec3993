package main

import (
	"context"
	"fmt"
	"log"
	"mlops_webapp/config"
	"mlops_webapp/infrastructure/db"
	"mlops_webapp/router"
	"mlops_webapp/service"
	"time"

	"github.com/gin-gonic/gin"
)

func main() {
	// 默认使用 release，避免线上以 debug 模式启动
	if gin.Mode() == gin.DebugMode {
		gin.SetMode(gin.ReleaseMode)
	}

	// 1. Initialize configuration
	if err := config.InitConfig(); err != nil {
		log.Fatalf("Init config failed: %v", err)
	}

	// 2. Initialize logger
	config.InitLogger()

	// 3. Initialize database
	if err := db.InitDB(); err != nil {
		log.Fatalf("Init database failed: %v", err)
	}

	// 4. Initialize redis (worker registry)
	if err := config.InitRedis(); err != nil {
		log.Fatalf("Init redis failed: %v", err)
	}
	defer config.CloseRedis()

	// 5. Start stuck-task reaper when configured
	if maxAge := config.AppConfig.StuckTaskTimeout(); maxAge > 0 {
		service.NewTaskService().StartStuckReaper(context.Background(), maxAge, time.Minute)
	}

	// 6. Setup router
	r := router.SetupRouter()

	port := config.AppConfig.Server.Port
	if port == 0 {
		port = 8080
	}
	addr := fmt.Sprintf(":%d", port)
	config.AppLogger.Info("server starting", "addr", addr)
	if err := r.Run(addr); err != nil {
		log.Fatalf("Run server failed: %v", err)
	}
}
