package main

import (
	"log"
	"strconv"

	"github.com/beego/beego/v2/server/web"
	"go.uber.org/zap"

	"github.com/policygenius/backend-go/app/bootstrap"
	"github.com/policygenius/backend-go/app/router"
	"github.com/policygenius/backend-go/internal/config"
	"github.com/policygenius/backend-go/internal/logger"
)

func main() {
	app, err := bootstrap.Init()
	if err != nil {
		log.Fatalf("failed to bootstrap application: %v", err)
	}
	defer app.Shutdown()

	router.Init()

	// 配置Beego全局设置
	web.BConfig.AppName = "PolicyGenius Query Service"
	web.BConfig.CopyRequestBody = true

	if p, err := strconv.Atoi(config.AppConfig.Server.Port); err == nil {
		web.BConfig.Listen.HTTPPort = p
	}

	logger.Info("🚀 Starting PolicyGenius Query Service",
		zap.Int("port", web.BConfig.Listen.HTTPPort))
	web.Run()
}
