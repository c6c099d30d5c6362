package controllers

import (
	"net/http"
	"time"
)

// RootController 根控制器
type RootController struct {
	BaseController
}

func (c *RootController) Index() {
	c.JSON(http.StatusOK, map[string]string{
		"message": "PolicyGenius Query API",
		"version": "1.0.0",
		"status":  "running",
	})
}

// HealthController 健康检查控制器
type HealthController struct {
	BaseController
}

func (c *HealthController) Health() {
	c.JSON(http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": float64(time.Now().UnixNano()) / float64(time.Second),
	})
}
