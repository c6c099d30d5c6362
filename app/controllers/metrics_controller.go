package controllers

import (
	"github.com/policygenius/backend-go/internal/metrics"
)

// MetricsController Prometheus指标导出
type MetricsController struct {
	BaseController
}

func (c *MetricsController) Metrics() {
	metrics.Handler().ServeHTTP(c.Ctx.ResponseWriter, c.Ctx.Request)
}
