package router

import (
	"github.com/beego/beego/v2/server/web"

	"github.com/policygenius/backend-go/app/controllers"
	"github.com/policygenius/backend-go/app/middleware"
)

// Init registers all routes. Must be called after config is loaded.
func Init() {
	web.InsertFilter("/*", web.BeforeRouter, middleware.CORSMiddleware)
	// 问答与缓存管理接口需要Bearer凭证
	web.InsertFilter("/hackrx/run", web.BeforeRouter, middleware.AuthMiddleware)
	web.InsertFilter("/cache/*", web.BeforeRouter, middleware.AuthMiddleware)

	web.Router("/", &controllers.RootController{}, "get:Index")
	web.Router("/health", &controllers.HealthController{}, "get:Health")
	web.Router("/metrics", &controllers.MetricsController{}, "get:Metrics")

	web.Router("/hackrx/run", &controllers.QueryController{}, "post:Run")

	cacheController := &controllers.CacheController{}
	web.Router("/cache/stats", cacheController, "get:Stats")
	web.Router("/cache/clear", cacheController, "delete:Clear")
}
