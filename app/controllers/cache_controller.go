package controllers

import (
	"net/http"
)

// CacheController 文档缓存管理控制器
type CacheController struct {
	BaseController
}

// Stats 返回缓存规模
func (c *CacheController) Stats() {
	svc := queryService()
	if svc == nil {
		c.JSONError(http.StatusInternalServerError, "Service not initialized")
		return
	}

	documents, indexes := svc.Cache().Stats()
	c.JSON(http.StatusOK, map[string]int{
		"documents_cached":     documents,
		"vector_stores_cached": indexes,
	})
}

// Clear 清空全部缓存条目
func (c *CacheController) Clear() {
	svc := queryService()
	if svc == nil {
		c.JSONError(http.StatusInternalServerError, "Service not initialized")
		return
	}

	svc.Cache().Clear()
	c.JSON(http.StatusOK, map[string]string{
		"message": "Cache cleared successfully",
	})
}
