package main

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/lms-content-api/internal/handler"
	"github.com/noah-isme/lms-content-api/internal/middleware"
	"github.com/noah-isme/lms-content-api/internal/models"
	"github.com/noah-isme/lms-content-api/internal/repository"
	"github.com/noah-isme/lms-content-api/internal/service"
)

type routeDeps struct {
	tokens      *service.TokenService
	audit       *repository.AuditRepository
	metrics     *service.MetricsService
	checks      map[string]handler.ReadinessCheck
	hierarchy   *service.HierarchyService
	exports     *service.ExportService
	topics      *service.TopicService
	content     *service.ContentService
	collections *service.CollectionService
	filterRules *service.FilterRuleService
	logger      *zap.Logger
	apiPrefix   string
}

func registerRoutes(r *gin.Engine, d routeDeps) {
	metricsHandler := handler.NewMetricsHandler(d.metrics, d.checks)
	r.Use(middleware.Metrics(d.metrics, "/metrics", "/health", "/ready"))
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	hierarchyHandler := handler.NewHierarchyHandler(d.hierarchy, nil)
	if d.exports != nil {
		hierarchyHandler = handler.NewHierarchyHandler(d.hierarchy, d.exports)
	}
	topicHandler := handler.NewTopicHandler(d.topics)
	contentHandler := handler.NewContentHandler(d.content)
	collectionHandler := handler.NewCollectionHandler(d.collections)
	ruleHandler := handler.NewFilterRuleHandler(d.filterRules)

	api := r.Group(d.apiPrefix)
	api.Use(middleware.WithResponseMeta(), middleware.JWT(d.tokens))
	api.GET("/metrics/summary", middleware.RequireRoles(models.RoleAdmin, models.RoleSuperAdmin), metricsHandler.Snapshot)

	editor := middleware.RequireContentEditor()
	audit := func(action, resource, idParam string) gin.HandlerFunc {
		return middleware.Audit(d.audit, d.logger, action, resource, idParam)
	}

	hierarchyGroup := api.Group("/hierarchy")
	hierarchyGroup.GET("", hierarchyHandler.Tree)
	hierarchyGroup.GET("/subjects", hierarchyHandler.Subjects)
	hierarchyGroup.GET("/check", editor, hierarchyHandler.Check)
	hierarchyGroup.POST("/filter-rules/evaluate", hierarchyHandler.EvaluateRule)

	topics := api.Group("/topics")
	topics.GET("", topicHandler.List)
	topics.GET("/:id", topicHandler.Get)
	topics.POST("", editor, audit(models.AuditActionCreate, "topic", ""), topicHandler.Create)
	topics.PUT("/:id", editor, audit(models.AuditActionUpdate, "topic", "id"), topicHandler.Update)
	topics.DELETE("/:id", editor, audit(models.AuditActionDelete, "topic", "id"), topicHandler.Delete)

	content := api.Group("/content")
	content.GET("", contentHandler.List)
	content.GET("/:id", contentHandler.Get)
	content.POST("", editor, audit(models.AuditActionCreate, "content", ""), contentHandler.Create)
	content.PUT("/:id", editor, audit(models.AuditActionUpdate, "content", "id"), contentHandler.Update)
	content.DELETE("/:id", editor, audit(models.AuditActionDelete, "content", "id"), contentHandler.Delete)

	collections := api.Group("/collections")
	collections.GET("", collectionHandler.List)
	collections.GET("/:id", collectionHandler.Get)
	collections.POST("", editor, audit(models.AuditActionCreate, "collection", ""), collectionHandler.Create)
	collections.PUT("/:id", editor, audit(models.AuditActionUpdate, "collection", "id"), collectionHandler.Update)
	collections.DELETE("/:id", editor, audit(models.AuditActionDelete, "collection", "id"), collectionHandler.Delete)
	collections.GET("/:id/mappings", collectionHandler.ListMappings)
	collections.POST("/:id/mappings", editor, audit(models.AuditActionCreate, "collection_mapping", "id"), collectionHandler.AddMapping)
	collections.PUT("/:id/mappings/order", editor, audit(models.AuditActionReorder, "collection_mapping", "id"), collectionHandler.ReorderMappings)
	collections.DELETE("/:id/mappings/:mappingId", editor, audit(models.AuditActionDelete, "collection_mapping", "mappingId"), collectionHandler.RemoveMapping)
	collections.GET("/:id/outline.csv", hierarchyHandler.Outline(service.OutlineFormatCSV))
	collections.GET("/:id/outline.pdf", hierarchyHandler.Outline(service.OutlineFormatPDF))

	rules := api.Group("/filter-rules")
	rules.GET("", ruleHandler.List)
	rules.GET("/:id", ruleHandler.Get)
	rules.POST("", editor, audit(models.AuditActionCreate, "filter_rule", ""), ruleHandler.Create)
	rules.PUT("/:id", editor, audit(models.AuditActionUpdate, "filter_rule", "id"), ruleHandler.Update)
	rules.DELETE("/:id", editor, audit(models.AuditActionDelete, "filter_rule", "id"), ruleHandler.Delete)
}
