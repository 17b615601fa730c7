package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/tnqbao/gau-marine-service/http/controller"
	middlewares "github.com/tnqbao/gau-marine-service/http/middleware"
)

func SetupRouter(ctrl *controller.Controller) *gin.Engine {
	r := gin.Default()
	middles, err := middlewares.NewMiddlewares(ctrl)
	if err != nil {
		panic(err)
	}
	r.Use(middles.CORSMiddleware)

	r.GET("/healthz", ctrl.CheckHealth)

	apiRoutes := r.Group("/api/v1/marine")
	{
		apiRoutes.Use(middles.AuthMiddleware)
		registerRoutes(apiRoutes, ctrl)
	}
	return r
}

func registerRoutes(apiRoutes *gin.RouterGroup, ctrl *controller.Controller) {
	jobRoutes := apiRoutes.Group("/jobs")
	{
		jobRoutes.GET("", ctrl.ListJobs)
		jobRoutes.POST("", ctrl.CreateJob)
		jobRoutes.PUT("/:serial/fields/:field", ctrl.UpdateJobField)
		jobRoutes.PUT("/:serial/refund", ctrl.UpdateRefundStatus)
		jobRoutes.DELETE("/:serial", ctrl.DeleteJob)
		jobRoutes.POST("/:serial/files", ctrl.UploadJobFiles)
	}

	attachmentRoutes := apiRoutes.Group("/attachments")
	{
		attachmentRoutes.PUT("/:job_id/rename", ctrl.RenameAttachment)
		attachmentRoutes.DELETE("/:job_id/:file_name", ctrl.DeleteAttachment)
		attachmentRoutes.GET("/:job_id/:file_name/url", ctrl.GetAttachmentURL)
	}

	apiRoutes.GET("/dashboard", ctrl.GetDashboard)
	apiRoutes.GET("/refunds", ctrl.ListRefunds)
	apiRoutes.GET("/events", ctrl.StreamEvents)

	documentRoutes := apiRoutes.Group("/documents")
	{
		documentRoutes.GET("", ctrl.ListDocuments)
		documentRoutes.POST("", ctrl.UploadDocument)
		documentRoutes.DELETE("/:id", ctrl.DeleteDocument)
		documentRoutes.GET("/tree/*path", ctrl.BrowseDocuments)
		documentRoutes.GET("/url/:id", ctrl.GetDocumentURL)
	}

	companyFileRoutes := apiRoutes.Group("/company-files")
	{
		companyFileRoutes.GET("", ctrl.ListCompanyFiles)
		companyFileRoutes.POST("", ctrl.UploadCompanyFile)
		companyFileRoutes.DELETE("/:id", ctrl.DeleteCompanyFile)
		companyFileRoutes.GET("/tree/*path", ctrl.BrowseCompanyFiles)
		companyFileRoutes.GET("/url/:id", ctrl.GetCompanyFileURL)
	}
}
