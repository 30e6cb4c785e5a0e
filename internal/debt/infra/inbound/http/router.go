package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterDebtRoutes registra las rutas HTTP del dominio de deudas.
func RegisterDebtRoutes(r *gin.Engine, handler *DebtHandler) {
	r.POST("/upload-csv", handler.UploadCSV)
	r.GET("/uploads", handler.ListUploads)

	debts := r.Group("/debts")
	{
		debts.GET("", handler.ListDebts)
		debts.POST("/process", handler.TriggerProcessing)
		debts.GET("/:id", handler.GetDebt)
		debts.PUT("/:id", handler.UpdateDebt)
		debts.DELETE("/:id", handler.DeleteDebt)
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}
