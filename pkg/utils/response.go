package utils

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// ErrorResponse define la estructura estándar para las respuestas de error.
type ErrorResponse struct {
	Message string `json:"message"`
}

// ErrorStatus asocia un error de dominio (comparado con errors.Is) a un código HTTP.
// Con Message vacío se devuelve el texto del error.
type ErrorStatus struct {
	Err     error
	Status  int
	Message string
}

// SendSuccess envía una respuesta exitosa con un payload de datos.
func SendSuccess(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, gin.H{
		"data": data,
	})
}

// SendError envía una respuesta de error con un formato estandarizado.
func SendError(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, gin.H{
		"error": ErrorResponse{
			Message: message,
		},
	})
}

// SendMappedError responde con el primer mapeo que coincida; cualquier otro error es un 500
// sin detalles internos.
func SendMappedError(c *gin.Context, err error, mappings ...ErrorStatus) {
	for _, m := range mappings {
		if !errors.Is(err, m.Err) {
			continue
		}
		msg := m.Message
		if msg == "" {
			msg = err.Error()
		}
		SendError(c, m.Status, msg)
		return
	}
	_ = c.Error(err)
	SendInternalServerError(c, "internal error")
}

// --- Helpers específicos para errores comunes ---

func SendBadRequest(c *gin.Context, message string) {
	SendError(c, http.StatusBadRequest, message)
}

func SendNotFound(c *gin.Context, message string) {
	SendError(c, http.StatusNotFound, message)
}

func SendInternalServerError(c *gin.Context, message string) {
	SendError(c, http.StatusInternalServerError, message)
}
