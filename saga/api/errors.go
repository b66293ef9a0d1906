package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-foreman/enrollsaga/saga"
	"github.com/pkg/errors"
)

type ResponseError struct {
	error
	status int
}

// Status returns http status code
func (e ResponseError) Status() int {
	return e.status
}

func NewResponseError(status int, err error) ResponseError {
	return ResponseError{status: status, error: err}
}

// writeError responds with the status of a ResponseError, 404 for a missing saga and 500 for anything else
func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError

	var respErr ResponseError
	switch {
	case errors.As(err, &respErr):
		status = respErr.Status()
	case errors.Is(err, saga.ErrSagaNotFound):
		status = http.StatusNotFound
	}

	c.JSON(status, gin.H{"error": err.Error()})
}
