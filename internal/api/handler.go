package api

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fleetguard/fleetguard/internal/auth"
	"github.com/fleetguard/fleetguard/internal/csvimport"
	"github.com/fleetguard/fleetguard/internal/metrics"
	"github.com/fleetguard/fleetguard/internal/store"
	"github.com/fleetguard/fleetguard/internal/usage"
	"github.com/fleetguard/fleetguard/internal/validate"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store    store.Store
	agg      *metrics.Aggregator
	usage    *usage.Service
	auth     *auth.Service
	importer *csvimport.Importer
	vapidKey string
}

// NewHandler creates a new API handler.
func NewHandler(s store.Store, agg *metrics.Aggregator, usageSvc *usage.Service, authSvc *auth.Service, importer *csvimport.Importer, vapidKey string) *Handler {
	return &Handler{
		store:    s,
		agg:      agg,
		usage:    usageSvc,
		auth:     authSvc,
		importer: importer,
		vapidKey: vapidKey,
	}
}

// respondError maps the error taxonomy onto HTTP statuses. Validation
// failures go out field-indexed; conflicts carry their recovery hint;
// anything unrecognized is an upstream failure and stays a 500.
func respondError(c *gin.Context, err error) {
	var verrs validate.Errors
	var conflict *store.ConflictError

	switch {
	case errors.As(err, &verrs):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"errors": verrs})
	case errors.As(err, &conflict):
		body := gin.H{"error": conflict.Message}
		if conflict.Action != "" {
			body["action"] = conflict.Action
		}
		c.JSON(http.StatusConflict, body)
	case errors.Is(err, store.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		log.Printf("internal error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

// actorFor converts the authenticated caller into the aggregator's actor.
func actorFor(a auth.Actor) metrics.Actor {
	return metrics.Actor{WorkerID: a.WorkerID, UID: a.UID, Role: a.Role}
}
