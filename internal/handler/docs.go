package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterDocs serves a machine-readable index of the public routes.
// Lightweight on purpose: the API is small enough that a generated
// OpenAPI document would cost more than it gives.
func RegisterDocs(r *gin.Engine) {
	r.GET("/docs", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"service": "volleyball-match-service",
			"base":    APIV1Prefix,
			"routes": []gin.H{
				{"method": "POST", "path": "/matches", "summary": "create a live match"},
				{"method": "GET", "path": "/matches", "summary": "list finalized match records"},
				{"method": "GET", "path": "/matches/:id", "summary": "current match state snapshot"},
				{"method": "GET", "path": "/matches/:id/record", "summary": "persisted match record"},
				{"method": "POST", "path": "/matches/:id/resume", "summary": "resume a persisted match"},
				{"method": "POST", "path": "/matches/:id/stats", "summary": "record a stat event"},
				{"method": "POST", "path": "/matches/:id/score/adjust", "summary": "manual score adjustment"},
				{"method": "PUT", "path": "/matches/:id/score", "summary": "set a team score outright"},
				{"method": "POST", "path": "/matches/:id/timeouts", "summary": "use a timeout"},
				{"method": "POST", "path": "/matches/:id/substitutions", "summary": "substitute or assign a player"},
				{"method": "PUT", "path": "/matches/:id/designated-sub", "summary": "pair a bench player with a position"},
				{"method": "POST", "path": "/matches/:id/rotations", "summary": "rotate the lineup"},
				{"method": "PUT", "path": "/matches/:id/server", "summary": "select the first server for a set"},
				{"method": "GET", "path": "/matches/:id/server/suggestion", "summary": "suggested first server"},
				{"method": "POST", "path": "/matches/:id/sets/next", "summary": "start the next set"},
				{"method": "POST", "path": "/matches/:id/undo", "summary": "undo the last logged event"},
				{"method": "PATCH", "path": "/matches/:id/log/:entryId", "summary": "edit a log entry"},
				{"method": "GET", "path": "/matches/:id/rally", "summary": "events of the current rally"},
				{"method": "GET", "path": "/matches/:id/momentum", "summary": "momentum analysis and timeout suggestion"},
				{"method": "POST", "path": "/matches/:id/finalize", "summary": "finalize and persist the match"},
				{"method": "PUT", "path": "/matches/:id/narrative", "summary": "attach a narrative to a record"},
			},
		})
	})
}
