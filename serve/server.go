// Copyright 2026 The Overmatch Authors
// SPDX-License-Identifier: Apache-2.0

// Package serve exposes the element-tracking store over HTTP: seen
// status and timestamps per element, marking endpoints, and match
// lookups per OSM element.
package serve

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/overmatch/overmatch/conflate"
	"github.com/overmatch/overmatch/tracker"
)

// Server is the Overmatch element-tracking API.
type Server struct {
	store   *tracker.Store
	version string
}

// NewServer wires the API around an open store.
func NewServer(store *tracker.Store, version string) *Server {
	return &Server{store: store, version: version}
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	r := gin.Default()

	r.GET("/", s.health)
	r.GET("/osm", s.getElements("osm"))
	r.GET("/overture", s.getElements("overture"))
	r.POST("/osm", s.markElements("osm"))
	r.POST("/overture", s.markElements("overture"))
	r.GET("/matches", s.getMatches)

	return r
}

// Run serves the API on addr until the listener fails.
func (s *Server) Run(addr string) error {
	return s.Router().Run(addr)
}

func (s *Server) health(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "Overmatch Element Tracking API",
		"version": s.version,
	})
}

// elementStatus is the per-identifier payload of GET /osm and
// GET /overture.
type elementStatus struct {
	ID        string `json:"element_id"`
	Exists    bool   `json:"exists"`
	FirstSeen string `json:"first_seen,omitempty"`
	LastSeen  string `json:"last_seen,omitempty"`
}

func splitIDs(raw string) []string {
	var ids []string

	for _, id := range strings.Split(raw, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}

	return ids
}

func (s *Server) getElements(source string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		ids := splitIDs(ctx.Query("ids"))
		if len(ids) == 0 {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "no IDs provided"})

			return
		}

		known, err := s.store.Get(ids)
		if err != nil {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

			return
		}

		elements := make([]elementStatus, 0, len(ids))

		for _, id := range ids {
			status := elementStatus{ID: id}

			if e, ok := known[id]; ok && e.Source == source {
				status.Exists = true
				status.FirstSeen = e.FirstSeen.UTC().Format(time.RFC3339)
				status.LastSeen = e.LastSeen.UTC().Format(time.RFC3339)
			}

			elements = append(elements, status)
		}

		ctx.JSON(http.StatusOK, gin.H{"elements": elements})
	}
}

type markRequest struct {
	IDs []string `json:"ids" binding:"required"`
}

func (s *Server) markElements(source string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		var req markRequest
		if err := ctx.ShouldBindJSON(&req); err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

			return
		}

		now := time.Now()
		if err := s.store.Mark(source, req.IDs, now); err != nil {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

			return
		}

		ctx.JSON(http.StatusOK, gin.H{
			"success":   true,
			"count":     len(req.IDs),
			"timestamp": now.UTC().Format(time.RFC3339),
		})
	}
}

// matchStatus is the per-element payload of GET /matches.
type matchStatus struct {
	OSMID    string                 `json:"osm_id"`
	HasMatch bool                   `json:"has_match"`
	Matches  []conflate.MatchRecord `json:"matches"`
}

func (s *Server) getMatches(ctx *gin.Context) {
	ids := splitIDs(ctx.Query("ids"))
	if len(ids) == 0 {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "no IDs provided"})

		return
	}

	matches, err := s.store.MatchesFor(ids)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	elements := make([]matchStatus, 0, len(ids))

	for _, id := range ids {
		found := matches[id]
		if found == nil {
			found = []conflate.MatchRecord{}
		}

		elements = append(elements, matchStatus{
			OSMID:    id,
			HasMatch: len(found) > 0,
			Matches:  found,
		})
	}

	ctx.JSON(http.StatusOK, gin.H{"elements": elements})
}
