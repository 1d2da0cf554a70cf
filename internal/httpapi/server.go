// Package httpapi exposes the venue list, the refresh affordances and the
// tinted icons over HTTP.
package httpapi

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"nearme/internal/imagecache"
	"nearme/internal/listview"
	"nearme/internal/refresh"
	"nearme/pkg/location"
)

const (
	aboutTitle   = "NearMe"
	aboutText    = "Shows the five venues closest to you. Pull the list or press refresh to update it."
	aboutCredits = "Venue data and category icons by Foursquare."
)

// Refresher is the refresh pipeline as seen by the API.
type Refresher interface {
	TriggerRefresh(reason string)
	Status() refresh.Status
	DismissNotice()
}

// Rows lists the venue rows currently shown.
type Rows interface {
	Rows() []listview.Row
}

// PermissionStore records the user's answer to the location prompt.
type PermissionStore interface {
	Permission() location.Permission
	SetPermission(location.Permission)
}

// IconSource returns decoded icons.
type IconSource interface {
	Get(ctx context.Context, url string) (image.Image, error)
}

type Server struct {
	refresher   Refresher
	rows        Rows
	permissions PermissionStore
	icons       IconSource
	placeholder image.Image
	iconTimeout time.Duration
}

func New(refresher Refresher, rows Rows, permissions PermissionStore, icons IconSource, placeholder image.Image) *Server {
	return &Server{
		refresher:   refresher,
		rows:        rows,
		permissions: permissions,
		icons:       icons,
		placeholder: placeholder,
		iconTimeout: 10 * time.Second,
	}
}

// Router builds the gin engine with all routes.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong", "status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/about", s.about)

	r.GET("/venues", s.listVenues)
	r.POST("/refresh", s.triggerRefresh)
	r.GET("/status", s.status)
	r.POST("/status/dismiss", s.dismiss)
	r.GET("/location/permission", s.getPermission)
	r.POST("/location/permission", s.setPermission)
	r.GET("/icon", s.icon)
	return r
}

func (s *Server) about(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"title":   aboutTitle,
		"text":    aboutText,
		"credits": aboutCredits,
	})
}

func (s *Server) listVenues(c *gin.Context) {
	rows := s.rows.Rows()
	c.JSON(http.StatusOK, gin.H{
		"venues":     rows,
		"count":      len(rows),
		"refreshing": s.refresher.Status().Refreshing,
	})
}

func (s *Server) triggerRefresh(c *gin.Context) {
	s.refresher.TriggerRefresh("refresh button")
	c.JSON(http.StatusAccepted, s.refresher.Status())
}

func (s *Server) status(c *gin.Context) {
	c.JSON(http.StatusOK, s.refresher.Status())
}

func (s *Server) dismiss(c *gin.Context) {
	s.refresher.DismissNotice()
	c.Status(http.StatusNoContent)
}

type permissionRequest struct {
	Permission string `json:"permission" binding:"required"`
}

func (s *Server) getPermission(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"permission": s.permissions.Permission().String()})
}

func (s *Server) setPermission(c *gin.Context) {
	var req permissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "permission is required"})
		return
	}
	perm, err := location.ParsePermission(req.Permission)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s.permissions.SetPermission(perm)
	c.JSON(http.StatusOK, gin.H{"permission": perm.String()})
}

// icon serves a venue icon recolored with the tint query parameter
// (RRGGBB, default black). Only icons of the rows currently shown are
// served; fetch failures serve the placeholder.
func (s *Server) icon(c *gin.Context) {
	url := c.Query("url")
	if url == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "url is required"})
		return
	}
	if !s.listed(url) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "url is not the icon of a listed venue"})
		return
	}
	tint, err := parseTint(c.DefaultQuery("tint", "000000"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), s.iconTimeout)
	defer cancel()

	img, err := s.icons.Get(ctx, url)
	if err != nil {
		log.Printf("Serving placeholder for icon %s: %v", url, err)
		img = s.placeholder
	}

	c.Header("Content-Type", "image/png")
	c.Status(http.StatusOK)
	if err := png.Encode(c.Writer, imagecache.Tint(imagecache.Template(img), tint)); err != nil {
		log.Printf("Error encoding icon %s: %v", url, err)
	}
}

func (s *Server) listed(url string) bool {
	for _, row := range s.rows.Rows() {
		if row.IconURL == url {
			return true
		}
	}
	return false
}

var errBadTint = errors.New("tint must be a RRGGBB hex color")

func parseTint(s string) (color.NRGBA, error) {
	s = strings.TrimPrefix(s, "#")
	if len(s) != 6 {
		return color.NRGBA{}, errBadTint
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.NRGBA{}, errBadTint
	}
	return color.NRGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}
