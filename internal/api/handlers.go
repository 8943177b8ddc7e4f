package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"indoor-position-engine/internal/models"
)

func (s *Server) handleListDevices(c *gin.Context) {
	devices, err := s.positioningService.TrackedDevices(c.Request.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list tracked devices")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list devices"})
		return
	}

	if devices == nil {
		devices = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"devices": devices})
}

func (s *Server) handleGetPosition(c *gin.Context) {
	deviceID := c.Param("device_id")

	position, err := s.positioningService.LastFix(c.Request.Context(), deviceID)
	if err != nil {
		s.logger.Error().Err(err).Str("device_id", deviceID).Msg("failed to read fix")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read fix"})
		return
	}
	if position == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no fix for device"})
		return
	}

	c.JSON(http.StatusOK, position)
}

func (s *Server) handleGetPresence(c *gin.Context) {
	deviceID := c.Param("device_id")
	c.JSON(http.StatusOK, gin.H{
		"device_id": deviceID,
		"buildings": s.presenceService.States(deviceID),
	})
}

func (s *Server) handleListBuildings(c *gin.Context) {
	buildings, err := s.presenceService.Buildings(c.Request.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list buildings")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list buildings"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"buildings": buildings})
}

func (s *Server) handleListAnchors(c *gin.Context) {
	anchors, err := s.anchorService.ListAnchors(c.Request.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list anchors")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list anchors"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"anchors": anchors})
}

func (s *Server) handleUpsertAnchor(c *gin.Context) {
	var dto models.AnchorDto
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid anchor payload"})
		return
	}

	if beaconID := c.Param("beacon_id"); beaconID != "" {
		dto.BeaconID = beaconID
	}

	if err := s.anchorService.ProcessAnchor(c.Request.Context(), &dto); err != nil {
		s.logger.Error().Err(err).Str("beacon_id", dto.BeaconID).Msg("failed to upsert anchor")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store anchor"})
		return
	}

	c.JSON(http.StatusOK, dto)
}

func (s *Server) handleDeleteAnchor(c *gin.Context) {
	beaconID := c.Param("beacon_id")

	if err := s.anchorService.DeleteAnchor(c.Request.Context(), beaconID); err != nil {
		s.logger.Error().Err(err).Str("beacon_id", beaconID).Msg("failed to delete anchor")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete anchor"})
		return
	}

	c.Status(http.StatusNoContent)
}
