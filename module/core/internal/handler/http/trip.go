package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ridepool/livetrack/module/core/domain"
	"github.com/ridepool/livetrack/module/core/internal/handler/subscriber"
	"github.com/ridepool/livetrack/module/core/service"
)

type geofenceService interface {
	StartSession(tripID string, pickup, drop domain.Coordinates, phase domain.TripPhase) (*domain.TrackingSessionState, error)
	EndSession(tripID string)
	SetPhase(tripID string, phase domain.TripPhase) (*domain.TrackingSessionState, error)
	Snapshot(tripID string) (*domain.TrackingSessionState, bool)
}

type locationService interface {
	GetLatest(ctx context.Context, tripID string) (*domain.TripLocation, error)
}

type surgeService interface {
	Classify(ctx context.Context, point domain.Coordinates) (*domain.SurgeZone, error)
}

type feedSubscriber interface {
	Subscribe(ctx context.Context, tripID string) (*subscriber.TripFeed, error)
}

type TripHandler struct {
	geofenceSvc geofenceService
	locationSvc locationService
	surgeSvc    surgeService
	feeds       feedSubscriber
}

func NewTripHandler(geofenceSvc geofenceService, locationSvc locationService, surgeSvc surgeService, feeds feedSubscriber) *TripHandler {
	return &TripHandler{
		geofenceSvc: geofenceSvc,
		locationSvc: locationSvc,
		surgeSvc:    surgeSvc,
		feeds:       feeds,
	}
}

func (h *TripHandler) Register(r *gin.RouterGroup) {
	r.POST("/trips/:trip_id/tracking", h.StartTracking)
	r.GET("/trips/:trip_id/tracking", h.GetTracking)
	r.PATCH("/trips/:trip_id/tracking/phase", h.SetPhase)
	r.DELETE("/trips/:trip_id/tracking", h.StopTracking)
	r.GET("/trips/:trip_id/location", h.GetLatestLocation)
	r.GET("/trips/:trip_id/location/ws", h.StreamLocation)
	r.GET("/surge", h.GetSurge)
}

type coordinatesRequest struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

func (c coordinatesRequest) toDomain() domain.Coordinates {
	return domain.Coordinates{Lat: c.Latitude, Lng: c.Longitude}
}

type startTrackingRequest struct {
	Pickup coordinatesRequest `json:"pickup"`
	Drop   coordinatesRequest `json:"drop"`
	Phase  string             `json:"phase"`
}

func (h *TripHandler) StartTracking(c *gin.Context) {
	tripID := c.Param("trip_id")

	var req startTrackingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	pickup, drop := req.Pickup.toDomain(), req.Drop.toDomain()
	if !pickup.Valid() || !drop.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "coordinates out of range"})
		return
	}

	phase := domain.PhasePending
	if req.Phase != "" {
		p, err := domain.ParseTripPhase(req.Phase)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		phase = p
	}

	st, err := h.geofenceSvc.StartSession(tripID, pickup, drop, phase)
	if err != nil {
		if errors.Is(err, service.ErrSessionExists) {
			c.JSON(http.StatusConflict, gin.H{"error": "trip is already being tracked"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to start tracking"})
		return
	}

	c.JSON(http.StatusCreated, st)
}

func (h *TripHandler) GetTracking(c *gin.Context) {
	st, ok := h.geofenceSvc.Snapshot(c.Param("trip_id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "trip is not being tracked"})
		return
	}
	c.JSON(http.StatusOK, st)
}

type setPhaseRequest struct {
	Phase string `json:"phase"`
}

func (h *TripHandler) SetPhase(c *gin.Context) {
	var req setPhaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	phase, err := domain.ParseTripPhase(req.Phase)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	st, err := h.geofenceSvc.SetPhase(c.Param("trip_id"), phase)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "trip is not being tracked"})
		return
	}

	c.JSON(http.StatusOK, st)
}

func (h *TripHandler) StopTracking(c *gin.Context) {
	h.geofenceSvc.EndSession(c.Param("trip_id"))
	c.Status(http.StatusNoContent)
}

type locationResponse struct {
	TripID    string   `json:"trip_id"`
	DriverID  string   `json:"driver_id"`
	Latitude  float64  `json:"latitude"`
	Longitude float64  `json:"longitude"`
	Heading   *float64 `json:"heading,omitempty"`
	Speed     *float64 `json:"speed,omitempty"`
	Timestamp int64    `json:"timestamp"`
}

func toLocationResponse(loc *domain.TripLocation) locationResponse {
	return locationResponse{
		TripID:    loc.TripID,
		DriverID:  loc.DriverID,
		Latitude:  loc.Sample.Lat,
		Longitude: loc.Sample.Lng,
		Heading:   loc.Sample.Heading,
		Speed:     loc.Sample.Speed,
		Timestamp: loc.Sample.Timestamp.Unix(),
	}
}

func (h *TripHandler) GetLatestLocation(c *gin.Context) {
	loc, err := h.locationSvc.GetLatest(c.Request.Context(), c.Param("trip_id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch location"})
		return
	}
	if loc == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no location published yet"})
		return
	}

	c.JSON(http.StatusOK, toLocationResponse(loc))
}

type surgeResponse struct {
	Multiplier  float64 `json:"multiplier"`
	DemandLevel string  `json:"demand_level,omitempty"`
	ZoneID      string  `json:"zone_id,omitempty"`
}

func (h *TripHandler) GetSurge(c *gin.Context) {
	lat, err := strconv.ParseFloat(c.Query("lat"), 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid lat parameter"})
		return
	}
	lng, err := strconv.ParseFloat(c.Query("lng"), 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid lng parameter"})
		return
	}

	point := domain.Coordinates{Lat: lat, Lng: lng}
	if !point.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "coordinates out of range"})
		return
	}

	zone, err := h.surgeSvc.Classify(c.Request.Context(), point)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to classify point"})
		return
	}

	resp := surgeResponse{Multiplier: 1.0}
	if zone != nil {
		resp.Multiplier = zone.Multiplier
		resp.DemandLevel = string(zone.DemandLevel)
		resp.ZoneID = zone.ID
	}
	c.JSON(http.StatusOK, resp)
}
