package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nathanieluriri/marcus-cleaning-backend/internal/http/middleware"
	"github.com/nathanieluriri/marcus-cleaning-backend/internal/place"
)

// PlaceHandler exposes place autocomplete for the booking form.
type PlaceHandler struct {
	places *place.Service
}

func NewPlaceHandler(places *place.Service) *PlaceHandler {
	return &PlaceHandler{places: places}
}

// Autocomplete GET /places/autocomplete?query=
func (h *PlaceHandler) Autocomplete(c *gin.Context) {
	suggestions, err := h.places.Autocomplete(c.Request.Context(), c.Query("query"))
	if err != nil {
		middleware.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"suggestions": suggestions})
}
