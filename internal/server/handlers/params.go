package handlers

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mamadbah2/caskwarehouse/internal/domain/models"
	"github.com/mamadbah2/caskwarehouse/internal/domain/units"
)

var (
	errInvalidAsOf   = errors.New("invalid asOf timestamp")
	errInvalidCaskID = errors.New("invalid cask id")
)

// parseAsOf reads the asOf query parameter, defaulting to now.
func parseAsOf(c *gin.Context, now func() time.Time) (time.Time, error) {
	raw := c.Query("asOf")
	if raw == "" {
		return now().UTC().Truncate(time.Millisecond), nil
	}
	asOf, err := units.ParseISO(raw)
	if err != nil {
		return time.Time{}, errInvalidAsOf
	}
	return asOf, nil
}

// parseCaskID reads the :id path parameter as a positive integer.
func parseCaskID(c *gin.Context) (int, error) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return 0, errInvalidCaskID
	}
	return id, nil
}

// parseIDList reads a comma separated id list. Entries that are not positive
// integers are ignored; nil means no usable ids were given.
func parseIDList(raw string) []int {
	if raw == "" {
		return nil
	}
	var ids []int
	for _, part := range strings.Split(raw, ",") {
		id, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || id <= 0 {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

// parseLimit reads a numeric limit, flooring fractions and clamping into [lo, hi].
// Unparseable values fall back to the default.
func parseLimit(raw string, fallback, lo, hi int) int {
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(parsed) || math.IsInf(parsed, 0) {
		return fallback
	}
	floored := math.Floor(parsed)
	switch {
	case floored < float64(lo):
		return lo
	case floored > float64(hi):
		return hi
	}
	return int(floored)
}

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, models.ErrorResponse{Error: message})
}
