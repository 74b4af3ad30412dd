package httputil

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"
)

// List endpoint pagination bounds.
const (
	DefaultListLimit = 50
	MaxListLimit     = 100
)

// ParsePagination reads the offset and limit query parameters for list
// endpoints. Offset defaults to 0 and must be non-negative; limit defaults to
// DefaultListLimit and is rejected above MaxListLimit.
func ParsePagination(c *gin.Context) (offset, limit int, err error) {
	offset, err = strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		return 0, 0, fmt.Errorf("invalid offset parameter: must be a non-negative integer")
	}

	limit, err = strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(DefaultListLimit)))
	if err != nil || limit < 1 || limit > MaxListLimit {
		return 0, 0, fmt.Errorf("invalid limit parameter: must be between 1 and %d", MaxListLimit)
	}

	return offset, limit, nil
}
