package utils

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"
)

// GetQueryParamAsFloat reads an optional float query parameter. The second
// return value reports whether the parameter was present at all.
func GetQueryParamAsFloat(c *gin.Context, paramName string) (float64, bool, error) {
	paramValue := c.Query(paramName)
	if paramValue == "" {
		return 0, false, nil
	}

	value, err := strconv.ParseFloat(paramValue, 64)
	if err != nil {
		return 0, true, fmt.Errorf("invalid %s", paramName)
	}
	return value, true, nil
}
