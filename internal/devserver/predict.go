package devserver

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kochabx/carelink/service/waterquality"
)

func predictorHealth(c *gin.Context) {
	c.JSON(http.StatusOK, waterquality.Health{
		Status:      "healthy",
		ModelLoaded: true,
		Timestamp:   time.Now().Format(time.RFC3339),
	})
}

func modelInfo(c *gin.Context) {
	names := make([]string, 0, len(waterquality.Parameters))
	for _, p := range waterquality.Parameters {
		names = append(names, p.Name)
	}
	c.JSON(http.StatusOK, waterquality.ModelInfo{
		ModelName:    "threshold-rules",
		ModelType:    "rule-based",
		FeatureNames: names,
		Status:       "loaded",
	})
}

// predict mirrors the prediction service: every parameter is required and
// numeric, out of range values only produce warnings.
func predict(c *gin.Context) {
	var raw map[string]json.RawMessage
	if err := c.ShouldBindJSON(&raw); err != nil || len(raw) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "No input data",
			"message": "Please provide JSON data with water quality parameters",
		})
		return
	}

	var (
		sample  waterquality.Sample
		missing []string
	)
	for _, p := range waterquality.Parameters {
		v, ok := raw[p.Name]
		if !ok {
			missing = append(missing, p.Name)
			continue
		}
		var f float64
		if err := json.Unmarshal(v, &f); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "Invalid parameter values",
				"message": "All parameters must be numeric values",
			})
			return
		}
		_ = sample.Set(p.Name, f)
	}
	if len(missing) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Missing parameters",
			"message": "Missing required parameters",
			"missing": missing,
		})
		return
	}

	c.JSON(http.StatusOK, waterquality.Offline(sample))
}
