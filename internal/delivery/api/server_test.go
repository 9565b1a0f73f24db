package api

import (
	"net/http"
	"testing"

	"enrollment/config"

	"github.com/stretchr/testify/assert"
)

func TestCorsConfig(t *testing.T) {
	cfg := &config.Config{}
	assert.Equal(t, []string{"*"}, corsConfig(cfg).AllowOrigins)

	cfg.HTTP.CORSAllowOrigins = []string{"https://wizard.example.com"}
	got := corsConfig(cfg)

	assert.Equal(t, []string{"https://wizard.example.com"}, got.AllowOrigins)
	assert.Contains(t, got.AllowMethods, http.MethodPatch)
	assert.Contains(t, got.ExposeHeaders, "X-Request-Id")
}
