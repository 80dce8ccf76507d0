package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stwalsh4118/brokerage/internal/i18n"
	"github.com/stwalsh4118/brokerage/internal/logger"
)

func testCatalog(t *testing.T) *i18n.Catalog {
	t.Helper()
	catalog, err := i18n.NewCatalog()
	require.NoError(t, err)
	return catalog
}

func TestLocale(t *testing.T) {
	router := gin.New()
	router.Use(Locale(testCatalog(t)))
	router.GET("/test", func(c *gin.Context) {
		c.String(http.StatusOK, Translate(c, "property.not_found"))
	})

	testCases := []struct {
		header   string
		expected string
		language string
	}{
		{header: "", expected: "Property not found", language: "en"},
		{header: "es-MX,es;q=0.9", expected: "Propiedad no encontrada", language: "es"},
		{header: "pt-BR", expected: "Property not found", language: "en"},
	}

	for _, tc := range testCases {
		t.Run(tc.language+"/"+tc.header, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			if tc.header != "" {
				req.Header.Set("Accept-Language", tc.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tc.expected, w.Body.String())
			assert.Equal(t, tc.language, w.Header().Get("Content-Language"))
		})
	}
}

func TestLocale_QueryParameterWins(t *testing.T) {
	router := gin.New()
	router.Use(Locale(testCatalog(t)))
	router.GET("/test", func(c *gin.Context) {
		c.String(http.StatusOK, Translate(c, "lead.not_found"))
	})

	req := httptest.NewRequest(http.MethodGet, "/test?lang=es", nil)
	req.Header.Set("Accept-Language", "en-US")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, "Prospecto no encontrado", w.Body.String())
}

func TestTranslate_WithoutLocale(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.Nil(t, GetTranslator(c))
	assert.Equal(t, "Property not found", Translate(c, "property.not_found"))
	assert.Equal(t, "Plain message", Translate(c, "Plain message"))
}

func TestRecovery_TranslatesMessage(t *testing.T) {
	router := gin.New()
	router.Use(RequestID())
	router.Use(Locale(testCatalog(t)))
	router.Use(Recovery(logger.New("test")))
	router.GET("/panic", func(c *gin.Context) {
		panic("boom")
	})

	req := httptest.NewRequest(http.MethodGet, "/panic", nil)
	req.Header.Set("Accept-Language", "es")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusInternalServerError, w.Code)
	var body struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "INTERNAL_SERVER_ERROR", body.Error.Code)
	assert.Equal(t, "Ocurrió un error inesperado", body.Error.Message)
}

func TestLogger_RecordsRouteAndLocale(t *testing.T) {
	var buf bytes.Buffer
	router := gin.New()
	router.Use(RequestID())
	router.Use(Logger(logger.NewWithWriter("production", &buf)))
	router.Use(Locale(testCatalog(t)))
	router.GET("/api/leads/:id", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/leads/42", nil)
	req.Header.Set("Accept-Language", "es-MX")
	router.ServeHTTP(httptest.NewRecorder(), req)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "/api/leads/:id", entry["route"])
	assert.Equal(t, "/api/leads/42", entry["path"])
	assert.Equal(t, "es", entry["locale"])
}

func TestLogger_HealthProbesAtDebug(t *testing.T) {
	var buf bytes.Buffer
	router := gin.New()
	router.Use(Logger(logger.NewWithWriter("production", &buf)))
	router.GET("/health", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Zero(t, buf.Len())
}
