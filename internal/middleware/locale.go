package middleware

import (
	"github.com/gin-gonic/gin"
	ut "github.com/go-playground/universal-translator"
	"github.com/stwalsh4118/brokerage/internal/i18n"
)

// TranslatorKey is the context key for the request's translator.
const TranslatorKey = "translator"

// Locale resolves the request language against the catalog and stores the
// chosen translator in the context. A lang query parameter wins over the
// Accept-Language header.
func Locale(catalog *i18n.Catalog) gin.HandlerFunc {
	return func(c *gin.Context) {
		pref := c.GetHeader("Accept-Language")
		if lang := c.Query("lang"); lang != "" {
			pref = lang
		}
		trans := catalog.Resolve(pref)
		c.Set(TranslatorKey, trans)
		c.Header("Content-Language", trans.Locale())
		c.Next()
	}
}

// GetTranslator retrieves the translator from the Gin context.
// Returns nil if not found.
func GetTranslator(c *gin.Context) ut.Translator {
	if trans, exists := c.Get(TranslatorKey); exists {
		if t, ok := trans.(ut.Translator); ok {
			return t
		}
	}
	return nil
}

// Translate renders a catalog message in the request's language.
func Translate(c *gin.Context, key string, params ...string) string {
	return i18n.Message(GetTranslator(c), key, params...)
}

// abortWithError writes the standard error envelope. Middleware cannot use the
// errors package, which depends on this one.
func abortWithError(c *gin.Context, status int, code, key string) {
	c.AbortWithStatusJSON(status, gin.H{
		"error": gin.H{
			"code":       code,
			"message":    Translate(c, key),
			"request_id": GetRequestID(c),
		},
	})
}
