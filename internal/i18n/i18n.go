// Package i18n holds the English and Spanish message catalog used for API
// error messages and validation output.
package i18n

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	"github.com/go-playground/locales/es"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	es_translations "github.com/go-playground/validator/v10/translations/es"
	"golang.org/x/text/language"
)

// DefaultLocale is used when a request names no supported language.
const DefaultLocale = "en"

var messages = map[string]map[string]string{
	"en": {
		"not_found":                 "Resource not found",
		"property.not_found":        "Property not found",
		"change_request.not_found":  "Change request not found",
		"change_request.no_changes": "No changes detected",
		"change_request.reviewed":   "Change request has already been reviewed",
		"edit.stale":                "The property changed after editing started; reload and try again",
		"edit.session_not_found":    "No edit in progress for this property",
		"edit.session_exists":       "An edit is already in progress for this property",
		"edit.concurrent":           "The edit was changed by another request; reload and try again",
		"lead.not_found":            "Lead not found",
		"lead.duplicate":            "A lead with this phone or email already exists",
		"lead.invalid_status":       "Unknown lead status",
		"token.not_found":           "Link not found",
		"token.expired":             "This link has expired",
		"token.used":                "This link has already been used",
		"token.wrong_kind":          "This link cannot be used for this form",
		"offer.not_found":           "Offer not found",
		"photo.invalid_type":        "Only image uploads are allowed",
		"photo.too_large":           "The uploaded file is too large",
		"photo.invalid_op":          "Invalid photo operation",
		"access.invalid":            "Incomplete or invalid access information",
		"request.invalid_id":        "Invalid ID format",
		"request.invalid_body":      "Invalid request body",
		"request.invalid_query":     "Invalid query parameters",
		"validation.failed":         "Validation failed for one or more fields",
		"auth.unauthorized":         "Authentication required",
		"auth.forbidden":            "You do not have permission to perform this action",
		"rate_limited":              "Too many requests, please try again later",
		"internal":                  "An unexpected error occurred",
	},
	"es": {
		"not_found":                 "Recurso no encontrado",
		"property.not_found":        "Propiedad no encontrada",
		"change_request.not_found":  "Solicitud de cambio no encontrada",
		"change_request.no_changes": "No se detectaron cambios",
		"change_request.reviewed":   "La solicitud de cambio ya fue revisada",
		"edit.stale":                "La propiedad cambió después de iniciar la edición; recarga e intenta de nuevo",
		"edit.session_not_found":    "No hay una edición en curso para esta propiedad",
		"edit.session_exists":       "Ya hay una edición en curso para esta propiedad",
		"edit.concurrent":           "Otra solicitud modificó la edición; recarga e intenta de nuevo",
		"lead.not_found":            "Prospecto no encontrado",
		"lead.duplicate":            "Ya existe un prospecto con este teléfono o correo",
		"lead.invalid_status":       "Estado de prospecto desconocido",
		"token.not_found":           "Enlace no encontrado",
		"token.expired":             "Este enlace ha expirado",
		"token.used":                "Este enlace ya fue utilizado",
		"token.wrong_kind":          "Este enlace no sirve para este formulario",
		"offer.not_found":           "Oferta no encontrada",
		"photo.invalid_type":        "Solo se permiten imágenes",
		"photo.too_large":           "El archivo es demasiado grande",
		"photo.invalid_op":          "Operación de fotos no válida",
		"access.invalid":            "Información de acceso incompleta o no válida",
		"request.invalid_id":        "Formato de ID no válido",
		"request.invalid_body":      "Cuerpo de la solicitud no válido",
		"request.invalid_query":     "Parámetros de consulta no válidos",
		"validation.failed":         "La validación falló para uno o más campos",
		"auth.unauthorized":         "Se requiere autenticación",
		"auth.forbidden":            "No tienes permiso para realizar esta acción",
		"rate_limited":              "Demasiadas solicitudes, intenta más tarde",
		"internal":                  "Ocurrió un error inesperado",
	},
}

// Catalog resolves translators for request locales. It is built once at
// startup and only read afterwards.
type Catalog struct {
	uni *ut.UniversalTranslator
}

// NewCatalog loads every message into an English and a Spanish translator.
func NewCatalog() (*Catalog, error) {
	uni := ut.New(en.New(), en.New(), es.New())

	for locale, entries := range messages {
		trans, ok := uni.GetTranslator(locale)
		if !ok {
			return nil, fmt.Errorf("translator for %q not registered", locale)
		}
		for key, text := range entries {
			if err := trans.Add(key, text, false); err != nil {
				return nil, fmt.Errorf("failed to add %s message %q: %w", locale, key, err)
			}
		}
	}

	if err := uni.VerifyTranslations(); err != nil {
		return nil, fmt.Errorf("catalog is incomplete: %w", err)
	}

	return &Catalog{uni: uni}, nil
}

// Resolve picks the best translator for an Accept-Language header value,
// falling back to English.
func (c *Catalog) Resolve(acceptLanguage string) ut.Translator {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err == nil {
		prefs := make([]string, 0, len(tags))
		for _, tag := range tags {
			base, _ := tag.Base()
			prefs = append(prefs, base.String())
		}
		if trans, found := c.uni.FindTranslator(prefs...); found {
			return trans
		}
	}
	trans, _ := c.uni.GetTranslator(DefaultLocale)
	return trans
}

// RegisterValidator installs the validator's built-in messages for every
// locale and reports fields by their JSON name.
func (c *Catalog) RegisterValidator(v *validator.Validate) error {
	v.RegisterTagNameFunc(jsonFieldName)

	enTrans, _ := c.uni.GetTranslator("en")
	if err := en_translations.RegisterDefaultTranslations(v, enTrans); err != nil {
		return fmt.Errorf("failed to register english validation messages: %w", err)
	}
	esTrans, _ := c.uni.GetTranslator("es")
	if err := es_translations.RegisterDefaultTranslations(v, esTrans); err != nil {
		return fmt.Errorf("failed to register spanish validation messages: %w", err)
	}
	return nil
}

// Message translates key, returning the English text or the key itself when
// the translator has no entry.
func Message(trans ut.Translator, key string, params ...string) string {
	if trans != nil {
		if text, err := trans.T(key, params...); err == nil {
			return text
		}
	}
	return Fallback(key)
}

// Fallback returns the English text for key, or key unchanged when it is not
// a catalog entry. Plain sentences therefore pass through untouched.
func Fallback(key string) string {
	if text, ok := messages[DefaultLocale][key]; ok {
		return text
	}
	return key
}

func jsonFieldName(field reflect.StructField) string {
	name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
	switch name {
	case "-":
		return ""
	case "":
		return field.Name
	}
	return name
}
