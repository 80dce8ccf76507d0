// Package handlers adapts the service layer to HTTP.
package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/stwalsh4118/brokerage/internal/changeset"
	apierrors "github.com/stwalsh4118/brokerage/internal/errors"
	"github.com/stwalsh4118/brokerage/internal/middleware"
	"github.com/stwalsh4118/brokerage/internal/models"
	"github.com/stwalsh4118/brokerage/internal/photos"
	"github.com/stwalsh4118/brokerage/internal/services"
	"github.com/stwalsh4118/brokerage/internal/session"
)

// bindFailed answers a request whose body or query did not bind.
// Validation failures list the offending fields; anything else is a plain
// bad request under key.
func bindFailed(c *gin.Context, err error, key string) {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		apierrors.ValidationError(c, validationErrors)
		return
	}
	apierrors.BadRequest(c, key, nil)
}

// pathID parses the named path parameter as a UUID.
func pathID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		apierrors.BadRequest(c, "request.invalid_id", map[string]interface{}{
			name: c.Param(name),
		})
		return uuid.Nil, false
	}
	return id, true
}

// currentUser returns the caller set by the auth middleware.
func currentUser(c *gin.Context) (*models.User, bool) {
	user, ok := middleware.GetUser(c)
	if !ok {
		apierrors.Unauthorized(c, "auth.unauthorized")
		return nil, false
	}
	return user, true
}

// serviceFailed maps a service error onto the API error envelope. Errors
// it does not know are logged with action and answered with a 500.
func serviceFailed(c *gin.Context, err error, action string) {
	var duplicate *services.DuplicateLeadError
	if errors.As(err, &duplicate) {
		apierrors.DuplicateLead(c, map[string]interface{}{
			"field":        duplicate.Field,
			"existingLead": duplicate.Existing,
		})
		return
	}

	switch {
	case errors.Is(err, services.ErrPropertyNotFound):
		apierrors.NotFound(c, "property.not_found")
	case errors.Is(err, services.ErrChangeRequestNotFound):
		apierrors.NotFound(c, "change_request.not_found")
	case errors.Is(err, services.ErrEditSessionNotFound):
		apierrors.NotFound(c, "edit.session_not_found")
	case errors.Is(err, services.ErrLeadNotFound):
		apierrors.NotFound(c, "lead.not_found")
	case errors.Is(err, services.ErrTokenNotFound):
		apierrors.NotFound(c, "token.not_found")
	case errors.Is(err, services.ErrOfferNotFound):
		apierrors.NotFound(c, "offer.not_found")

	case errors.Is(err, services.ErrStaleEdit):
		apierrors.Conflict(c, "edit.stale", nil)
	case errors.Is(err, session.ErrConcurrentUpdate):
		apierrors.Conflict(c, "edit.concurrent", nil)
	case errors.Is(err, services.ErrAlreadyReviewed):
		apierrors.Conflict(c, "change_request.reviewed", nil)
	case errors.Is(err, services.ErrTokenUsed):
		apierrors.Conflict(c, "token.used", nil)
	case errors.Is(err, services.ErrTokenExpired):
		apierrors.Gone(c, "token.expired")
	case errors.Is(err, changeset.ErrNoChanges):
		apierrors.NoChanges(c)

	case errors.Is(err, services.ErrWrongTokenKind):
		apierrors.BadRequest(c, "token.wrong_kind", nil)
	case errors.Is(err, models.ErrInvalidAccessInfo):
		apierrors.BadRequest(c, "access.invalid", nil)
	case errors.Is(err, services.ErrInvalidLeadStatus):
		apierrors.BadRequest(c, "lead.invalid_status", nil)
	case errors.Is(err, services.ErrUnsupportedPhotoType):
		apierrors.BadRequest(c, "photo.invalid_type", nil)
	case errors.Is(err, services.ErrPhotoTooLarge):
		apierrors.BadRequest(c, "photo.too_large", nil)
	case errors.Is(err, services.ErrNoProperties):
		apierrors.BadRequest(c, "request.invalid_body", nil)
	case errors.Is(err, photos.ErrIndexOutOfRange),
		errors.Is(err, photos.ErrEmptyURL),
		errors.Is(err, photos.ErrUnknownOp):
		apierrors.BadRequest(c, "photo.invalid_op", map[string]interface{}{
			"reason": err.Error(),
		})

	case errors.Is(err, services.ErrNotOfferAgent):
		apierrors.Forbidden(c, "auth.forbidden")

	default:
		apierrors.InternalServerError(c, action, err)
	}
}
