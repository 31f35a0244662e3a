// Package handler holds what every HTTP handler shares: binding, path parameters, uploads and
// the caller.
package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/docbook-api/internal/middleware"
	"github.com/jwalitptl/docbook-api/internal/model"
	"github.com/jwalitptl/docbook-api/internal/storage"
	apperrors "github.com/jwalitptl/docbook-api/pkg/errors"
	"github.com/jwalitptl/docbook-api/pkg/httputil"
)

// Bind decodes the body by content type (JSON, urlencoded or multipart) and validates it.
func Bind(c *gin.Context, obj any) error {
	if err := c.ShouldBind(obj); err != nil {
		return httputil.BindError(err)
	}
	return nil
}

func BindQuery(c *gin.Context, obj any) error {
	if err := c.ShouldBindQuery(obj); err != nil {
		return httputil.BindError(err)
	}
	return nil
}

// ParamID parses a uuid path parameter. A malformed id cannot name a row, so it is a not found.
func ParamID(c *gin.Context, name, resource string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, apperrors.NotFound(resource, nil)
	}
	return id, nil
}

// Principal is the authenticated caller. Routes using it sit behind Authenticate.
func Principal(c *gin.Context) *model.Principal {
	return middleware.PrincipalFrom(c)
}

// Avatar returns the optional "avatar" file of a multipart request. The caller must invoke
// the returned close func.
func Avatar(c *gin.Context) (*storage.Upload, func(), error) {
	fh, err := c.FormFile("avatar")
	switch {
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
		return nil, func() {}, nil
	case err != nil:
		return nil, nil, apperrors.FieldError("avatar", "the avatar failed to upload")
	}

	f, err := fh.Open()
	if err != nil {
		return nil, nil, apperrors.FieldError("avatar", "the avatar failed to upload")
	}
	return &storage.Upload{Name: fh.Filename, Size: fh.Size, Reader: f}, func() { _ = f.Close() }, nil
}
