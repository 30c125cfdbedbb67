package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/lalith-99/teamsync/internal/apperr"
	"go.uber.org/zap"
)

type errorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// writeError maps err to a status and JSON body. Internal errors are logged
// and their text is not sent to the client.
func writeError(c *gin.Context, logger *zap.Logger, err error) {
	var e *apperr.Error
	if !errors.As(err, &e) {
		logger.Error("request failed",
			zap.String("route", c.FullPath()),
			zap.Error(err),
		)
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal error"})
		return
	}
	if e.Kind == apperr.KindInternal {
		logger.Error("request failed", zap.String("route", c.FullPath()), zap.Error(err))
	}
	c.JSON(apperr.HTTPStatus(err), errorResponse{Error: e.Message, Fields: e.Fields})
}

var registerTagNames sync.Once

// useJSONFieldNames makes validator report "team_id" rather than "TeamID".
func useJSONFieldNames() {
	registerTagNames.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
}

// bindError turns a ShouldBind failure into a validation error with
// per-field messages where the cause allows it.
func bindError(err error) error {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		fields := make(map[string]string, len(ve))
		for _, fe := range ve {
			fields[fe.Field()] = describe(fe)
		}
		return apperr.InvalidFields("invalid request", fields)
	}
	var te *json.UnmarshalTypeError
	if errors.As(err, &te) {
		return apperr.InvalidFields("invalid request", map[string]string{te.Field: "must be " + te.Type.String()})
	}
	return apperr.Invalid("invalid request body: %v", err)
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "required"
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "email":
		return "must be a valid email address"
	case "uuid":
		return "must be a UUID"
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}

func parseID(c *gin.Context, what string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, apperr.InvalidFields("invalid "+what+" id", map[string]string{"id": "must be a UUID"})
	}
	return id, nil
}
