package api

import (
	"errors"
	"io"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/lalith-99/pilgrimlink/internal/apperr"
	"go.uber.org/zap"
)

// writeError sends err as {"error": msg} with the status for its kind.
// Internal errors are logged with their cause; clients only ever see the
// generic message.
func writeError(c *gin.Context, logger *zap.Logger, err error) {
	kind := apperr.KindOf(err)
	if kind == apperr.KindInternal || kind == apperr.KindExhausted {
		logger.Error("request failed",
			zap.String("path", c.FullPath()),
			zap.String("kind", kind.String()),
			zap.Error(err),
		)
		_ = c.Error(err)
	}
	c.JSON(apperr.HTTPStatus(kind), gin.H{"error": apperr.PublicMessage(err)})
}

// bindJSON decodes the body into req. An empty body leaves req at its zero
// value so the service reports the missing field with its own message.
func bindJSON(c *gin.Context, req any) error {
	err := c.ShouldBindJSON(req)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	return bindFailure(err)
}

// bindFailure turns a binding error into a Validation error with a
// readable message.
func bindFailure(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return apperr.Validation(describe(verrs))
	}
	return apperr.Validation("Invalid request body")
}

func describe(verrs validator.ValidationErrors) string {
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required", "notblank":
			msgs = append(msgs, fe.Field()+" is required")
		case "email":
			msgs = append(msgs, fe.Field()+" must be a valid email")
		case "min":
			msgs = append(msgs, fe.Field()+" must be at least "+fe.Param()+" characters")
		case "oneof":
			msgs = append(msgs, fe.Field()+" must be one of "+fe.Param())
		default:
			msgs = append(msgs, fe.Field()+" is invalid")
		}
	}
	return strings.Join(msgs, "; ")
}

var registerOnce sync.Once

// registerValidators adds the notblank tag to gin's validator and makes
// error field names follow the json tags.
func registerValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return f.Name
			}
			return name
		})
		_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
			return strings.TrimSpace(fl.Field().String()) != ""
		})
	})
}
