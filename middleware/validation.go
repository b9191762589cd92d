package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/joshu-sajeev/goscheduler/common"
)

var validate = validator.New()

func Bind[T any](c *gin.Context, dest *T) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		c.Error(common.Errf(http.StatusBadRequest, "invalid json: %v", err.Error()))
		return false
	}
	return Validate(c, dest)
}

// BindForm binds query or form fields, including multipart forms.
func BindForm[T any](c *gin.Context, dest *T) bool {
	if err := c.ShouldBind(dest); err != nil {
		c.Error(common.Errf(http.StatusBadRequest, "invalid form: %v", err.Error()))
		return false
	}
	return Validate(c, dest)
}

func BindQuery[T any](c *gin.Context, dest *T) bool {
	if err := c.ShouldBindQuery(dest); err != nil {
		c.Error(common.Errf(http.StatusBadRequest, "invalid query: %v", err.Error()))
		return false
	}
	return Validate(c, dest)
}

func Validate(c *gin.Context, v any) bool {
	if err := validate.Struct(v); err != nil {
		c.Error(common.ValidationFailed(FormatValidationErrors(err)))
		return false
	}
	return true
}

func FormatValidationErrors(err error) map[string]any {
	fields := map[string]any{}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		fields["_"] = err.Error()
		return fields
	}
	for _, e := range verrs {
		fields[e.Field()] = "failed " + e.Tag()
	}
	return fields
}
