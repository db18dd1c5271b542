package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roads-authority/backend/internal/interfaces/http/dto"
)

type statusChangeInput struct {
	TargetStatus string `json:"targetStatus" binding:"required,oneof=approved rejected"`
	ChangedBy    string `json:"changedBy" binding:"required,email"`
}

func validationRouter() *gin.Engine {
	SetupValidator()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/status", func(c *gin.Context) {
		var req statusChangeInput
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleValidationError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true})
	})
	return router
}

func TestHandleValidationError(t *testing.T) {
	router := validationRouter()

	t.Run("field failures become per-field details with json names", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/status",
			strings.NewReader(`{"targetStatus": "lost", "changedBy": "not-an-email"}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusBadRequest, w.Code)

		var resp dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.False(t, resp.Success)
		assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
		assert.Equal(t, "Request validation failed", resp.Error.Message)
		require.Len(t, resp.Error.Details, 2)
		assert.Equal(t, "targetStatus", resp.Error.Details[0].Field)
		assert.Equal(t, "changedBy", resp.Error.Details[1].Field)
	})

	t.Run("malformed JSON passes the parse error through", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/status", strings.NewReader(`{"targetStatus": `))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusBadRequest, w.Code)

		var resp dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
		assert.Empty(t, resp.Error.Details)
	})

	t.Run("valid input passes", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/status",
			strings.NewReader(`{"targetStatus": "approved", "changedBy": "clerk@roads.gov.na"}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestSetupValidatorUsesJSONTagNames(t *testing.T) {
	SetupValidator()

	v, ok := binding.Validator.Engine().(*validator.Validate)
	require.True(t, ok)

	type form struct {
		ReferenceCode string `json:"referenceCode" binding:"required"`
		Hidden        string `json:"-" binding:"required"`
	}
	err := v.Struct(form{})
	require.Error(t, err)

	var validationErrors validator.ValidationErrors
	require.ErrorAs(t, err, &validationErrors)
	assert.Equal(t, "referenceCode", validationErrors[0].Field())
}

func TestGetValidationMessage(t *testing.T) {
	type input struct {
		Surname  string `json:"surname" binding:"required"`
		Email    string `json:"email" binding:"email"`
		PIN      string `json:"pin" binding:"len=5"`
		FuelType string `json:"fuelType" binding:"oneof=petrol diesel electric other"`
		Seats    int    `json:"seats" binding:"gte=1"`
	}

	SetupValidator()
	v, ok := binding.Validator.Engine().(*validator.Validate)
	require.True(t, ok)

	err := v.Struct(input{Email: "x", PIN: "12", FuelType: "coal", Seats: 0})
	require.Error(t, err)

	var validationErrors validator.ValidationErrors
	require.ErrorAs(t, err, &validationErrors)

	messages := make(map[string]string, len(validationErrors))
	for _, e := range validationErrors {
		messages[e.Field()] = getValidationMessage(e)
	}

	assert.Equal(t, "This field is required", messages["surname"])
	assert.Equal(t, "Invalid email format", messages["email"])
	assert.Equal(t, "Must be exactly 5 characters", messages["pin"])
	assert.Equal(t, "Must be one of: petrol diesel electric other", messages["fuelType"])
	assert.Equal(t, "Must be greater than or equal to 1", messages["seats"])
}
