package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/yeremiapane/restaurant-pos/services"
)

func TestRespondServiceError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		err  error
		code int
		msg  string
	}{
		{services.ErrTableNotFound, http.StatusNotFound, "table not found"},
		{fmt.Errorf("load: %w", services.ErrProductNotFound), http.StatusNotFound, "load: product not found"},
		{&services.ValidationError{Field: "rating", Message: "must be between 1 and 5"}, http.StatusBadRequest, "rating: must be between 1 and 5"},
		{services.ErrOutOfStock, http.StatusConflict, "product is out of stock"},
		{services.ErrSelfDelete, http.StatusConflict, "you cannot delete your own account"},
		{services.ErrInvalidCredentials, http.StatusUnauthorized, "invalid username or password"},
		{services.ErrAccountInactive, http.StatusForbidden, "account is not active"},
		{errors.New("database is locked"), http.StatusInternalServerError, errGeneric.Error()},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

		respondServiceError(c, tc.err)
		assert.Equal(t, tc.code, w.Code, tc.err.Error())
		assert.Contains(t, w.Body.String(), tc.msg)
		assert.Contains(t, w.Body.String(), `"status":false`)
	}
}

func TestParamID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	for raw, want := range map[string]uint{"7": 7, "0": 0, "-1": 0, "x": 0} {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Params = gin.Params{{Key: "id", Value: raw}}

		id, ok := paramID(c, "id")
		assert.Equal(t, want, id, raw)
		assert.Equal(t, want != 0, ok, raw)
		if !ok {
			assert.Equal(t, http.StatusBadRequest, w.Code, raw)
		}
	}
}

func TestActorOfWithoutSession(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	_, ok := actorOf(c)
	assert.False(t, ok)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
