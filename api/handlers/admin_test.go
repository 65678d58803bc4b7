package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"golang.org/x/crypto/bcrypt"

	"github.com/mindsell/tutor-portal-api/api/handlers"
	"github.com/mindsell/tutor-portal-api/config"
)

func adminTestConfig(t *testing.T) config.Config {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	return config.Config{
		AdminEmail:        "coach@mindsell.it",
		AdminPasswordHash: string(hash),
		JWTSecret:         "test-secret",
	}
}

func TestAdmin_LoginHandlerSuccess(t *testing.T) {
	a := handlers.Admin{Config: adminTestConfig(t)}

	body := `{"email":"coach@mindsell.it","password":"hunter2"}`
	req, err := http.NewRequest("POST", "/api/v1/admin/login", strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}

	rr := httptest.NewRecorder()
	http.HandlerFunc(a.LoginHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var resp map[string]string
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp["token"])

	token, err := jwt.Parse(resp["token"], func(t *jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	})
	assert.NoError(t, err)
	claims := token.Claims.(jwt.MapClaims)
	assert.Equal(t, "admin", claims["scope"])
	assert.Equal(t, "coach@mindsell.it", claims["email"])
}

func TestAdmin_LoginHandlerWrongPassword(t *testing.T) {
	a := handlers.Admin{Config: adminTestConfig(t)}

	body := `{"email":"coach@mindsell.it","password":"wrong"}`
	req, err := http.NewRequest("POST", "/api/v1/admin/login", strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}

	rr := httptest.NewRecorder()
	http.HandlerFunc(a.LoginHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Contains(t, rr.Body.String(), "invalid credentials")
}

func TestAdmin_LoginHandlerUnknownEmail(t *testing.T) {
	a := handlers.Admin{Config: adminTestConfig(t)}

	body := `{"email":"someone@else.it","password":"hunter2"}`
	req, err := http.NewRequest("POST", "/api/v1/admin/login", strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}

	rr := httptest.NewRecorder()
	http.HandlerFunc(a.LoginHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestAdmin_LoginHandlerBadBody(t *testing.T) {
	a := handlers.Admin{Config: adminTestConfig(t)}

	req, err := http.NewRequest("POST", "/api/v1/admin/login", strings.NewReader(`not-json`))
	if err != nil {
		t.Fatal(err)
	}

	rr := httptest.NewRecorder()
	http.HandlerFunc(a.LoginHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
