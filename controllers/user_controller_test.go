package controllers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/ahmaat19/Personal-Finance-Blog/models"
	"github.com/ahmaat19/Personal-Finance-Blog/utils"
)

func TestRegisterIssuesValidToken(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.seedUser(t, "admin", "admin@example.com")

	w := env.doJSON(t, http.MethodPost, "/api/users", token, map[string]string{
		"name":     "carol",
		"email":    "Carol@Example.com",
		"password": "secret123",
		"role":     "writer",
	})
	requireStatus(t, w, http.StatusOK)

	var resp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil || resp.Token == "" {
		t.Fatalf("no token in response %q (err=%v)", w.Body.String(), err)
	}

	claims, err := utils.ParseToken(resp.Token)
	if err != nil {
		t.Fatalf("issued token does not parse: %v", err)
	}

	var user models.User
	if err := env.db.Where("email = ?", "carol@example.com").First(&user).Error; err != nil {
		t.Fatalf("email not lowercased on write: %v", err)
	}
	if claims.Subject != strconv.FormatUint(uint64(user.ID), 10) {
		t.Errorf("token subject = %q, want user id %d", claims.Subject, user.ID)
	}
}

func TestRegisterDuplicateEmailCaseInsensitive(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.seedUser(t, "alice", "alice@example.com")

	w := env.doJSON(t, http.MethodPost, "/api/users", token, map[string]string{
		"name":     "impostor",
		"email":    "ALICE@Example.COM",
		"password": "secret123",
	})
	requireStatus(t, w, http.StatusBadRequest)
	if msgs := strings.Join(decodeErrors(t, w), "|"); !strings.Contains(msgs, "User already exists") {
		t.Errorf("errors = %q", msgs)
	}

	var count int64
	env.db.Model(&models.User{}).Count(&count)
	if count != 1 {
		t.Fatalf("user count = %d, want 1", count)
	}
}

func TestRegisterValidation(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.seedUser(t, "alice", "alice@example.com")

	w := env.doJSON(t, http.MethodPost, "/api/users", token, map[string]string{
		"name":     "",
		"email":    "not-an-email",
		"password": "short",
	})
	requireStatus(t, w, http.StatusBadRequest)
	msgs := strings.Join(decodeErrors(t, w), "|")
	for _, want := range []string{"Name is required", "Please include a valid email", "6 or more characters"} {
		if !strings.Contains(msgs, want) {
			t.Errorf("errors %q missing %q", msgs, want)
		}
	}
}

func TestChangePassword(t *testing.T) {
	env := newTestEnv(t)
	user, token := env.seedUser(t, "alice", "alice@example.com")

	// Mismatched confirmation rejects.
	w := env.doJSON(t, http.MethodPut, "/api/users/change-password", token, map[string]string{
		"password":  "newsecret",
		"password2": "different",
	})
	requireStatus(t, w, http.StatusBadRequest)

	w = env.doJSON(t, http.MethodPut, "/api/users/change-password", token, map[string]string{
		"password":  "newsecret",
		"password2": "newsecret",
	})
	requireStatus(t, w, http.StatusOK)
	if strings.Contains(w.Body.String(), "newsecret") {
		t.Fatal("response leaks the plaintext password")
	}

	var reloaded models.User
	if err := env.db.First(&reloaded, user.ID).Error; err != nil {
		t.Fatalf("reload user: %v", err)
	}
	if !utils.CheckPassword(reloaded.PasswordHash, "newsecret") {
		t.Error("new password does not verify")
	}
	if utils.CheckPassword(reloaded.PasswordHash, "secret123") {
		t.Error("old password still verifies")
	}
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "alice", "alice@example.com")

	w := env.doJSON(t, http.MethodPost, "/api/auth", "", map[string]string{
		"email":    "Alice@Example.com",
		"password": "secret123",
	})
	requireStatus(t, w, http.StatusOK)
	if !strings.Contains(w.Body.String(), "token") {
		t.Fatalf("login response = %q", w.Body.String())
	}

	w = env.doJSON(t, http.MethodPost, "/api/auth", "", map[string]string{
		"email":    "alice@example.com",
		"password": "wrong",
	})
	requireStatus(t, w, http.StatusBadRequest)
	if msgs := strings.Join(decodeErrors(t, w), "|"); !strings.Contains(msgs, "Invalid Credentials") {
		t.Errorf("errors = %q", msgs)
	}
}

func TestAuthGateRejectsExpiredToken(t *testing.T) {
	env := newTestEnv(t)
	user, _ := env.seedUser(t, "alice", "alice@example.com")

	expired, err := utils.GenerateToken(user.ID, user.Name, -time.Second)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	w := env.doJSON(t, http.MethodGet, "/api/post", expired, nil)
	requireStatus(t, w, http.StatusUnauthorized)

	w = env.doJSON(t, http.MethodGet, "/api/post", "garbage.token.here", nil)
	requireStatus(t, w, http.StatusUnauthorized)
}
