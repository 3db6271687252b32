package controllers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
	"gorm.io/gorm"

	"github.com/ahmaat19/Personal-Finance-Blog/config"
	"github.com/ahmaat19/Personal-Finance-Blog/models"
	"github.com/ahmaat19/Personal-Finance-Blog/utils"
)

// AuthController handles credential login and the GitHub OAuth flow.
type AuthController struct {
	db *gorm.DB
}

// NewAuthController creates an AuthController.
func NewAuthController(db *gorm.DB) *AuthController {
	return &AuthController{db: db}
}

// Login exchanges an email and password for a token.
func (a *AuthController) Login(ctx *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.ValidationError(ctx, "invalid request payload")
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	var msgs []string
	if email == "" {
		msgs = append(msgs, "Please include a valid email")
	}
	if req.Password == "" {
		msgs = append(msgs, "Password is required")
	}
	if len(msgs) > 0 {
		utils.ValidationError(ctx, msgs...)
		return
	}

	var user models.User
	err := a.db.Where("email = ?", email).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.ValidationError(ctx, "Invalid Credentials")
			return
		}
		utils.ServerError(ctx, err)
		return
	}

	if !utils.CheckPassword(user.PasswordHash, req.Password) {
		utils.ValidationError(ctx, "Invalid Credentials")
		return
	}

	token, err := utils.GenerateToken(user.ID, user.Name, utils.TokenTTL())
	if err != nil {
		utils.ServerError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"token": token})
}

// OAuthRedirect sends the browser to GitHub with a single-use state nonce.
func (a *AuthController) OAuthRedirect(ctx *gin.Context) {
	conf := githubOAuthConfig()
	if conf.ClientID == "" {
		utils.ValidationError(ctx, "oauth provider not configured")
		return
	}

	state := uuid.NewString()
	utils.StoreOAuthState(state)
	ctx.Redirect(http.StatusFound, conf.AuthCodeURL(state))
}

// OAuthCallback exchanges the GitHub code, finds or creates the matching
// user, and responds with a token like the local login does.
func (a *AuthController) OAuthCallback(ctx *gin.Context) {
	conf := githubOAuthConfig()
	if conf.ClientID == "" {
		utils.ValidationError(ctx, "oauth provider not configured")
		return
	}

	state := ctx.Query("state")
	code := ctx.Query("code")
	if state == "" || code == "" || !utils.ConsumeOAuthState(state) {
		utils.ValidationError(ctx, "invalid oauth state")
		return
	}

	tok, err := conf.Exchange(ctx.Request.Context(), code)
	if err != nil {
		utils.ValidationError(ctx, "oauth code exchange failed")
		return
	}

	client := conf.Client(ctx.Request.Context(), tok)
	resp, err := client.Get("https://api.github.com/user")
	if err != nil {
		utils.ServerError(ctx, err)
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		utils.ServerError(ctx, fmt.Errorf("github user endpoint returned %d", resp.StatusCode))
		return
	}

	var ghUser struct {
		ID    int64  `json:"id"`
		Login string `json:"login"`
		Name  string `json:"name"`
		Email string `json:"email"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&ghUser); err != nil {
		utils.ServerError(ctx, err)
		return
	}

	user, err := a.findOrCreateOAuthUser("github", strconv.FormatInt(ghUser.ID, 10), ghUser.Name, ghUser.Login, ghUser.Email)
	if err != nil {
		utils.ServerError(ctx, err)
		return
	}

	token, err := utils.GenerateToken(user.ID, user.Name, utils.TokenTTL())
	if err != nil {
		utils.ServerError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"token": token})
}

// findOrCreateOAuthUser links the provider identity to an existing account by
// email when possible, creating a password-less account otherwise.
func (a *AuthController) findOrCreateOAuthUser(provider, providerID, name, login, email string) (*models.User, error) {
	var user models.User
	err := a.db.Where("provider = ? AND provider_id = ?", provider, providerID).First(&user).Error
	if err == nil {
		return &user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if name == "" {
		name = login
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		email = login + "@users.noreply.github.com"
	}

	err = a.db.Where("email = ?", email).First(&user).Error
	if err == nil {
		user.Provider = provider
		user.ProviderID = providerID
		if saveErr := a.db.Save(&user).Error; saveErr != nil {
			return nil, saveErr
		}
		return &user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	user = models.User{
		Name:       name,
		Email:      email,
		Provider:   provider,
		ProviderID: providerID,
	}
	if err := a.db.Create(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func githubOAuthConfig() *oauth2.Config {
	cfg := config.Get()
	return &oauth2.Config{
		ClientID:     cfg.GitHubClientID,
		ClientSecret: cfg.GitHubClientSecret,
		Endpoint:     github.Endpoint,
		RedirectURL:  cfg.OAuthRedirectBase + "/api/auth/oauth/github/callback",
		Scopes:       []string{"read:user", "user:email"},
	}
}
