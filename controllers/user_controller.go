package controllers

import (
	"errors"
	"net/http"
	"net/mail"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/ahmaat19/Personal-Finance-Blog/models"
	"github.com/ahmaat19/Personal-Finance-Blog/utils"
)

// UserController handles registration and password management.
type UserController struct {
	db *gorm.DB
}

// NewUserController creates a UserController.
func NewUserController(db *gorm.DB) *UserController {
	return &UserController{db: db}
}

// Register creates a new account and issues a token for it. Emails are
// case-normalized to lowercase and unique.
func (u *UserController) Register(ctx *gin.Context) {
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
		Role     string `json:"role"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.ValidationError(ctx, "invalid request payload")
		return
	}

	name := strings.TrimSpace(req.Name)
	email := strings.ToLower(strings.TrimSpace(req.Email))

	var msgs []string
	if name == "" {
		msgs = append(msgs, "Name is required")
	}
	if _, err := mail.ParseAddress(email); email == "" || err != nil {
		msgs = append(msgs, "Please include a valid email")
	}
	if len(req.Password) < 6 {
		msgs = append(msgs, "Please enter a password with 6 or more characters")
	}
	if len(msgs) > 0 {
		utils.ValidationError(ctx, msgs...)
		return
	}

	var existing models.User
	err := u.db.Where("email = ?", email).First(&existing).Error
	if err == nil {
		utils.ValidationError(ctx, "User already exists")
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		utils.ServerError(ctx, err)
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		utils.ServerError(ctx, err)
		return
	}

	user := models.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         strings.TrimSpace(req.Role),
	}
	if err := u.db.Create(&user).Error; err != nil {
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

// ChangePassword re-hashes the authenticated user's password with a fresh
// salt. Both password fields must match exactly.
func (u *UserController) ChangePassword(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Unauthorized(ctx, "unauthorized")
		return
	}

	var req struct {
		Password  string `json:"password"`
		Password2 string `json:"password2"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.ValidationError(ctx, "invalid request payload")
		return
	}

	var msgs []string
	if len(req.Password) < 6 {
		msgs = append(msgs, "Please enter a password with 6 or more characters")
	}
	if req.Password != req.Password2 {
		msgs = append(msgs, "Passwords do not match")
	}
	if len(msgs) > 0 {
		utils.ValidationError(ctx, msgs...)
		return
	}

	var user models.User
	if err := u.db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.NotFound(ctx, "User not found")
			return
		}
		utils.ServerError(ctx, err)
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		utils.ServerError(ctx, err)
		return
	}

	user.PasswordHash = hash
	if err := u.db.Save(&user).Error; err != nil {
		utils.ServerError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, user)
}
