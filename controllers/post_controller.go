package controllers

import (
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/ahmaat19/Personal-Finance-Blog/config"
	"github.com/ahmaat19/Personal-Finance-Blog/middleware"
	"github.com/ahmaat19/Personal-Finance-Blog/models"
	"github.com/ahmaat19/Personal-Finance-Blog/utils"
)

const (
	postsCachePrefix = "cache:posts:"
	postsCacheKey    = postsCachePrefix + "all"
)

// PostController manages posts with their embedded comments and likes, plus
// the image upload lifecycle.
type PostController struct {
	db         *gorm.DB
	uploadDir  string
	publicBase string
	maxBytes   int64
}

// NewPostController creates a PostController using the configured upload
// locations.
func NewPostController(db *gorm.DB) *PostController {
	cfg := config.Get()
	return &PostController{
		db:         db,
		uploadDir:  cfg.UploadsDir,
		publicBase: cfg.UploadsPublicPath,
		maxBytes:   cfg.UploadMaxBytes,
	}
}

// GetPosts returns every post, newest first, with author, comment-author and
// like-author references resolved to display names. No pagination.
func (p *PostController) GetPosts(ctx *gin.Context) {
	if b, ok := utils.CacheGetBytes(postsCacheKey); ok {
		ctx.Data(http.StatusOK, "application/json; charset=utf-8", b)
		return
	}
	p.respondPosts(ctx)
}

// CreatePost creates a post from a multipart form with an attached PNG image.
func (p *PostController) CreatePost(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Unauthorized(ctx, "unauthorized")
		return
	}

	title := utils.Sanitize(strings.TrimSpace(ctx.PostForm("title")))
	content := utils.Sanitize(ctx.PostForm("content"))
	status := strings.TrimSpace(ctx.PostForm("status"))

	var msgs []string
	if title == "" {
		msgs = append(msgs, "Title is required")
	}
	if content == "" {
		msgs = append(msgs, "Content is required")
	}
	fh, err := ctx.FormFile("image")
	if err != nil {
		msgs = append(msgs, "Image is required")
	}
	if len(msgs) > 0 {
		utils.ValidationError(ctx, msgs...)
		return
	}

	// Duplicate exact title rejects with 401, matching the contract the
	// client was written against.
	var existing models.Post
	if err := p.db.Where("title = ?", title).First(&existing).Error; err == nil {
		utils.Unauthorized(ctx, "Title already exists")
		return
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		utils.ServerError(ctx, err)
		return
	}

	img, err := p.ingestImage(ctx, fh)
	if err != nil {
		return
	}

	post := models.Post{
		UserID:   userID,
		Title:    title,
		Content:  content,
		Status:   status,
		Category: normalizeCategory(ctx.PostForm("category")),
		Image:    img,
	}
	if err := p.db.Create(&post).Error; err != nil {
		// The image file is already on disk; the orphan sweeper reclaims it.
		utils.ServerError(ctx, err)
		return
	}

	utils.InvalidateByPrefix(postsCachePrefix)
	p.respondPosts(ctx)
}

// UpdatePost replaces every mutable field of a post, ingests the replacement
// image, and re-stamps ownership to the editing user.
func (p *PostController) UpdatePost(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Unauthorized(ctx, "unauthorized")
		return
	}
	postID, ok := parseID(ctx.Param("id"))
	if !ok {
		utils.ValidationError(ctx, "Invalid post id")
		return
	}

	var post models.Post
	if err := p.db.First(&post, postID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.NotFound(ctx, "Post not found")
			return
		}
		utils.ServerError(ctx, err)
		return
	}

	title := utils.Sanitize(strings.TrimSpace(ctx.PostForm("title")))
	content := utils.Sanitize(ctx.PostForm("content"))
	status := strings.TrimSpace(ctx.PostForm("status"))

	var msgs []string
	if title == "" {
		msgs = append(msgs, "Title is required")
	}
	if content == "" {
		msgs = append(msgs, "Content is required")
	}
	fh, err := ctx.FormFile("image")
	if err != nil {
		msgs = append(msgs, "Image is required")
	}
	if len(msgs) > 0 {
		utils.ValidationError(ctx, msgs...)
		return
	}

	img, err := p.ingestImage(ctx, fh)
	if err != nil {
		return
	}
	p.discardImage(post.Image.FileName)

	post.Title = title
	post.Content = content
	post.Status = status
	post.Category = normalizeCategory(ctx.PostForm("category"))
	post.Image = img
	post.UserID = userID
	if err := p.db.Save(&post).Error; err != nil {
		utils.ServerError(ctx, err)
		return
	}

	utils.InvalidateByPrefix(postsCachePrefix)
	p.respondPosts(ctx)
}

// DeletePost removes a post together with its comments, likes, and backing
// image file.
func (p *PostController) DeletePost(ctx *gin.Context) {
	postID, ok := parseID(ctx.Param("id"))
	if !ok {
		utils.ValidationError(ctx, "Invalid post id")
		return
	}

	var post models.Post
	if err := p.db.First(&post, postID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.NotFound(ctx, "Post not found")
			return
		}
		utils.ServerError(ctx, err)
		return
	}

	p.discardImage(post.Image.FileName)

	if err := p.db.Where("post_id = ?", post.ID).Delete(&models.Comment{}).Error; err != nil {
		utils.ServerError(ctx, err)
		return
	}
	if err := p.db.Where("post_id = ?", post.ID).Delete(&models.Like{}).Error; err != nil {
		utils.ServerError(ctx, err)
		return
	}
	if err := p.db.Delete(&post).Error; err != nil {
		utils.ServerError(ctx, err)
		return
	}

	utils.InvalidateByPrefix(postsCachePrefix)
	p.respondPosts(ctx)
}

// CreateComment adds a comment to a post. Comments are returned newest first.
func (p *PostController) CreateComment(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Unauthorized(ctx, "unauthorized")
		return
	}
	postID, ok := parseID(ctx.Param("id"))
	if !ok {
		utils.ValidationError(ctx, "Invalid post id")
		return
	}

	var req struct {
		Text string `json:"text"`
	}
	_ = ctx.ShouldBindJSON(&req)
	text := utils.Sanitize(strings.TrimSpace(req.Text))
	if text == "" {
		utils.ValidationError(ctx, "Text is required")
		return
	}

	var post models.Post
	if err := p.db.First(&post, postID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.NotFound(ctx, "Post not found")
			return
		}
		utils.ServerError(ctx, err)
		return
	}

	comment := models.Comment{PostID: post.ID, UserID: userID, Text: text}
	if err := p.db.Create(&comment).Error; err != nil {
		utils.ServerError(ctx, err)
		return
	}

	utils.InvalidateByPrefix(postsCachePrefix)
	p.respondComments(ctx, post.ID)
}

// DeleteComment removes a comment, but only for its author.
func (p *PostController) DeleteComment(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Unauthorized(ctx, "unauthorized")
		return
	}
	postID, ok := parseID(ctx.Param("id"))
	if !ok {
		utils.ValidationError(ctx, "Invalid post id")
		return
	}
	commentID, ok := parseID(ctx.Param("comment_id"))
	if !ok {
		utils.ValidationError(ctx, "Invalid comment id")
		return
	}

	var comment models.Comment
	err := p.db.Where("id = ? AND post_id = ?", commentID, postID).First(&comment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.NotFound(ctx, "Comment does not exist")
			return
		}
		utils.ServerError(ctx, err)
		return
	}

	if comment.UserID != userID {
		utils.Unauthorized(ctx, "User not authorized")
		return
	}

	if err := p.db.Delete(&comment).Error; err != nil {
		utils.ServerError(ctx, err)
		return
	}

	utils.InvalidateByPrefix(postsCachePrefix)
	p.respondComments(ctx, postID)
}

// LikePost marks a post as liked by the requester, once.
func (p *PostController) LikePost(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Unauthorized(ctx, "unauthorized")
		return
	}
	postID, ok := parseID(ctx.Param("id"))
	if !ok {
		utils.ValidationError(ctx, "Invalid post id")
		return
	}

	var post models.Post
	if err := p.db.First(&post, postID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.NotFound(ctx, "Post not found")
			return
		}
		utils.ServerError(ctx, err)
		return
	}

	var existing models.Like
	err := p.db.Where("post_id = ? AND user_id = ?", post.ID, userID).First(&existing).Error
	if err == nil {
		utils.ValidationError(ctx, "Post already liked")
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		utils.ServerError(ctx, err)
		return
	}

	if err := p.db.Create(&models.Like{PostID: post.ID, UserID: userID}).Error; err != nil {
		utils.ServerError(ctx, err)
		return
	}

	utils.InvalidateByPrefix(postsCachePrefix)
	p.respondLikes(ctx, post.ID)
}

// UnlikePost removes the requester's like from a post.
func (p *PostController) UnlikePost(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Unauthorized(ctx, "unauthorized")
		return
	}
	postID, ok := parseID(ctx.Param("id"))
	if !ok {
		utils.ValidationError(ctx, "Invalid post id")
		return
	}

	var like models.Like
	err := p.db.Where("post_id = ? AND user_id = ?", postID, userID).First(&like).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.ValidationError(ctx, "Post has not yet been liked")
			return
		}
		utils.ServerError(ctx, err)
		return
	}

	if err := p.db.Delete(&like).Error; err != nil {
		utils.ServerError(ctx, err)
		return
	}

	utils.InvalidateByPrefix(postsCachePrefix)
	p.respondLikes(ctx, postID)
}

// ingestImage validates and stores the upload, recording the file for the
// orphan sweeper. On failure the response is already written.
func (p *PostController) ingestImage(ctx *gin.Context, fh *multipart.FileHeader) (models.Image, error) {
	img, err := utils.SaveImage(fh, p.uploadDir, p.publicBase, p.maxBytes)
	if err != nil {
		if errors.Is(err, utils.ErrNotPNG) || errors.Is(err, utils.ErrImageTooLarge) {
			utils.ValidationError(ctx, err.Error())
		} else {
			utils.ServerError(ctx, err)
		}
		return models.Image{}, err
	}
	// Best-effort bookkeeping; the upload itself already succeeded.
	_ = p.db.Create(&models.UploadedFile{
		FileName: img.FileName,
		FilePath: filepath.Join(p.uploadDir, img.FileName),
		URL:      img.PublicPath,
	}).Error
	return img, nil
}

// discardImage unlinks a superseded file and its sweeper record. Best effort.
func (p *PostController) discardImage(fileName string) {
	if fileName == "" {
		return
	}
	utils.RemoveImage(p.uploadDir, fileName)
	_ = p.db.Where("file_name = ?", fileName).Delete(&models.UploadedFile{}).Error
}

// respondPosts writes the refreshed full post list, caching the rendered
// JSON for subsequent reads.
func (p *PostController) respondPosts(ctx *gin.Context) {
	posts, err := p.listPosts()
	if err != nil {
		utils.ServerError(ctx, err)
		return
	}
	if b, err := json.Marshal(posts); err == nil {
		utils.CacheSetBytes(postsCacheKey, b, 0)
		ctx.Data(http.StatusOK, "application/json; charset=utf-8", b)
		return
	}
	ctx.JSON(http.StatusOK, posts)
}

func (p *PostController) respondComments(ctx *gin.Context, postID uint) {
	comments, err := p.loadComments(postID)
	if err != nil {
		utils.ServerError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, comments)
}

func (p *PostController) respondLikes(ctx *gin.Context, postID uint) {
	likes, err := p.loadLikes(postID)
	if err != nil {
		utils.ServerError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, likes)
}

// listPosts loads every post newest-first and resolves user references for
// the post itself and its embedded comments and likes.
func (p *PostController) listPosts() ([]models.Post, error) {
	var posts []models.Post
	err := p.db.
		Preload("User").
		Preload("Comments", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("created_at DESC, id DESC")
		}).
		Preload("Likes").
		Order("created_at DESC, id DESC").
		Find(&posts).Error
	if err != nil {
		return nil, err
	}

	var userIDs []uint
	for _, post := range posts {
		for _, c := range post.Comments {
			userIDs = append(userIDs, c.UserID)
		}
		for _, l := range post.Likes {
			userIDs = append(userIDs, l.UserID)
		}
	}
	users, err := p.userMap(userIDs)
	if err != nil {
		return nil, err
	}
	for i := range posts {
		for j := range posts[i].Comments {
			if u, ok := users[posts[i].Comments[j].UserID]; ok {
				posts[i].Comments[j].User = u
			}
		}
		for j := range posts[i].Likes {
			if u, ok := users[posts[i].Likes[j].UserID]; ok {
				posts[i].Likes[j].User = u
			}
		}
	}
	return posts, nil
}

func (p *PostController) loadComments(postID uint) ([]models.Comment, error) {
	var comments []models.Comment
	err := p.db.Where("post_id = ?", postID).Order("created_at DESC, id DESC").Find(&comments).Error
	if err != nil {
		return nil, err
	}
	var ids []uint
	for _, c := range comments {
		ids = append(ids, c.UserID)
	}
	users, err := p.userMap(ids)
	if err != nil {
		return nil, err
	}
	for i := range comments {
		if u, ok := users[comments[i].UserID]; ok {
			comments[i].User = u
		}
	}
	return comments, nil
}

func (p *PostController) loadLikes(postID uint) ([]models.Like, error) {
	var likes []models.Like
	err := p.db.Where("post_id = ?", postID).Order("id ASC").Find(&likes).Error
	if err != nil {
		return nil, err
	}
	var ids []uint
	for _, l := range likes {
		ids = append(ids, l.UserID)
	}
	users, err := p.userMap(ids)
	if err != nil {
		return nil, err
	}
	for i := range likes {
		if u, ok := users[likes[i].UserID]; ok {
			likes[i].User = u
		}
	}
	return likes, nil
}

// userMap fetches the given users once for read-time reference resolution.
func (p *PostController) userMap(ids []uint) (map[uint]models.User, error) {
	out := make(map[uint]models.User)
	ids = utils.UniqueUint(ids)
	if len(ids) == 0 {
		return out, nil
	}
	var users []models.User
	if err := p.db.Find(&users, ids).Error; err != nil {
		return nil, err
	}
	for _, u := range users {
		out[u.ID] = u
	}
	return out, nil
}

// normalizeCategory accepts either a JSON list or a comma-separated string.
// Each element is trimmed and then space-prefixed, so "a, b,c" stores as
// [" a", " b", " c"].
func normalizeCategory(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return []string{}
	}
	var parts []string
	if err := json.Unmarshal([]byte(raw), &parts); err != nil {
		parts = strings.Split(raw, ",")
	}
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		out = append(out, " "+strings.TrimSpace(part))
	}
	return out
}

func parseID(raw string) (uint, bool) {
	id, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func getUserID(ctx *gin.Context) (uint, bool) {
	value, exists := ctx.Get(middleware.ContextUserIDKey)
	if !exists {
		return 0, false
	}

	switch v := value.(type) {
	case uint:
		return v, true
	case int:
		return uint(v), true
	case int64:
		return uint(v), true
	case float64:
		return uint(v), true
	default:
		return 0, false
	}
}
