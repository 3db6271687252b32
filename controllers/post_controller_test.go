package controllers

import (
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/ahmaat19/Personal-Finance-Blog/models"
)

func postFields(title string) map[string]string {
	return map[string]string{
		"title":    title,
		"content":  "some content",
		"status":   "publish",
		"category": "finance, budgeting",
	}
}

func TestListPostsNewestFirst(t *testing.T) {
	env := newTestEnv(t)
	user, token := env.seedUser(t, "alice", "alice@example.com")

	// Insert out of order; listing must come back created-at descending.
	base := time.Now().Add(-time.Hour)
	for i, offset := range []time.Duration{10 * time.Minute, 30 * time.Minute, 20 * time.Minute} {
		post := models.Post{
			UserID:    user.ID,
			Title:     fmt.Sprintf("post-%d", i),
			Content:   "content",
			CreatedAt: base.Add(offset),
		}
		if err := env.db.Create(&post).Error; err != nil {
			t.Fatalf("create post: %v", err)
		}
	}

	w := env.doJSON(t, http.MethodGet, "/api/post", token, nil)
	requireStatus(t, w, http.StatusOK)
	posts := decodePosts(t, w)
	if len(posts) != 3 {
		t.Fatalf("got %d posts, want 3", len(posts))
	}
	for i := 1; i < len(posts); i++ {
		if posts[i].CreatedAt.After(posts[i-1].CreatedAt) {
			t.Fatalf("posts not sorted newest first: %v before %v", posts[i-1].CreatedAt, posts[i].CreatedAt)
		}
	}
}

func TestListPostsRequiresAuth(t *testing.T) {
	env := newTestEnv(t)
	w := env.doJSON(t, http.MethodGet, "/api/post", "", nil)
	requireStatus(t, w, http.StatusUnauthorized)
}

func TestCreatePostHappyPath(t *testing.T) {
	env := newTestEnv(t)
	user, token := env.seedUser(t, "alice", "alice@example.com")

	w := env.doMultipart(t, http.MethodPost, "/api/post", token, postFields("first post"), "chart.png", "image/png")
	requireStatus(t, w, http.StatusOK)

	posts := decodePosts(t, w)
	if len(posts) != 1 {
		t.Fatalf("got %d posts, want 1", len(posts))
	}
	post := posts[0]
	if post.UserID != user.ID {
		t.Errorf("post owner = %d, want %d", post.UserID, user.ID)
	}
	if post.User.Name != "alice" {
		t.Errorf("author not resolved, got %q", post.User.Name)
	}
	if !strings.HasSuffix(post.Image.FileName, "chart.png") {
		t.Errorf("image filename %q not timestamp-prefixed original", post.Image.FileName)
	}
	if post.Image.MimeType != "image/png" {
		t.Errorf("image mime = %q", post.Image.MimeType)
	}
	if !strings.HasPrefix(post.Image.PublicPath, "/static/uploads/") {
		t.Errorf("image public path = %q", post.Image.PublicPath)
	}
	if files := uploadedFiles(t, env.posts.uploadDir); len(files) != 1 {
		t.Errorf("upload dir has %d files, want 1", len(files))
	}
}

func TestCreatePostValidation(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.seedUser(t, "alice", "alice@example.com")

	w := env.doMultipart(t, http.MethodPost, "/api/post", token, map[string]string{}, "", "")
	requireStatus(t, w, http.StatusBadRequest)
	msgs := strings.Join(decodeErrors(t, w), "|")
	for _, want := range []string{"Title is required", "Content is required", "Image is required"} {
		if !strings.Contains(msgs, want) {
			t.Errorf("errors %q missing %q", msgs, want)
		}
	}
}

func TestCreatePostDuplicateTitle(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.seedUser(t, "alice", "alice@example.com")

	w := env.doMultipart(t, http.MethodPost, "/api/post", token, postFields("unique title"), "a.png", "image/png")
	requireStatus(t, w, http.StatusOK)

	// Exact-match duplicate rejects with 401 and leaves the store unchanged.
	w = env.doMultipart(t, http.MethodPost, "/api/post", token, postFields("unique title"), "b.png", "image/png")
	requireStatus(t, w, http.StatusUnauthorized)

	var count int64
	env.db.Model(&models.Post{}).Count(&count)
	if count != 1 {
		t.Fatalf("post count = %d, want 1", count)
	}
}

func TestCreatePostRejectsNonPNG(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.seedUser(t, "alice", "alice@example.com")

	w := env.doMultipart(t, http.MethodPost, "/api/post", token, postFields("jpeg post"), "photo.jpg", "image/jpeg")
	requireStatus(t, w, http.StatusBadRequest)

	if files := uploadedFiles(t, env.posts.uploadDir); len(files) != 0 {
		t.Fatalf("non-PNG upload wrote files: %v", files)
	}
	var count int64
	env.db.Model(&models.Post{}).Count(&count)
	if count != 0 {
		t.Fatalf("post count = %d, want 0", count)
	}
}

func TestUpdatePostReplacesImageAndOwner(t *testing.T) {
	env := newTestEnv(t)
	_, tokenA := env.seedUser(t, "alice", "alice@example.com")
	bob, tokenB := env.seedUser(t, "bob", "bob@example.com")

	w := env.doMultipart(t, http.MethodPost, "/api/post", tokenA, postFields("shared post"), "old.png", "image/png")
	requireStatus(t, w, http.StatusOK)
	created := decodePosts(t, w)[0]

	fields := postFields("shared post edited")
	w = env.doMultipart(t, http.MethodPut, fmt.Sprintf("/api/post/%d", created.ID), tokenB, fields, "new.png", "image/png")
	requireStatus(t, w, http.StatusOK)

	var post models.Post
	if err := env.db.First(&post, created.ID).Error; err != nil {
		t.Fatalf("reload post: %v", err)
	}
	if post.UserID != bob.ID {
		t.Errorf("ownership not re-stamped to editor: got %d, want %d", post.UserID, bob.ID)
	}
	if post.Title != "shared post edited" {
		t.Errorf("title = %q", post.Title)
	}
	if !strings.HasSuffix(post.Image.FileName, "new.png") {
		t.Errorf("image not replaced: %q", post.Image.FileName)
	}

	files := uploadedFiles(t, env.posts.uploadDir)
	if len(files) != 1 || !strings.HasSuffix(files[0], "new.png") {
		t.Errorf("old image not unlinked, dir has %v", files)
	}
}

func TestUpdatePostInvalidID(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.seedUser(t, "alice", "alice@example.com")

	w := env.doMultipart(t, http.MethodPut, "/api/post/not-a-number", token, postFields("x"), "a.png", "image/png")
	requireStatus(t, w, http.StatusBadRequest)
}

func TestDeletePostRemovesRecordAndFile(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.seedUser(t, "alice", "alice@example.com")

	w := env.doMultipart(t, http.MethodPost, "/api/post", token, postFields("doomed"), "doomed.png", "image/png")
	requireStatus(t, w, http.StatusOK)
	created := decodePosts(t, w)[0]

	w = env.doJSON(t, http.MethodDelete, fmt.Sprintf("/api/post/%d", created.ID), token, nil)
	requireStatus(t, w, http.StatusOK)
	if posts := decodePosts(t, w); len(posts) != 0 {
		t.Fatalf("list still has %d posts after delete", len(posts))
	}
	if files := uploadedFiles(t, env.posts.uploadDir); len(files) != 0 {
		t.Fatalf("backing file not removed: %v", files)
	}
}

func TestCategoryNormalization(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.seedUser(t, "alice", "alice@example.com")

	fields := postFields("categorized")
	fields["category"] = "a, b,c"
	w := env.doMultipart(t, http.MethodPost, "/api/post", token, fields, "a.png", "image/png")
	requireStatus(t, w, http.StatusOK)

	var post models.Post
	if err := env.db.First(&post).Error; err != nil {
		t.Fatalf("reload post: %v", err)
	}
	want := []string{" a", " b", " c"}
	if len(post.Category) != len(want) {
		t.Fatalf("category = %#v, want %#v", post.Category, want)
	}
	for i := range want {
		if post.Category[i] != want[i] {
			t.Fatalf("category[%d] = %q, want %q", i, post.Category[i], want[i])
		}
	}
}

func TestNormalizeCategoryForms(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{"a, b,c", []string{" a", " b", " c"}},
		{`["x","y "]`, []string{" x", " y"}},
		{"solo", []string{" solo"}},
		{"", []string{}},
	}
	for _, tc := range cases {
		got := normalizeCategory(tc.in)
		if len(got) != len(tc.want) {
			t.Errorf("normalizeCategory(%q) = %#v, want %#v", tc.in, got, tc.want)
			continue
		}
		for i := range tc.want {
			if got[i] != tc.want[i] {
				t.Errorf("normalizeCategory(%q)[%d] = %q, want %q", tc.in, i, got[i], tc.want[i])
			}
		}
	}
}

func TestCommentLifecycle(t *testing.T) {
	env := newTestEnv(t)
	_, tokenA := env.seedUser(t, "alice", "alice@example.com")
	_, tokenB := env.seedUser(t, "bob", "bob@example.com")

	w := env.doMultipart(t, http.MethodPost, "/api/post", tokenA, postFields("commented"), "a.png", "image/png")
	requireStatus(t, w, http.StatusOK)
	post := decodePosts(t, w)[0]

	// Empty text rejects.
	w = env.doJSON(t, http.MethodPost, fmt.Sprintf("/api/post/comment/%d", post.ID), tokenA, map[string]string{"text": "   "})
	requireStatus(t, w, http.StatusBadRequest)

	w = env.doJSON(t, http.MethodPost, fmt.Sprintf("/api/post/comment/%d", post.ID), tokenA, map[string]string{"text": "first"})
	requireStatus(t, w, http.StatusOK)
	comments := decodeComments(t, w)
	if len(comments) != 1 || comments[0].Text != "first" {
		t.Fatalf("comments = %#v", comments)
	}
	if comments[0].User.Name != "alice" {
		t.Errorf("comment author not resolved: %q", comments[0].User.Name)
	}
	commentID := comments[0].ID

	// Someone else cannot delete it.
	w = env.doJSON(t, http.MethodDelete, fmt.Sprintf("/api/post/comment/%d/%d", post.ID, commentID), tokenB, nil)
	requireStatus(t, w, http.StatusUnauthorized)

	// Unknown comment id is a 404.
	w = env.doJSON(t, http.MethodDelete, fmt.Sprintf("/api/post/comment/%d/%d", post.ID, commentID+99), tokenA, nil)
	requireStatus(t, w, http.StatusNotFound)

	// The author can.
	w = env.doJSON(t, http.MethodDelete, fmt.Sprintf("/api/post/comment/%d/%d", post.ID, commentID), tokenA, nil)
	requireStatus(t, w, http.StatusOK)
	if comments := decodeComments(t, w); len(comments) != 0 {
		t.Fatalf("comment not removed: %#v", comments)
	}
}

func TestCommentsNewestFirst(t *testing.T) {
	env := newTestEnv(t)
	user, token := env.seedUser(t, "alice", "alice@example.com")

	w := env.doMultipart(t, http.MethodPost, "/api/post", token, postFields("threaded"), "a.png", "image/png")
	requireStatus(t, w, http.StatusOK)
	post := decodePosts(t, w)[0]

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 3; i++ {
		c := models.Comment{
			PostID:    post.ID,
			UserID:    user.ID,
			Text:      fmt.Sprintf("comment-%d", i),
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := env.db.Create(&c).Error; err != nil {
			t.Fatalf("create comment: %v", err)
		}
	}

	w = env.doJSON(t, http.MethodPost, fmt.Sprintf("/api/post/comment/%d", post.ID), token, map[string]string{"text": "newest"})
	requireStatus(t, w, http.StatusOK)
	comments := decodeComments(t, w)
	if len(comments) != 4 {
		t.Fatalf("got %d comments, want 4", len(comments))
	}
	if comments[0].Text != "newest" {
		t.Fatalf("first comment = %q, want the newest", comments[0].Text)
	}
	for i := 1; i < len(comments); i++ {
		if comments[i].CreatedAt.After(comments[i-1].CreatedAt) {
			t.Fatalf("comments not newest first")
		}
	}
}

func TestLikeUnlike(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.seedUser(t, "alice", "alice@example.com")

	w := env.doMultipart(t, http.MethodPost, "/api/post", token, postFields("likable"), "a.png", "image/png")
	requireStatus(t, w, http.StatusOK)
	post := decodePosts(t, w)[0]

	w = env.doJSON(t, http.MethodPost, fmt.Sprintf("/api/post/like/%d", post.ID), token, nil)
	requireStatus(t, w, http.StatusOK)

	// Double like rejects.
	w = env.doJSON(t, http.MethodPost, fmt.Sprintf("/api/post/like/%d", post.ID), token, nil)
	requireStatus(t, w, http.StatusBadRequest)

	var count int64
	env.db.Model(&models.Like{}).Count(&count)
	if count != 1 {
		t.Fatalf("like count = %d, want 1", count)
	}

	w = env.doJSON(t, http.MethodPost, fmt.Sprintf("/api/post/unlike/%d", post.ID), token, nil)
	requireStatus(t, w, http.StatusOK)

	// Unliking again rejects.
	w = env.doJSON(t, http.MethodPost, fmt.Sprintf("/api/post/unlike/%d", post.ID), token, nil)
	requireStatus(t, w, http.StatusBadRequest)

	env.db.Model(&models.Like{}).Count(&count)
	if count != 0 {
		t.Fatalf("like count = %d, want 0", count)
	}
}
