package services

import (
	"context"
	"strings"

	"greened-backend/models"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

const DefaultForumLimit = 20

type Author struct {
	Name  string      `json:"name"`
	Image string      `json:"image,omitempty"`
	Role  models.Role `json:"role,omitempty"`
}

type PostView struct {
	models.ForumPost
	Author Author `json:"author"`
}

type ReplyView struct {
	models.ForumReply
	Author Author `json:"author"`
}

type PostWithReplies struct {
	PostView
	Replies []ReplyView `json:"replies"`
}

type NewPostInput struct {
	Title    string
	Content  string
	Category string
	Tags     []string
}

type NewReplyInput struct {
	PostID        string
	Content       string
	ParentReplyID string
}

type ForumService struct {
	DB *gorm.DB
}

func NewForumService(db *gorm.DB) *ForumService {
	return &ForumService{DB: db}
}

// authors loads display info for a set of user ids in one query.
func (s *ForumService) authors(db *gorm.DB, ids []string) (map[string]Author, error) {
	out := make(map[string]Author, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var users []models.User
	if err := db.Select("id", "name", "image", "role").Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}
	for i := range users {
		u := &users[i]
		out[u.ID] = Author{Name: u.DisplayName(), Image: u.Image, Role: u.Role}
	}
	return out, nil
}

func authorOf(m map[string]Author, id string) Author {
	if a, ok := m[id]; ok {
		return a
	}
	return Author{Name: "Anonymous"}
}

// Posts lists the newest posts, optionally in one category.
func (s *ForumService) Posts(ctx context.Context, category string, limit int) ([]PostView, error) {
	if limit <= 0 {
		limit = DefaultForumLimit
	}
	if limit > 100 {
		limit = 100
	}
	db := s.DB.WithContext(ctx)
	q := db.Order("created_at DESC").Limit(limit)
	if category != "" {
		q = q.Where("category = ?", slug.Make(category))
	}
	var posts []models.ForumPost
	if err := q.Find(&posts).Error; err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(posts))
	for _, p := range posts {
		ids = append(ids, p.UserID)
	}
	authors, err := s.authors(db, ids)
	if err != nil {
		return nil, err
	}
	out := make([]PostView, len(posts))
	for i := range posts {
		out[i] = PostView{ForumPost: posts[i], Author: authorOf(authors, posts[i].UserID)}
	}
	return out, nil
}

func (s *ForumService) CreatePost(ctx context.Context, sess *Session, in NewPostInput) (*models.ForumPost, error) {
	user, err := sess.requireUser()
	if err != nil {
		return nil, err
	}
	title := strings.TrimSpace(in.Title)
	category := slug.Make(in.Category)
	if title == "" || strings.TrimSpace(in.Content) == "" {
		return nil, invalid("title and content are required")
	}
	if category == "" {
		return nil, invalid("category is required")
	}

	tags := make([]string, 0, len(in.Tags))
	for _, t := range in.Tags {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	post := models.ForumPost{
		UserID:   user.ID,
		Title:    title,
		Slug:     postSlug(title),
		Content:  in.Content,
		Category: category,
		Tags:     tags,
	}
	if err := s.DB.WithContext(ctx).Create(&post).Error; err != nil {
		return nil, err
	}
	return &post, nil
}

// postSlug suffixes the title slug with a short random id so equal titles do not collide.
func postSlug(title string) string {
	base := slug.Make(title)
	if len(base) > 80 {
		base = strings.Trim(base[:80], "-")
	}
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	if base == "" {
		return suffix
	}
	return base + "-" + suffix
}

// Post returns a post with its replies in creation order.
func (s *ForumService) Post(ctx context.Context, id string) (*PostWithReplies, error) {
	db := s.DB.WithContext(ctx)
	post, err := findByID[models.ForumPost](db, id, "post")
	if err != nil {
		return nil, err
	}
	var replies []models.ForumReply
	if err := db.Where("post_id = ?", post.ID).Order("created_at ASC").Find(&replies).Error; err != nil {
		return nil, err
	}

	ids := []string{post.UserID}
	for _, r := range replies {
		ids = append(ids, r.UserID)
	}
	authors, err := s.authors(db, ids)
	if err != nil {
		return nil, err
	}
	out := &PostWithReplies{
		PostView: PostView{ForumPost: *post, Author: authorOf(authors, post.UserID)},
		Replies:  make([]ReplyView, len(replies)),
	}
	for i := range replies {
		out.Replies[i] = ReplyView{ForumReply: replies[i], Author: authorOf(authors, replies[i].UserID)}
	}
	return out, nil
}

// CreateReply adds a reply to an unlocked post, optionally under another reply of that post.
func (s *ForumService) CreateReply(ctx context.Context, sess *Session, in NewReplyInput) (*models.ForumReply, error) {
	user, err := sess.requireUser()
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Content) == "" {
		return nil, invalid("content is required")
	}

	var reply *models.ForumReply
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		post, err := findByID[models.ForumPost](tx, in.PostID, "post")
		if err != nil {
			return err
		}
		if post.IsLocked {
			return invalid("post is locked")
		}

		var parent *string
		if in.ParentReplyID != "" {
			p, err := findByID[models.ForumReply](tx, in.ParentReplyID, "reply")
			if err != nil {
				return err
			}
			if p.PostID != post.ID {
				return notFound("reply")
			}
			parent = &p.ID
		}

		reply = &models.ForumReply{
			PostID:        post.ID,
			UserID:        user.ID,
			Content:       in.Content,
			ParentReplyID: parent,
		}
		return tx.Create(reply).Error
	})
	if err != nil {
		return nil, err
	}
	return reply, nil
}
