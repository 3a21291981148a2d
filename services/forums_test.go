package services

import (
	"context"
	"strings"
	"testing"

	"greened-backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreatePostNormalizesCategoryAndSlug(t *testing.T) {
	db := newTestDB(t)
	svc := NewForumService(db)
	sess := createUser(t, db, "asha", models.RoleStudent)

	post, err := svc.CreatePost(context.Background(), sess, NewPostInput{
		Title:    "Saving Water at Home!",
		Content:  "Tips please",
		Category: "Water Conservation",
		Tags:     []string{" water ", ""},
	})
	require.NoError(t, err)
	assert.Equal(t, "water-conservation", post.Category)
	assert.True(t, strings.HasPrefix(post.Slug, "saving-water-at-home-"), post.Slug)
	assert.Equal(t, []string{"water"}, []string(post.Tags))

	dup, err := svc.CreatePost(context.Background(), sess, NewPostInput{Title: "Saving Water at Home!", Content: "x", Category: "water"})
	require.NoError(t, err)
	assert.NotEqual(t, post.Slug, dup.Slug)

	posts, err := svc.Posts(context.Background(), "Water Conservation", 0)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "asha", posts[0].Author.Name)

	_, err = svc.CreatePost(context.Background(), sess, NewPostInput{Title: "t", Content: "c"})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.CreatePost(context.Background(), nil, NewPostInput{Title: "t", Content: "c", Category: "x"})
	assert.ErrorIs(t, err, ErrNotAuthenticated)
}

func TestRepliesAndLockedPosts(t *testing.T) {
	db := newTestDB(t)
	svc := NewForumService(db)
	author := createUser(t, db, "asha", models.RoleStudent)
	replier := createUser(t, db, "", models.RoleStudent)
	ctx := context.Background()

	post, err := svc.CreatePost(ctx, author, NewPostInput{Title: "Compost", Content: "How?", Category: "waste"})
	require.NoError(t, err)

	first, err := svc.CreateReply(ctx, replier, NewReplyInput{PostID: post.ID, Content: "Use a bin"})
	require.NoError(t, err)
	nested, err := svc.CreateReply(ctx, author, NewReplyInput{PostID: post.ID, Content: "Thanks", ParentReplyID: first.ID})
	require.NoError(t, err)
	require.NotNil(t, nested.ParentReplyID)
	assert.Equal(t, first.ID, *nested.ParentReplyID)

	full, err := svc.Post(ctx, post.ID)
	require.NoError(t, err)
	require.Len(t, full.Replies, 2)
	assert.Equal(t, "Anonymous", full.Replies[0].Author.Name)
	assert.Equal(t, "asha", full.Author.Name)

	other, err := svc.CreatePost(ctx, author, NewPostInput{Title: "Other", Content: "x", Category: "waste"})
	require.NoError(t, err)
	_, err = svc.CreateReply(ctx, author, NewReplyInput{PostID: other.ID, Content: "x", ParentReplyID: first.ID})
	assert.ErrorIs(t, err, ErrNotFound, "parent must belong to the same post")

	require.NoError(t, db.Model(&models.ForumPost{}).Where("id = ?", post.ID).Update("is_locked", true).Error)
	_, err = svc.CreateReply(ctx, replier, NewReplyInput{PostID: post.ID, Content: "late"})
	require.ErrorIs(t, err, ErrInvalidInput)
	assert.Contains(t, err.Error(), "post is locked")
}
