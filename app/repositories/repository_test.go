package repositories

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"newsroom/app/models"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestStore(t *testing.T) (*Store, *badger.DB) {
	db, err := OpenBadger("", nil)
	require.NoError(t, err)
	store := NewBadgerStore(db)
	t.Cleanup(func() { store.Close() })
	return store, db
}

func newUser(email, name string) *models.User {
	return &models.User{Email: email, PasswordHash: "pbkdf2:sha256:1$salt$00", Name: name}
}

func newPost(authorID int, title, content string) *models.Post {
	return &models.Post{
		Title:    title,
		Subtitle: "S",
		ImgURL:   "http://x/i.png",
		Content:  content,
		Date:     "05 March 2026",
		AuthorID: authorID,
	}
}

func TestEncodeIDOrdering(t *testing.T) {
	// Lexical key order must match numeric order.
	assert.Less(t, string(entityKey(PostKeyPrefix, 2)), string(entityKey(PostKeyPrefix, 10)))
	id, err := decodeID(encodeID(123456))
	require.NoError(t, err)
	assert.Equal(t, 123456, id)

	_, err = decodeID([]byte{1, 2})
	assert.Error(t, err)
}

func TestBadgerUserRepository(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	t.Run("first user is admin", func(t *testing.T) {
		alice := newUser("alice@x.com", "Alice")
		require.NoError(t, store.Users.Create(ctx, alice))
		assert.Equal(t, 1, alice.ID)
		assert.Equal(t, models.RoleAdmin, alice.Role)
		assert.False(t, alice.CreatedAt.IsZero())
	})

	t.Run("second user is member", func(t *testing.T) {
		bob := newUser("bob@x.com", "Bob")
		require.NoError(t, store.Users.Create(ctx, bob))
		assert.Equal(t, 2, bob.ID)
		assert.Equal(t, models.RoleMember, bob.Role)
	})

	t.Run("get by id keeps password hash", func(t *testing.T) {
		user, err := store.Users.GetByID(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, "alice@x.com", user.Email)
		assert.Equal(t, "pbkdf2:sha256:1$salt$00", user.PasswordHash)
		assert.True(t, user.IsAdmin())
	})

	t.Run("get by email is case insensitive", func(t *testing.T) {
		user, err := store.Users.GetByEmail(ctx, "BOB@x.com")
		require.NoError(t, err)
		assert.Equal(t, 2, user.ID)
	})

	t.Run("duplicate email", func(t *testing.T) {
		err := store.Users.Create(ctx, newUser("Alice@X.com", "Imposter"))
		assert.True(t, errors.Is(err, ErrDuplicateEmail))

		_, err = store.Users.GetByID(ctx, 3)
		assert.True(t, errors.Is(err, ErrNotFound))
	})

	t.Run("missing user", func(t *testing.T) {
		_, err := store.Users.GetByID(ctx, 99)
		assert.True(t, errors.Is(err, ErrNotFound))
		_, err = store.Users.GetByEmail(ctx, "ghost@x.com")
		assert.True(t, errors.Is(err, ErrNotFound))
	})

	t.Run("invalid user leaves no row", func(t *testing.T) {
		err := store.Users.Create(ctx, newUser("noname@x.com", ""))
		assert.Error(t, err)
		_, err = store.Users.GetByEmail(ctx, "noname@x.com")
		assert.True(t, errors.Is(err, ErrNotFound))
	})
}

func TestBadgerUserRepositoryConcurrentDuplicate(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	const racers = 8
	var wg sync.WaitGroup
	errs := make([]error, racers)
	start := make(chan struct{})
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			errs[i] = store.Users.Create(ctx, newUser("dup@x.com", fmt.Sprintf("Racer %d", i)))
		}(i)
	}
	close(start)
	wg.Wait()

	var won, duplicate int
	for _, err := range errs {
		switch {
		case err == nil:
			won++
		case errors.Is(err, ErrDuplicateEmail):
			duplicate++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, won)
	assert.Equal(t, racers-1, duplicate)

	user, err := store.Users.GetByEmail(ctx, "dup@x.com")
	require.NoError(t, err)
	assert.Equal(t, 1, user.ID)
	_, err = store.Users.GetByID(ctx, 2)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestBadgerPostRepository(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.Users.Create(ctx, newUser("alice@x.com", "Alice")))

	t.Run("list is empty at first", func(t *testing.T) {
		posts, err := store.Posts.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, posts)
	})

	t.Run("create and get", func(t *testing.T) {
		post := newPost(1, "Hello", "Body")
		require.NoError(t, store.Posts.Create(ctx, post))
		assert.Equal(t, 1, post.ID)

		got, err := store.Posts.GetByID(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, "Hello", got.Title)
		assert.Equal(t, "http://x/i.png", got.ImgURL)
		assert.Equal(t, 1, got.AuthorID)
	})

	t.Run("duplicate title", func(t *testing.T) {
		err := store.Posts.Create(ctx, newPost(1, "Hello", "Other body"))
		assert.True(t, errors.Is(err, ErrDuplicateTitle))
	})

	t.Run("duplicate content", func(t *testing.T) {
		err := store.Posts.Create(ctx, newPost(1, "Other title", "Body"))
		assert.True(t, errors.Is(err, ErrDuplicateContent))
	})

	t.Run("unknown author", func(t *testing.T) {
		err := store.Posts.Create(ctx, newPost(42, "Orphan", "Orphan body"))
		assert.True(t, errors.Is(err, ErrNotFound))
	})

	t.Run("list keeps insertion order past ten posts", func(t *testing.T) {
		for i := 2; i <= 12; i++ {
			require.NoError(t, store.Posts.Create(ctx, newPost(1, fmt.Sprintf("Post %d", i), fmt.Sprintf("Body %d", i))))
		}
		posts, err := store.Posts.List(ctx)
		require.NoError(t, err)
		require.Len(t, posts, 12)
		for i, post := range posts {
			assert.Equal(t, i+1, post.ID)
		}
		assert.Equal(t, "Hello", posts[0].Title)
	})

	t.Run("delete missing post", func(t *testing.T) {
		err := store.Posts.Delete(ctx, 999)
		assert.True(t, errors.Is(err, ErrNotFound))
	})
}

func TestBadgerPostDeleteCascades(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.Users.Create(ctx, newUser("alice@x.com", "Alice")))
	require.NoError(t, store.Users.Create(ctx, newUser("bob@x.com", "Bob")))

	doomed := newPost(1, "Doomed", "Doomed body")
	kept := newPost(1, "Kept", "Kept body")
	require.NoError(t, store.Posts.Create(ctx, doomed))
	require.NoError(t, store.Posts.Create(ctx, kept))

	for _, c := range []*models.Comment{
		{Text: "first", UserID: 2, PostID: doomed.ID},
		{Text: "second", UserID: 1, PostID: doomed.ID},
		{Text: "stays", UserID: 2, PostID: kept.ID},
	} {
		require.NoError(t, store.Comments.Create(ctx, c))
	}

	require.NoError(t, store.Posts.Delete(ctx, doomed.ID))

	_, err := store.Posts.GetByID(ctx, doomed.ID)
	assert.True(t, errors.Is(err, ErrNotFound))

	posts, err := store.Posts.List(ctx)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, kept.ID, posts[0].ID)

	comments, err := store.Comments.ListByPost(ctx, doomed.ID)
	require.NoError(t, err)
	assert.Empty(t, comments)

	comments, err = store.Comments.ListByPost(ctx, kept.ID)
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, "stays", comments[0].Text)

	// The title and content are free again.
	require.NoError(t, store.Posts.Create(ctx, newPost(1, "Doomed", "Doomed body")))
}

func TestBadgerCommentRepository(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.Users.Create(ctx, newUser("alice@x.com", "Alice")))
	post := newPost(1, "Hello", "Body")
	require.NoError(t, store.Posts.Create(ctx, post))

	t.Run("create", func(t *testing.T) {
		comment := &models.Comment{Text: "Nice", UserID: 1, PostID: post.ID}
		require.NoError(t, store.Comments.Create(ctx, comment))
		assert.Equal(t, 1, comment.ID)
		assert.False(t, comment.CreatedAt.IsZero())
	})

	t.Run("missing post", func(t *testing.T) {
		err := store.Comments.Create(ctx, &models.Comment{Text: "Nice", UserID: 1, PostID: 99})
		assert.True(t, errors.Is(err, ErrNotFound))
	})

	t.Run("missing user", func(t *testing.T) {
		err := store.Comments.Create(ctx, &models.Comment{Text: "Nice", UserID: 99, PostID: post.ID})
		assert.True(t, errors.Is(err, ErrNotFound))
	})

	t.Run("empty text", func(t *testing.T) {
		err := store.Comments.Create(ctx, &models.Comment{Text: "", UserID: 1, PostID: post.ID})
		assert.Error(t, err)
	})

	t.Run("list in order", func(t *testing.T) {
		require.NoError(t, store.Comments.Create(ctx, &models.Comment{Text: "Second", UserID: 1, PostID: post.ID}))
		comments, err := store.Comments.ListByPost(ctx, post.ID)
		require.NoError(t, err)
		require.Len(t, comments, 2)
		assert.Equal(t, "Nice", comments[0].Text)
		assert.Equal(t, "Second", comments[1].Text)
	})
}

func TestBadgerCommentConcurrentCreates(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.Users.Create(ctx, newUser("alice@x.com", "Alice")))
	post := newPost(1, "Hello", "Body")
	require.NoError(t, store.Posts.Create(ctx, post))

	const writers = 10
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, store.Comments.Create(ctx, &models.Comment{Text: fmt.Sprintf("c%d", i), UserID: 1, PostID: post.ID}))
		}(i)
	}
	wg.Wait()

	comments, err := store.Comments.ListByPost(ctx, post.ID)
	require.NoError(t, err)
	assert.Len(t, comments, writers)
}

func TestBadgerRevocationRepository(t *testing.T) {
	store, db := setupTestStore(t)
	ctx := context.Background()

	revoked, err := store.Revocations.IsRevoked(ctx, "abc")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, store.Revocations.Revoke(ctx, "abc", time.Now().Add(time.Hour)))
	revoked, err = store.Revocations.IsRevoked(ctx, "abc")
	require.NoError(t, err)
	assert.True(t, revoked)

	// Already expired tokens need no entry.
	require.NoError(t, store.Revocations.Revoke(ctx, "old", time.Now().Add(-time.Minute)))
	err = db.View(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(RevokedKeyPrefix + "old"))
		return err
	})
	assert.True(t, errors.Is(err, badger.ErrKeyNotFound))
}
