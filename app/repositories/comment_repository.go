package repositories

import (
	"context"

	"newsroom/app/models"

	"github.com/dgraph-io/badger/v4"
	"github.com/samber/oops"
)

// BadgerCommentRepository implements CommentRepository using BadgerDB
type BadgerCommentRepository struct {
	db *badger.DB
}

// NewBadgerCommentRepository creates a new BadgerCommentRepository
func NewBadgerCommentRepository(db *badger.DB) *BadgerCommentRepository {
	return &BadgerCommentRepository{db: db}
}

// Create creates a new comment
func (r *BadgerCommentRepository) Create(ctx context.Context, comment *models.Comment) error {
	err := update(ctx, r.db, func(txn *badger.Txn) error {
		// Reading the parents puts them in the read set, so a concurrent
		// post deletion aborts one of the two transactions.
		for _, key := range [][]byte{
			entityKey(PostKeyPrefix, comment.PostID),
			entityKey(UserKeyPrefix, comment.UserID),
		} {
			ok, err := exists(txn, key)
			if err != nil {
				return err
			}
			if !ok {
				return ErrNotFound
			}
		}

		// Get next ID
		id, err := getNextID(txn, CommentSeqKey)
		if err != nil {
			return err
		}
		comment.ID = id
		comment.BeforeCreate()
		if err := comment.Validate(); err != nil {
			return err
		}

		// Marshal comment
		data, err := marshalEntity(comment)
		if err != nil {
			return err
		}

		// Save comment with post ID in key for efficient listing
		return txn.Set(commentKey(comment.PostID, comment.ID), data)
	})
	if err != nil {
		return oops.Code("COMMENT_CREATE_FAILED").
			With("post_id", comment.PostID).
			With("user_id", comment.UserID).
			Wrap(err)
	}
	return nil
}

// ListByPost retrieves all comments for a post
func (r *BadgerCommentRepository) ListByPost(ctx context.Context, postID int) ([]*models.Comment, error) {
	comments := []*models.Comment{}
	err := r.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		prefix := commentPrefix(postID)
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var comment models.Comment
			err := it.Item().Value(func(val []byte) error {
				return unmarshalEntity(val, &comment)
			})
			if err != nil {
				return err
			}
			comments = append(comments, &comment)
		}
		return nil
	})
	if err != nil {
		return nil, oops.Code("COMMENT_LIST_FAILED").With("post_id", postID).Wrap(err)
	}
	return comments, nil
}
