package repositories

import (
	"context"

	"newsroom/app/models"

	"github.com/dgraph-io/badger/v4"
	"github.com/samber/oops"
)

// BadgerPostRepository implements PostRepository using BadgerDB
type BadgerPostRepository struct {
	db *badger.DB
}

// NewBadgerPostRepository creates a new BadgerPostRepository
func NewBadgerPostRepository(db *badger.DB) *BadgerPostRepository {
	return &BadgerPostRepository{db: db}
}

// Create creates a new post
func (r *BadgerPostRepository) Create(ctx context.Context, post *models.Post) error {
	titleKey := digestKey(PostTitleIndexPrefix, post.Title)
	contentKey := digestKey(PostContentIndexPrefix, post.Content)

	err := update(ctx, r.db, func(txn *badger.Txn) error {
		if taken, err := exists(txn, titleKey); err != nil {
			return err
		} else if taken {
			return ErrDuplicateTitle
		}
		if taken, err := exists(txn, contentKey); err != nil {
			return err
		} else if taken {
			return ErrDuplicateContent
		}
		if ok, err := exists(txn, entityKey(UserKeyPrefix, post.AuthorID)); err != nil {
			return err
		} else if !ok {
			return ErrNotFound
		}

		// Get next ID
		id, err := getNextID(txn, PostSeqKey)
		if err != nil {
			return err
		}
		post.ID = id
		post.BeforeCreate()
		if err := post.Validate(); err != nil {
			return err
		}

		// Marshal post
		data, err := marshalEntity(post)
		if err != nil {
			return err
		}

		if err := txn.Set(titleKey, encodeID(id)); err != nil {
			return err
		}
		if err := txn.Set(contentKey, encodeID(id)); err != nil {
			return err
		}
		return txn.Set(entityKey(PostKeyPrefix, id), data)
	})
	if err != nil {
		return oops.Code("POST_CREATE_FAILED").With("title", post.Title).Wrap(err)
	}
	return nil
}

// GetByID retrieves a post by ID
func (r *BadgerPostRepository) GetByID(ctx context.Context, id int) (*models.Post, error) {
	var post models.Post

	err := r.db.View(func(txn *badger.Txn) error {
		return getEntity(txn, entityKey(PostKeyPrefix, id), &post)
	})
	if err != nil {
		return nil, oops.Code("POST_GET_FAILED").With("post_id", id).Wrap(err)
	}
	return &post, nil
}

// List retrieves all posts in creation order
func (r *BadgerPostRepository) List(ctx context.Context) ([]*models.Post, error) {
	posts := []*models.Post{}
	err := r.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		prefix := []byte(PostKeyPrefix)
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var post models.Post
			err := it.Item().Value(func(val []byte) error {
				return unmarshalEntity(val, &post)
			})
			if err != nil {
				return err
			}
			posts = append(posts, &post)
		}
		return nil
	})
	if err != nil {
		return nil, oops.Code("POST_LIST_FAILED").Wrap(err)
	}
	return posts, nil
}

// Delete deletes a post, its unique index entries and all its comments in one transaction
func (r *BadgerPostRepository) Delete(ctx context.Context, id int) error {
	err := update(ctx, r.db, func(txn *badger.Txn) error {
		var post models.Post
		if err := getEntity(txn, entityKey(PostKeyPrefix, id), &post); err != nil {
			return err
		}

		var commentKeys [][]byte
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		prefix := commentPrefix(id)
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			commentKeys = append(commentKeys, it.Item().KeyCopy(nil))
		}
		it.Close()

		for _, key := range commentKeys {
			if err := txn.Delete(key); err != nil {
				return err
			}
		}
		if err := txn.Delete(digestKey(PostTitleIndexPrefix, post.Title)); err != nil {
			return err
		}
		if err := txn.Delete(digestKey(PostContentIndexPrefix, post.Content)); err != nil {
			return err
		}
		return txn.Delete(entityKey(PostKeyPrefix, id))
	})
	if err != nil {
		return oops.Code("POST_DELETE_FAILED").With("post_id", id).Wrap(err)
	}
	return nil
}
