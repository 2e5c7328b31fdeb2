package repositories

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/sethvargo/go-retry"
)

const (
	// Key prefixes for different entity types
	UserKeyPrefix    = "user:"
	PostKeyPrefix    = "post:"
	CommentKeyPrefix = "comment:"
	RevokedKeyPrefix = "revoked:"

	// Unique index prefixes
	UserEmailIndexPrefix   = "user_email:"
	PostTitleIndexPrefix   = "post_title:"
	PostContentIndexPrefix = "post_content:"

	// Sequence keys for auto-incrementing IDs
	UserSeqKey    = "seq:user"
	PostSeqKey    = "seq:post"
	CommentSeqKey = "seq:comment"

	maxConflictRetries = 50
	conflictBackoff    = 2 * time.Millisecond
)

// getNextID gets the next available ID for a given sequence key
func getNextID(txn *badger.Txn, seqKey string) (int, error) {
	var id uint64
	item, err := txn.Get([]byte(seqKey))
	if errors.Is(err, badger.ErrKeyNotFound) {
		id = 1
	} else if err != nil {
		return 0, err
	} else {
		err = item.Value(func(val []byte) error {
			if len(val) != 8 {
				return fmt.Errorf("corrupt sequence %s", seqKey)
			}
			id = binary.BigEndian.Uint64(val)
			return nil
		})
		if err != nil {
			return 0, err
		}
		id++
	}

	if err := txn.Set([]byte(seqKey), encodeID(int(id))); err != nil {
		return 0, err
	}

	return int(id), nil
}

// encodeID renders an ID as 8 big-endian bytes so that keys sort in creation order.
func encodeID(id int) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(id))
	return b
}

func decodeID(b []byte) (int, error) {
	if len(b) != 8 {
		return 0, fmt.Errorf("invalid id length %d", len(b))
	}
	return int(binary.BigEndian.Uint64(b)), nil
}

func entityKey(prefix string, id int) []byte {
	return append([]byte(prefix), encodeID(id)...)
}

func commentPrefix(postID int) []byte {
	return entityKey(CommentKeyPrefix, postID)
}

func commentKey(postID, commentID int) []byte {
	return append(commentPrefix(postID), encodeID(commentID)...)
}

// digestKey indexes arbitrarily long text under a fixed-size key.
func digestKey(prefix, value string) []byte {
	sum := sha256.Sum256([]byte(value))
	return append([]byte(prefix), sum[:]...)
}

// indexLookup returns the ID stored under an index key, or ErrNotFound.
func indexLookup(txn *badger.Txn, key []byte) (int, error) {
	item, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, err
	}
	var id int
	err = item.Value(func(val []byte) error {
		var derr error
		id, derr = decodeID(val)
		return derr
	})
	return id, err
}

// exists reports whether key is present, recording the read for conflict detection.
func exists(txn *badger.Txn, key []byte) (bool, error) {
	_, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// getEntity loads and unmarshals the value under key, or returns ErrNotFound.
func getEntity(txn *badger.Txn, key []byte, entity interface{}) error {
	item, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return item.Value(func(val []byte) error {
		return unmarshalEntity(val, entity)
	})
}

// update runs fn in a read-write transaction. Transactions aborted because a
// concurrent writer touched the same keys are retried from scratch, so fn must
// not depend on state from a previous attempt.
func update(ctx context.Context, db *badger.DB, fn func(txn *badger.Txn) error) error {
	backoff := retry.WithMaxRetries(maxConflictRetries, retry.WithJitterPercent(50, retry.NewConstant(conflictBackoff)))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := db.Update(fn)
		if errors.Is(err, badger.ErrConflict) {
			return retry.RetryableError(err)
		}
		return err
	})
}

// marshalEntity marshals an entity to JSON
func marshalEntity(entity interface{}) ([]byte, error) {
	data, err := json.Marshal(entity)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal entity: %w", err)
	}
	return data, nil
}

// unmarshalEntity unmarshals JSON data into an entity
func unmarshalEntity(data []byte, entity interface{}) error {
	if err := json.Unmarshal(data, entity); err != nil {
		return fmt.Errorf("failed to unmarshal entity: %w", err)
	}
	return nil
}
