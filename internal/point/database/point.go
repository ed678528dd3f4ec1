package database

import (
	"context"
	"fmt"
	"strings"

	bolt "go.etcd.io/bbolt"

	"github.com/go-sod/quad/internal/database"
	"github.com/go-sod/quad/internal/point/model"
)

const (
	layerKeys = "layer:keys:"
	prefix    = "point:"
)

type FilterFn func(point model.Point) bool

func New(db *database.DB) *DB {
	return &DB{sDB: db}
}

// DB keeps one bucket of points per layer plus a bucket listing the layers.
type DB struct {
	sDB *database.DB
}

func (db *DB) extractKey(key string) string {
	prefixPos := strings.Index(key, prefix)

	return key[prefixPos+len(prefix):]
}

func bucketName(layer string) []byte {
	return []byte(prefix + layer)
}

func (db *DB) Layers() ([]string, error) {
	var layers []string
	err := db.sDB.DB.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(layerKeys))
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, _ []byte) error {
			layers = append(layers, db.extractKey(string(k)))
			return nil
		})
	})

	return layers, err
}

func (db *DB) Store(ctx context.Context, point model.Point) error {
	return db.StoreMany(ctx, []model.Point{point})
}

func (db *DB) StoreMany(_ context.Context, points []model.Point) error {
	if len(points) == 0 {
		return nil
	}
	if err := db.sDB.DB.Update(func(tx *bolt.Tx) error {
		keys, err := tx.CreateBucketIfNotExists([]byte(layerKeys))
		if err != nil {
			return fmt.Errorf("unable create layers bucket: %w", err)
		}
		for _, point := range points {
			b, err := tx.CreateBucketIfNotExists(bucketName(point.Layer))
			if err != nil {
				return fmt.Errorf("create bucket: %w", err)
			}
			bytes, err := encode(point)
			if err != nil {
				return err
			}
			if err := b.Put(point.ID[:], bytes); err != nil {
				return fmt.Errorf("put to bucket error: %w", err)
			}
			if err := keys.Put(bucketName(point.Layer), []byte{0x0}); err != nil {
				return fmt.Errorf("unable put to layers bucket: %w", err)
			}
		}
		return nil
	}); err != nil {
		return fmt.Errorf("update transaction error: %w", err)
	}

	return nil
}

func (db *DB) Delete(ctx context.Context, point model.Point) error {
	return db.DeleteMany(ctx, []model.Point{point})
}

func (db *DB) DeleteMany(_ context.Context, points []model.Point) error {
	if len(points) == 0 {
		return nil
	}
	if err := db.sDB.DB.Update(func(tx *bolt.Tx) error {
		for _, point := range points {
			b := tx.Bucket(bucketName(point.Layer))
			if b == nil {
				continue
			}
			if err := b.Delete(point.ID[:]); err != nil {
				return fmt.Errorf("unable delete: %w", err)
			}
		}
		return nil
	}); err != nil {
		return fmt.Errorf("update transaction error: %w", err)
	}

	return nil
}

// DeleteLayer drops every point of a layer and forgets the layer.
func (db *DB) DeleteLayer(_ context.Context, layer string) error {
	if err := db.sDB.DB.Update(func(tx *bolt.Tx) error {
		if tx.Bucket(bucketName(layer)) != nil {
			if err := tx.DeleteBucket(bucketName(layer)); err != nil {
				return fmt.Errorf("unable delete bucket: %w", err)
			}
		}
		if keys := tx.Bucket([]byte(layerKeys)); keys != nil {
			if err := keys.Delete(bucketName(layer)); err != nil {
				return fmt.Errorf("unable delete from layers bucket: %w", err)
			}
		}
		return nil
	}); err != nil {
		return fmt.Errorf("update transaction error: %w", err)
	}

	return nil
}

func (db *DB) FindAll(_ context.Context, filter FilterFn) ([]model.Point, error) {
	var points []model.Point
	if err := db.sDB.DB.View(func(tx *bolt.Tx) error {
		keys := tx.Bucket([]byte(layerKeys))
		if keys == nil {
			return nil
		}
		return keys.ForEach(func(k, _ []byte) error {
			found, err := findIn(tx.Bucket(k), filter)
			if err != nil {
				return err
			}
			points = append(points, found...)
			return nil
		})
	}); err != nil {
		return nil, fmt.Errorf("view transaction error: %w", err)
	}

	return points, nil
}

func (db *DB) FindByLayer(layer string, filter FilterFn) ([]model.Point, error) {
	var points []model.Point
	if err := db.sDB.DB.View(func(tx *bolt.Tx) error {
		found, err := findIn(tx.Bucket(bucketName(layer)), filter)
		points = found
		return err
	}); err != nil {
		return nil, fmt.Errorf("view transaction error: %w", err)
	}

	return points, nil
}

func (db *DB) CountByLayer(layer string) (int, error) {
	var length int
	if err := db.sDB.DB.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketName(layer))
		if b == nil {
			return nil
		}
		length = b.Stats().KeyN
		return nil
	}); err != nil {
		return 0, fmt.Errorf("view transaction error: %w", err)
	}

	return length, nil
}

func findIn(b *bolt.Bucket, filter FilterFn) ([]model.Point, error) {
	if b == nil {
		return nil, nil
	}
	var points []model.Point
	c := b.Cursor()
	for k, v := c.First(); k != nil; k, v = c.Next() {
		point, err := decode(v)
		if err != nil {
			return nil, fmt.Errorf("decode point %x: %w", k, err)
		}
		if filter == nil || filter(point) {
			points = append(points, point)
		}
	}
	return points, nil
}
