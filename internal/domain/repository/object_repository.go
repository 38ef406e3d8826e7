package repository

import "github.com/vitrinehq/vitrine/internal/domain/entity"

type ObjectRepository interface {
	// Get the object by its storage key.
	GetByKey(key string) (*entity.Object, error)
	// Save an entity to the persistence.
	Save(object *entity.Object) error
	// List the stored objects, most recent first.
	List() ([]*entity.Object, error)
}
