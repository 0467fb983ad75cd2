// Package repository is the persistence layer: GORM queries and
// field-level updates over the study models. Mutations of shared rows use
// Updates with explicit field maps so concurrent-but-independent writes do
// not clobber each other.
package repository

import "gorm.io/gorm"

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}
