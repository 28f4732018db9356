package repository

import (
	"errors"

	"go.mongodb.org/mongo-driver/mongo"
)

// Sentinel errors distinguishing the failure reasons the service layer reacts
// to. Anything else is passed through as-is.
var (
	ErrNotFound          = errors.New("record not found")
	ErrMissingCollection = errors.New("collection does not exist")
	ErrPermissionDenied  = errors.New("permission denied")
	ErrConflict          = errors.New("duplicate record")
)

// MongoDB server error codes.
const (
	codeUnauthorized      = 13
	codeNamespaceNotFound = 26
)

func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	if mongo.IsDuplicateKeyError(err) {
		return ErrConflict
	}

	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) {
		switch cmdErr.Code {
		case codeUnauthorized:
			return ErrPermissionDenied
		case codeNamespaceNotFound:
			return ErrMissingCollection
		}
	}
	return err
}
