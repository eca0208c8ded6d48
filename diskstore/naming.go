package diskstore

import "github.com/google/uuid"

// newFileName generates a fresh message body file name, independent of
// any message id: a body file outlives the particular message it was
// created for and is reused by later ones.
func newFileName() string {
	return uuid.New().String() + ".msg"
}
