// Package ids generates the service's identifiers: ksuid-based image
// names and md5-hex secrets for tenant and profile tokens. Collision
// probability is treated as negligible; nothing here is a credential
// derivation scheme.
package ids

import (
	"crypto/md5"
	"encoding/hex"

	"github.com/google/uuid"
	"github.com/segmentio/ksuid"
)

// NewImageName returns a globally unique, content-independent file name
// with the given extension, e.g. "2OyzX0zS1kUGhpy7Gtw9Kfmvxka.jpg".
func NewImageName(ext string) string {
	return ksuid.New().String() + "." + ext
}

// NewSecret returns a 32-char hex token of the shape existing consumers
// expect for Api-Token and bearer credentials.
func NewSecret() string {
	sum := md5.Sum([]byte(uuid.NewString()))
	return hex.EncodeToString(sum[:])
}
