package dockercmd

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// OperationID derives the deterministic tracker key for a command:
// "<kind>:<image>" when an image is known, otherwise "<kind>:<hash>" where
// hash is the first 12 hex characters of the SHA-256 of the argv.
func OperationID(cmd Command) string {
	kind := cmd.Kind
	if kind == "" {
		kind = KindOther
	}
	if image := strings.TrimSpace(cmd.Image); image != "" {
		return string(kind) + ":" + image
	}
	sum := sha256.Sum256([]byte(strings.Join(cmd.Args, "\x00")))
	return string(kind) + ":" + hex.EncodeToString(sum[:])[:12]
}
