package lock

import (
	"encoding/hex"
	"regexp"
	"strconv"
	"strings"
)

var nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)

// ScamTypeKey is the find-or-create lock key for a scam type. Labels that
// slug the same share a lock, which only serializes more than needed.
func ScamTypeKey(scamType string) string {
	s := slugify(scamType)
	if s == "" {
		s = "x" + hex.EncodeToString([]byte(scamType))
	}
	return "scam:" + s
}

func FamilyKey(familyID int64) string {
	return "family:" + strconv.FormatInt(familyID, 10)
}

func slugify(s string) string {
	lower := strings.ToLower(strings.TrimSpace(s))
	return strings.Trim(nonSlugChars.ReplaceAllString(lower, "-"), "-")
}
