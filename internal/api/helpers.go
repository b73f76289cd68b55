package api

import (
	"strings"

	"github.com/bwmarrin/snowflake"
)

var uidNode *snowflake.Node

func init() {
	n, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	uidNode = n
}

// NewUID generates the numeric public user id. Snowflake ids are unique and
// monotonic, so the sorted cache index scored by uid reflects signup order.
func NewUID() int64 {
	return uidNode.Generate().Int64()
}

// FirstLetterUppercase normalizes a username for display: lower-case the
// whole string, then capitalize the first letter of each word.
func FirstLetterUppercase(s string) string {
	words := strings.Split(strings.ToLower(s), " ")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// LowerCase normalizes an email address for storage and lookups.
func LowerCase(s string) string {
	return strings.ToLower(s)
}
