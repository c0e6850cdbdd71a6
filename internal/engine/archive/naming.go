package archive

import (
	"fmt"
	"regexp"
	"time"

	"SwiftBackuper/internal/blobstore"
)

const Extension = ".tar.gz"

// FileName is {name}-{unix seconds}.tar.gz. Sub-second precision is truncated.
func FileName(name string, t time.Time) string {
	return fmt.Sprintf("%s-%d%s", name, t.Unix(), Extension)
}

// NamePattern matches archives produced for name and nothing else. The name is
// matched literally, so "db" does not match "db-prod-1700000000.tar.gz".
func NamePattern(name string) *regexp.Regexp {
	return regexp.MustCompile(`^` + regexp.QuoteMeta(name) + `-[0-9]+\.tar\.gz$`)
}

// Matching returns the entries of objs that belong to name, in their original order.
func Matching(objs []blobstore.Object, name string) []blobstore.Object {
	re := NamePattern(name)
	var out []blobstore.Object
	for _, o := range objs {
		if re.MatchString(o.Name) {
			out = append(out, o)
		}
	}
	return out
}
