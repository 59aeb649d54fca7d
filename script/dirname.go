package script

import (
	"path/filepath"
	"strings"
)

// dirname and basename wrap path/filepath's Dir/Base rather than
// reimplementing libgen.h's dirname(3)/basename(3) by hand: both
// collapse a trailing slash and return "." for an empty path the same
// way glibc's implementations do, which is all luadirname/luabasename
// relied on in original_source/exec_scripting.cpp. dirname trims
// trailing slashes before calling Dir, since Dir alone would map
// "/a/b/" to "/a/b" where dirname(3) gives "/a".
func dirname(path string) string {
	if trimmed := strings.TrimRight(path, "/"); trimmed != "" {
		path = trimmed
	}
	return filepath.Dir(path)
}
func basename(path string) string { return filepath.Base(path) }
