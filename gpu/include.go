// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gpu

import (
	"io/fs"
	"log/slog"
	"path"
	"slices"
	"strings"

	"cogentcore.org/core/base/stringsx"
)

// maxIncludeDepth bounds nested #include expansion.
const maxIncludeDepth = 8

// IncludeFS processes #include "file" statements in
// the given GLSL code string, using the given file system
// and default path to locate the included files. Files
// are looked up relative to dir, then to the root of fsys.
// Nested includes are looked up relative to the directory
// of the file that includes them.
// The #include line is kept as a comment so that compiler
// line numbers stay meaningful relative to the include point.
func IncludeFS(fsys fs.FS, dir, code string) string {
	return includeFS(fsys, dir, code, 0)
}

func includeFS(fsys fs.FS, dir, code string, depth int) string {
	fl := stringsx.SplitLines(code)
	nl := len(fl)
	for li := nl - 1; li >= 0; li-- {
		ln := strings.TrimSpace(fl[li])
		if !strings.HasPrefix(ln, `#include "`) {
			continue
		}
		fn := ln[10:]
		qi := strings.Index(fn, `"`)
		if qi < 0 {
			slog.Error("gpu.IncludeFS: malformed #include: no final quote", "line", li+1)
			continue
		}
		if depth >= maxIncludeDepth {
			slog.Error("gpu.IncludeFS: #include nested too deeply", "file", fn[:qi])
			continue
		}
		fname := path.Join(dir, fn[:qi])
		b, err := fs.ReadFile(fsys, fname)
		if err != nil {
			fname = path.Clean(fn[:qi])
			b, err = fs.ReadFile(fsys, fname)
			if err != nil {
				slog.Error("gpu.IncludeFS: could not find include", "file", fn[:qi], "path", dir)
				continue
			}
		}
		// nested includes are relative to the file that includes them
		inc := includeFS(fsys, path.Dir(fname), string(b), depth+1)
		fl[li] = "// " + ln
		fl = slices.Insert(fl, li+1, stringsx.SplitLines(inc)...)
	}
	return strings.Join(fl, "\n")
}
