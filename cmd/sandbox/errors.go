// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"cogentcore.org/glsandbox/gpu"
	"github.com/muesli/termenv"
)

// printError writes a diagnostic for err to w, naming the
// shader stage, file and log for shader errors. The heading
// is colored when w is a terminal.
func printError(w io.Writer, err error) {
	out := termenv.NewOutput(w)
	head, body := describe(err)
	fmt.Fprintln(w, out.String("sandbox: "+head).Foreground(out.Color("1")).Bold())
	if body != "" {
		fmt.Fprintln(w, out.String(indent(body)).Faint())
	}
}

// describe returns a one-line heading and an optional
// multi-line body for err.
func describe(err error) (head, body string) {
	var fe *gpu.FileReadError
	var ce *gpu.CompileError
	var le *gpu.LinkError
	switch {
	case errors.As(err, &ce):
		return fmt.Sprintf("%s shader %s failed to compile", strings.ToLower(ce.Stage.String()), ce.Name), ce.Log
	case errors.As(err, &le):
		return fmt.Sprintf("program %s failed to link", le.Program), le.Log
	case errors.As(err, &fe):
		return fmt.Sprintf("could not read %s", fe.Path), fe.Err.Error()
	}
	return err.Error(), ""
}

func indent(s string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for i, ln := range lines {
		lines[i] = "    " + ln
	}
	return strings.Join(lines, "\n")
}
