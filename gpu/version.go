// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gpu

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// MinVersion is the minimum OpenGL version required,
// as a semver constraint.
const MinVersion = ">= 3.3"

// CheckVersion checks a driver version string, in the form returned
// for GL_VERSION (e.g. "4.6.0 NVIDIA 535.54" or "3.3 (Core Profile) Mesa 23.1"),
// against [MinVersion].
func CheckVersion(version string) error {
	fields := strings.Fields(version)
	if len(fields) == 0 {
		return fmt.Errorf("gpu: empty OpenGL version string")
	}
	v, err := semver.NewVersion(fields[0])
	if err != nil {
		return fmt.Errorf("gpu: could not parse OpenGL version %q: %w", version, err)
	}
	c, err := semver.NewConstraint(MinVersion)
	if err != nil {
		return err
	}
	if !c.Check(v) {
		return fmt.Errorf("gpu: OpenGL %s is too old, need %s", v, MinVersion)
	}
	return nil
}
