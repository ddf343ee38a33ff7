// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckVersion(t *testing.T) {
	tests := []struct {
		version string
		ok      bool
	}{
		{"3.3", true},
		{"4.6.0 NVIDIA 535.54.03", true},
		{"3.3 (Core Profile) Mesa 23.1.4", true},
		{"4.1 Metal - 83.1", true},
		{"3.1 Mesa 20.0", false},
		{"2.1", false},
		{"", false},
		{"OpenGL", false},
	}
	for _, test := range tests {
		err := CheckVersion(test.version)
		if test.ok {
			assert.NoError(t, err, test.version)
		} else {
			assert.Error(t, err, test.version)
		}
	}
}
