// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package shaders

import (
	"testing"

	"cogentcore.org/glsandbox/gpu"
	"cogentcore.org/glsandbox/gpu/softgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetsLink(t *testing.T) {
	for name, set := range Sets {
		t.Run(name, func(t *testing.T) {
			sg := softgpu.New(4, 4)
			ctx := gpu.NewContext(sg)
			pr, err := gpu.OpenProgram(ctx, name, Content, set[0], set[1])
			require.NoError(t, err)
			assert.NotZero(t, pr.Handle())
			pr.Release()
		})
	}
}

func TestUniforms(t *testing.T) {
	sg := softgpu.New(4, 4)
	ctx := gpu.NewContext(sg)
	pr, err := gpu.OpenProgram(ctx, "mix", Content, Sets["mix"][0], Sets["mix"][1])
	require.NoError(t, err)
	for _, nm := range []string{"transform", "texture1", "texture2", "mixValue"} {
		_, err := pr.UniformLocation(nm)
		assert.NoError(t, err, nm)
	}
	_, err = pr.UniformLocation("ourColor")
	assert.Error(t, err)
}
