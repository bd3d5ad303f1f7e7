// Copyright 2025 The NMO Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package vmath

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIdentity(t *testing.T) {
	m := Identity()
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			if r == c {
				require.Equal(t, float32(1), m.At(r, c))
			} else {
				require.Zero(t, m.At(r, c))
			}
		}
	}
}

func TestMatrixIndexing(t *testing.T) {
	var m Matrix4
	m.Set(1, 2, 5)
	require.Equal(t, float32(5), m.At(1, 2))
	// Row-major: row 1, column 2 is element 6
	require.Equal(t, float32(5), m[6])
}
