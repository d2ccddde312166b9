// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package driver

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/rvm/state"
)

// ShaderPrefix returns the WGSL constants a GPU driver declares ahead of
// each stage of a program:
//
//	FEATURES_LO, FEATURES_HI  u32  low and high halves of the feature bits
//	ALPHA_FUNC                u32  alpha test comparison, 0 when disabled
//	ALPHA_REF                 f32  alpha test reference value
func ShaderPrefix(features state.Features, alpha gputypes.CompareFunction, alphaRef float32) string {
	var b strings.Builder
	fmt.Fprintf(&b, "const FEATURES_LO: u32 = %#xu;\n", uint32(features))
	fmt.Fprintf(&b, "const FEATURES_HI: u32 = %#xu;\n", uint32(features>>32))
	fmt.Fprintf(&b, "const ALPHA_FUNC: u32 = %du;\n", uint32(alpha))
	fmt.Fprintf(&b, "const ALPHA_REF: f32 = %s;\n", wgslFloat(alphaRef))
	return b.String()
}

func wgslFloat(v float32) string {
	s := strconv.FormatFloat(float64(v), 'f', -1, 32)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
