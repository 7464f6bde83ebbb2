package vulkan

import (
	"fmt"
	"testing"

	vk "github.com/goki/vulkan"
	"github.com/stretchr/testify/require"

	"github.com/halcyon-games/prism/engine/config"
)

func TestNegotiateImageCount(t *testing.T) {
	for _, tc := range []struct {
		name      string
		mode      config.BufferMode
		min, max  uint32
		wantCount uint32
	}{
		{"double within bounds", config.DoubleBuffer, 2, 8, 2},
		{"triple within bounds", config.TripleBuffer, 2, 8, 3},
		{"double raised to min", config.DoubleBuffer, 3, 8, 3},
		{"triple capped by max", config.TripleBuffer, 1, 2, 2},
		{"unbounded max", config.TripleBuffer, 2, 0, 3},
		{"min equals max", config.TripleBuffer, 4, 4, 4},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got := negotiateImageCount(tc.mode, tc.min, tc.max)
			require.Equal(t, tc.wantCount, got)
		})
	}
}

func TestBufferModeForCount(t *testing.T) {
	require.Equal(t, config.DoubleBuffer, bufferModeForCount(2))
	require.Equal(t, config.TripleBuffer, bufferModeForCount(3))
	require.Equal(t, config.TripleBuffer, bufferModeForCount(4))
}

func TestNegotiateSampleCount(t *testing.T) {
	all := vk.SampleCountFlags(vk.SampleCount1Bit | vk.SampleCount2Bit |
		vk.SampleCount4Bit | vk.SampleCount8Bit)

	for _, tc := range []struct {
		requested config.MSAA
		supported vk.SampleCountFlags
		want      config.MSAA
	}{
		{config.MSAA1x, all, config.MSAA1x},
		{config.MSAA4x, all, config.MSAA4x},
		{config.MSAA8x, all, config.MSAA8x},
		// Unsupported levels degrade to the nearest lower supported one.
		{config.MSAA32x, all, config.MSAA8x},
		{config.MSAA16x, all, config.MSAA8x},
		{config.MSAA8x, vk.SampleCountFlags(vk.SampleCount1Bit | vk.SampleCount2Bit), config.MSAA2x},
		{config.MSAA32x, vk.SampleCountFlags(vk.SampleCount1Bit), config.MSAA1x},
		// A zero request is treated as no multisampling.
		{0, all, config.MSAA1x},
		// Requests that are not a valid sample count round down to a
		// power of two before negotiation.
		{config.MSAA(5), all, config.MSAA4x},
		{config.MSAA(3), all, config.MSAA2x},
		{config.MSAA(7), vk.SampleCountFlags(vk.SampleCount1Bit | vk.SampleCount2Bit), config.MSAA2x},
	} {
		t.Run(fmt.Sprintf("%dx", tc.requested), func(t *testing.T) {
			require.Equal(t, tc.want, negotiateSampleCount(tc.requested, tc.supported))
		})
	}
}

func TestChooseSurfaceFormat(t *testing.T) {
	preferred := vk.SurfaceFormat{Format: vk.FormatB8g8r8a8Unorm, ColorSpace: vk.ColorSpaceSrgbNonlinear}
	other := vk.SurfaceFormat{Format: vk.FormatR8g8b8a8Unorm, ColorSpace: vk.ColorSpaceSrgbNonlinear}

	require.Equal(t, preferred, chooseSurfaceFormat([]vk.SurfaceFormat{other, preferred}))
	require.Equal(t, other, chooseSurfaceFormat([]vk.SurfaceFormat{other}))
}

func TestChoosePresentMode(t *testing.T) {
	require.Equal(t, vk.PresentModeMailbox,
		choosePresentMode([]vk.PresentMode{vk.PresentModeFifo, vk.PresentModeMailbox}))
	require.Equal(t, vk.PresentModeFifo,
		choosePresentMode([]vk.PresentMode{vk.PresentModeFifo, vk.PresentModeImmediate}))
}
