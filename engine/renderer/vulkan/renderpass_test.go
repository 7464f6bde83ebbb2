package vulkan

import (
	"testing"

	vk "github.com/goki/vulkan"
	"github.com/stretchr/testify/require"
)

func TestRenderpassDepthNeverLoads(t *testing.T) {
	// The main pass discards depth at the end of the pass, so no later
	// variant may load it. Every depth attachment starts undefined and
	// clears.
	for _, kind := range []RenderpassKind{RenderpassMain, RenderpassMidFrame} {
		attachments := renderpassAttachments(kind, vk.FormatB8g8r8a8Unorm, vk.FormatD32Sfloat, vk.SampleCount1Bit)
		require.Len(t, attachments, 2)

		depth := attachments[len(attachments)-1]
		require.Equal(t, vk.FormatD32Sfloat, depth.Format)
		require.Equal(t, vk.AttachmentLoadOpClear, depth.LoadOp)
		require.Equal(t, vk.AttachmentStoreOpDontCare, depth.StoreOp)
		require.Equal(t, vk.ImageLayoutUndefined, depth.InitialLayout)
	}
}

func TestRenderpassExternalHasNoDepth(t *testing.T) {
	attachments := renderpassAttachments(RenderpassExternal, vk.FormatB8g8r8a8Unorm, vk.FormatD32Sfloat, vk.SampleCount1Bit)
	require.Len(t, attachments, 1)
	require.Equal(t, vk.FormatB8g8r8a8Unorm, attachments[0].Format)
}

func TestRenderpassColourPolicy(t *testing.T) {
	main := renderpassAttachments(RenderpassMain, vk.FormatB8g8r8a8Unorm, vk.FormatD32Sfloat, vk.SampleCount1Bit)
	require.Equal(t, vk.AttachmentLoadOpClear, main[0].LoadOp)
	require.Equal(t, vk.ImageLayoutUndefined, main[0].InitialLayout)
	require.Equal(t, vk.ImageLayoutPresentSrc, main[0].FinalLayout)

	mid := renderpassAttachments(RenderpassMidFrame, vk.FormatB8g8r8a8Unorm, vk.FormatD32Sfloat, vk.SampleCount1Bit)
	require.Equal(t, vk.AttachmentLoadOpLoad, mid[0].LoadOp)
	require.Equal(t, vk.ImageLayoutPresentSrc, mid[0].InitialLayout)
	require.Equal(t, vk.ImageLayoutPresentSrc, mid[0].FinalLayout)

	external := renderpassAttachments(RenderpassExternal, vk.FormatB8g8r8a8Unorm, vk.FormatD32Sfloat, vk.SampleCount1Bit)
	require.Equal(t, vk.AttachmentLoadOpLoad, external[0].LoadOp)
	require.Equal(t, vk.ImageLayoutShaderReadOnlyOptimal, external[0].InitialLayout)
	require.Equal(t, vk.ImageLayoutShaderReadOnlyOptimal, external[0].FinalLayout)
}

func TestRenderpassMultisampledAttachmentOrder(t *testing.T) {
	attachments := renderpassAttachments(RenderpassMain, vk.FormatB8g8r8a8Unorm, vk.FormatD32Sfloat, vk.SampleCount4Bit)
	require.Len(t, attachments, 3)

	require.Equal(t, vk.SampleCount4Bit, attachments[0].Samples)
	require.Equal(t, vk.ImageLayoutColorAttachmentOptimal, attachments[0].FinalLayout)

	// The resolve attachment carries the presentable layout.
	require.Equal(t, vk.SampleCount1Bit, attachments[1].Samples)
	require.Equal(t, vk.ImageLayoutPresentSrc, attachments[1].FinalLayout)

	require.Equal(t, vk.SampleCount4Bit, attachments[2].Samples)
	require.Equal(t, vk.AttachmentLoadOpClear, attachments[2].LoadOp)
}
