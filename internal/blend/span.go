package blend

// Span blends a row of premultiplied RGBA source pixels onto dst in place.
// Both slices hold 4 bytes per pixel; the shorter length wins.
func Span(dst, src []byte, mode BlendMode) {
	n := min(len(dst), len(src)) &^ 3
	switch mode {
	case BlendSource:
		copy(dst[:n], src[:n])
		return
	case BlendSourceOver:
		for i := 0; i < n; i += 4 {
			sa := src[i+3]
			switch sa {
			case 0:
				continue
			case 255:
				copy(dst[i:i+4], src[i:i+4])
				continue
			}
			dst[i], dst[i+1], dst[i+2], dst[i+3] = blendSourceOver(
				src[i], src[i+1], src[i+2], sa, dst[i], dst[i+1], dst[i+2], dst[i+3])
		}
		return
	}

	fn := GetBlendFunc(mode)
	for i := 0; i < n; i += 4 {
		dst[i], dst[i+1], dst[i+2], dst[i+3] = fn(
			src[i], src[i+1], src[i+2], src[i+3], dst[i], dst[i+1], dst[i+2], dst[i+3])
	}
}
