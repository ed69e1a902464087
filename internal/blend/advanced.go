package blend

// separableBlend applies a separable blend function to unpremultiplied
// channels and composites the result.
//
// Formula: (1 - Sa) * D + (1 - Da) * S + Sa * Da * B(Cs, Cb)
func separableBlend(sr, sg, sb, sa, dr, dg, db, da byte, blendChan func(s, d byte) byte) (byte, byte, byte, byte) {
	if sa == 0 {
		return dr, dg, db, da
	}
	if da == 0 {
		return sr, sg, sb, sa
	}

	sur := unpremul(sr, sa)
	sug := unpremul(sg, sa)
	sub := unpremul(sb, sa)
	dur := unpremul(dr, da)
	dug := unpremul(dg, da)
	dub := unpremul(db, da)

	invSa := 255 - sa
	invDa := 255 - da
	saDa := mulDiv255(sa, da)

	finalA := addDiv255(sa, mulDiv255(da, invSa))
	finalR := addDiv255(addDiv255(mulDiv255(dr, invSa), mulDiv255(sr, invDa)), mulDiv255(saDa, blendChan(sur, dur)))
	finalG := addDiv255(addDiv255(mulDiv255(dg, invSa), mulDiv255(sg, invDa)), mulDiv255(saDa, blendChan(sug, dug)))
	finalB := addDiv255(addDiv255(mulDiv255(db, invSa), mulDiv255(sb, invDa)), mulDiv255(saDa, blendChan(sub, dub)))
	return finalR, finalG, finalB, finalA
}

// blendMultiply multiplies source and destination colors.
// Formula: B(Cb, Cs) = Cb * Cs
func blendMultiply(sr, sg, sb, sa, dr, dg, db, da byte) (byte, byte, byte, byte) {
	return separableBlend(sr, sg, sb, sa, dr, dg, db, da, mulDiv255)
}
