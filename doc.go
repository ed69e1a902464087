// Package ggmedia composes real-time previews of images and videos.
//
// # Overview
//
// A Preview draws one media source, the primary, between an optional
// tinted background image and an optional tinted foreground image, with a
// mask, colour grading through a lookup table filter and the user's
// edition parameters applied to the primary. Frames are recorded once per
// display frame into an immutable picture.Picture, in lock-step with the
// video decoder for video sources.
//
// # Quick Start
//
//	pv := ggmedia.New(
//		ggmedia.WithAssets(asset.Cached(asset.Dir("media"), 64)),
//		ggmedia.WithExtractorFactory(&gifsource.Source{FS: os.DirFS("media")}),
//	)
//	err := pv.Mount(ggmedia.Props{
//		Source:         ggmedia.Video("clip.gif", 1080, 1920, 0),
//		Filter:         lut.Solar,
//		Width:          360,
//		Height:         640,
//		OnLoadingEnd:   func() { fmt.Println("ready") },
//		OnLoadingError: func(err error) { fmt.Println(err) },
//	})
//	...
//	img, err := raster.Render(pv.Picture())
//	...
//	pv.Unmount()
//
// # Sessions
//
// Mounting a source creates a composition session: the resolution plan,
// the render loop with its extractor, the overlay images and the filter.
// Changing the source identity (kind, URI, frame time or trim) disposes
// the session and creates a new one; other prop changes are applied by
// the next frame. Unmount disposes the session, cancels its pending loads
// and silences its callbacks.
//
// # Readiness
//
// OnLoadingEnd fires once every tracked source of a session has loaded.
// Overlay images and the filter are decorative: their failures are logged
// and the preview renders without them. Primary failures are reported
// once through OnLoadingError.
//
// # Packages
//
//   - resolution: decode size negotiation
//   - lut: filter table and shader cache
//   - edition: edition parameters
//   - compose: layer stack
//   - picture, picture/raster: drawing surface and CPU playback
//   - readiness, renderloop, clock: session machinery
//   - extractor: decoder contract, with gifsource and extractortest
//   - asset, metrics: loading and observability
package ggmedia
