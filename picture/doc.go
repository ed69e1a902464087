// Package picture records composited frames as immutable pictures.
//
// A frame is drawn into a Recorder, the canvas handed to the layer
// composer, and sealed with FinishRecording. The resulting Picture is
// immutable and can be played back any number of times to a Backend, the
// surface that actually produces pixels.
//
//	rec := picture.NewRecorder(1080, 1920)
//	rec.DrawPaint(picture.Paint{Color: color.NRGBA{255, 255, 255, 255}})
//	rec.DrawImage(frame, picture.Geometry{}, picture.Paint{Blend: picture.BlendSourceOver})
//	pic := rec.FinishRecording()
//
//	backend, err := picture.NewBackend("raster")
//	if err != nil {
//	    return err
//	}
//	err = pic.Playback(backend)
//
// Backends register themselves with Register from an init function,
// following the database/sql driver pattern. The CPU backend lives in
// picture/raster.
package picture
