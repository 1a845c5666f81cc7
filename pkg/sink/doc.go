// Package sink turns styled scenes into export artifacts and delivers them.
//
// # Rasterizing
//
// [Rasterizer] decodes a scene with oksvg and fills it with rasterx onto an
// RGBA surface, optionally pre-filled white. Embedded <image> elements that
// carry data URIs are decoded and composited in document order between the
// vector passes, scaled with golang.org/x/image/draw. The default scale is 2 for
// high-density output:
//
//	r := sink.NewRasterizer(sink.WithScale(2), sink.WithBackground(true))
//	img, err := r.Scene(ctx, s)
//	data, err := sink.Encode(img, sink.FormatPNG, r.Quality())
//
// # Vector Output
//
// [SerializeSVG] writes a standalone SVG document. Missing width/height are
// filled from the scene's bounding box, images that reference external
// resources are dropped, and the output is byte-for-byte deterministic.
//
// # Delivery
//
// A [Sink] receives finished artifacts by file name. [DirSink] writes files
// atomically into a directory; [MemorySink] keeps them in memory for tests
// and the HTTP API.
package sink
