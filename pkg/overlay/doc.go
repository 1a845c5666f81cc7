// Package overlay talks to the template-processing service that turns an
// overlay asset into edge imagery.
//
// The service exposes one endpoint:
//
//	POST {base}/api/process-template
//	{"template_filename": "...", "processing_params": {"blur": {"kernel_size": 10, "sigma": 2}}}
//	→ {"edge_image": "<base64>", "processed_edges": {"blur": "<base64>"}}
//
// [Client.ProcessTemplate] retries transient failures, caches responses per
// asset and parameter set, and reports every failure as a NETWORK_ERROR so
// batch runs can skip the affected asset.
package overlay
