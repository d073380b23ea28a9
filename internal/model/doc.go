// Package model defines the data structures shared by the crawl and
// transform stages.
//
// The crawl stage produces Simulation records (the catalog) and
// DownloadResult records (one per fetched document or image). The
// transform stage never touches catalog records; it works on files and
// describes what it extracted with Base64Payload and ExtractedAsset.
//
// All types in this package are plain values. They carry JSON tags because
// the catalog and the run history are serialized as JSON.
package model
