// Package transform implements the transform stage: it rewrites the
// documents downloaded by the crawl stage into a self-contained form and
// optimizes the downloaded images.
//
// Every document passes through three steps, in order:
//
//  1. Base64Extractor writes data URI payloads to <hash>.<ext> files and
//     replaces each literal with the file name. Audio payloads of type ogg
//     and mpeg stay inline.
//  2. LicenseStripper removes the third-party license block and minifies
//     the document.
//  3. ScriptExtractor writes inline script bodies to <hash>.js files and
//     turns each element into <script src="<hash>.js">.
//
// File names are content hashes (ContentHash), so identical payloads and
// scripts collapse to one file and re-running the stage is idempotent.
//
// Documents are processed one at a time; payload and script files within
// one document are written concurrently. A document that fails any step is
// reported and skipped. Images are optimized through the worker pool and a
// failing image is not emitted.
package transform
