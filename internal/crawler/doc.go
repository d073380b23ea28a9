// Package crawler implements the crawl stage: it discovers the simulations
// offered for offline download, scrapes their metadata, writes the catalog,
// and downloads every document and screenshot into the fetch-stage directory.
//
// # Components
//
//   - Client: resty-backed Fetcher for HTML pages and streamed downloads
//   - CategoryTree: lazily built slug to category mapping, single-flight
//   - Discoverer: reads the offline-access page of each language
//   - Enricher: scrapes detail pages and joins in categories
//   - Downloader: fetches documents and images through the worker pool
//   - WriteCatalog: atomic catalog.json writer
//
// # Failure containment
//
// Every fetch is scoped to one item. A language, simulation, or download that
// fails is logged through log.Reporter, recorded in Result.Failures, and
// dropped. Nothing is retried.
//
// # Category tree
//
// The tree is fetched from one listing page per configured category, at most
// CategoryWorkers at a time and CategoryRate per second, because the listing
// endpoint rate-limits aggressively. A build in which every listing failed is
// not kept and is retried on the next lookup.
//
// # Usage
//
//	c := crawler.New(cfg, crawler.WithReporter(reporter))
//	result, err := c.Crawl(ctx)
package crawler
