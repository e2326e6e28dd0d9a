// Package recordsync resolves record-shop catalog references against a remote
// storefront, downloads their metadata and media into per-reference folders,
// and publishes successful results into a commerce platform's catalog.
//
// This package contains domain types and interfaces following Ben Johnson's
// Standard Package Layout. Implementations live in subdirectories named
// after their primary dependency (e.g., rod/, prestashop/, goquery-backed
// storefront/).
package recordsync
