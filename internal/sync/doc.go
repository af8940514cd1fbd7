// Package sync pulls the catalog a node publishes at its declared source URL
// and feeds it through the same submission path as a manual upload.
//
// # Manager
//
// Manager.Sync runs one node:
//
//   - The node's source URL is submitted as a non-strict catalog submission, so
//     a catalog with schema violations is still stored.
//   - Every dataset with schema violations is reported as a warning and skipped.
//   - When the source enables distribution sync, every distribution of a valid
//     dataset that declares a downloadURL is stored as a new version fetched from
//     that URL. A distribution that cannot be fetched or stored is a warning.
//
// Manager.SyncAll runs every node that declares a source, one after the other.
//
// # Errors
//
// Failures that prevent the catalog itself from being accepted are returned as
// *CatalogSyncError, which matches ErrCatalogSync with errors.Is. Its Reason
// tells the caller which stage failed:
//
//   - ReasonNoSource: the node declares no source URL
//   - ReasonFetchFailed: the source could not be downloaded
//   - ReasonValidationFailed: the downloaded content is not a usable catalog
//   - ReasonStorageFailed: the catalog could not be persisted
//
// Nothing is reported as synced when a CatalogSyncError is returned.
package sync
