/*
Package scanstore stores the documents of an accessibility scanning service
(websites, pages, website scans and page scans) across interchangeable backends.

The pieces:
  - partitionkey derives a partition key from a document type and id, so any
    document can be located from its id alone and related documents colocate.
  - paging turns a backend's continuation-token pages into one lazy sequence.
  - datastore defines the DataStore contract, implemented by datastore/memory,
    datastore/ddb (DynamoDB) and datastore/pg (PostgreSQL).
  - datastore/decorators adds retries, a circuit breaker, Prometheus metrics and
    OpenTelemetry spans around any page executor.
  - providers implements the document workflows on top of a DataStore.

Basic Usage:

	// Register typed datastores under a backend name
	mts := scanstore.NewMultiTypeStorage()
	scanstore.RegisterDataStore[storagemodels.Page](mts, "primary", pageStore)

	// Iterate every page in a partition
	store, _ := scanstore.GetDataStore[storagemodels.Page](mts, "primary")
	pages, _ := scanstore.Query[storagemodels.Page](mts, "primary",
		store.PartitionQuery("page-42", partitionkey.Page))
	for page, err := range pages.All(ctx) {
		...
	}
*/
package scanstore
