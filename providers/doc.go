/*
Package providers creates, reads and lists scan documents.

Providers mint ids with identifier.Generator and derive partition keys with
partitionkey.Factory, so a document can always be located from its id alone.
Child documents (pages of a website, scans of a website, page scans of a
website scan) are minted as children of their parent id and land in the
parent's partition, where List* methods find them with a single partition query.

	websites := providers.NewWebsiteProvider(websiteStore)
	pages := providers.NewPageProvider(pageStore)

	site, _ := websites.Create(ctx, "Example", "https://example.com")
	_, _ = pages.Create(ctx, site.ID, "https://example.com/about")

	list, _ := pages.ListByWebsite(site.ID)
	for page, err := range list.All(ctx) {
		...
	}
*/
package providers
