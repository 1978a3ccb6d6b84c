/*
Package storagemodels defines the data structures shared by the document stores,
the paging layer and the providers.

Query descriptors:
A query is either a RawQuery or a ParameterizedQuery; the text is in the dialect of
the backend that will execute it:

	q := storagemodels.ParameterizedQuery{
	    Text: "SELECT * FROM c WHERE c.websiteId = @websiteId",
	    Parameters: []storagemodels.QueryParameter{
	        {Name: "@websiteId", Value: websiteID},
	    },
	}

QueryExecutor:
Backends serve one page per call. The continuation token of the previous page is
handed back on the next request; an empty token in a response ends the result set:

	page, err := executor.ExecuteQuery(ctx, storagemodels.QueryRequest{
	    Query:             q,
	    ContinuationToken: token,
	    MaxItemCount:      100,
	})

Documents:
Website, Page, WebsiteScan and PageScan embed StorageDocument, which carries the
id, partition key and item type every store needs.

StreamResult / StreamProgress:
Metadata reported by the paging package while it walks a result set.
*/
package storagemodels
