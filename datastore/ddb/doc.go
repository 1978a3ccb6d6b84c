/*
Package ddb provides a DynamoDB implementation of the DataStore interface.

Documents live in one table keyed by partition key (hash) and document id
(range). Attribute names default to "PK" and "SK" and can be changed with
WithKeySchema. The remaining attributes are the document's JSON fields.

Queries:

A ParameterizedQuery runs through the Query API. Its text is a key condition,
optionally followed by FilterSeparator and a filter expression. Parameters
starting with '#' are attribute names and those starting with ':' are values.
QueryBuilder produces such queries from the expression package:

	query, err := ddb.NewQueryBuilder(ddb.DefaultKeySchema).
	    WithPartitionKey("page-920").
	    WithFilter("websiteId", websiteID).
	    Build()

A RawQuery is a PartiQL statement run through ExecuteStatement.

Continuation tokens are the URL-safe base64 JSON of LastEvaluatedKey, or the
PartiQL NextToken. Rejections from the service become pages with the matching
HTTP status code; IsRetryableError classifies SDK errors for retry decorators.
*/
package ddb
