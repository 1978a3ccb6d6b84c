/*
Package pg provides a PostgreSQL implementation of the DataStore interface on pgx.

Documents are rows of a single table:

	partition_key text, id text, item_type text, body jsonb, PRIMARY KEY (partition_key, id)

EnsureSchema creates it. Queries are SQL statements that select the body
column; ParameterizedQuery parameters bind as pgx.NamedArgs. Pages are read
with LIMIT/OFFSET and one look-ahead row, and continuation tokens are the
encoded offset of the next page. Server errors (*pgconn.PgError) become pages
with an HTTP status derived from the SQLSTATE class.
*/
package pg
