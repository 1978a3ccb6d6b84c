/*
Package registry maps Go document types to the tags they are stored under.

Stores use it to check that a document carries the tag of its Go type, and
readers of mixed-type results use it to decode a storagemodels.RawDocument
into the concrete document:

	dt, _ := registry.DocumentTypeOf[storagemodels.Page]() // partitionkey.Page

	doc, err := registry.Decode(raw)

The four scan document types register themselves at init. Additional types can
be added with Register, typically from init() functions.
*/
package registry
