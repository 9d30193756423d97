package messaging

const (
	ProductsCreatedSubject = "products.created"
	ProductsUpdatedSubject = "products.updated"
	ProductsDeletedSubject = "products.deleted"
	MediaUploadedSubject   = "media.uploaded"
)

// CatalogSubjects lists the subject filters a catalog stream must capture.
var CatalogSubjects = []string{"products.>", "media.>"}
