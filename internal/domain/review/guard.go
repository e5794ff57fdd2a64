package review

// CanEdit reports whether requesterID may edit r. Only the author may.
func CanEdit(r *Review, requesterID string) bool {
	return isAuthor(r, requesterID)
}

// CanDelete reports whether requesterID may delete r. Only the author may.
func CanDelete(r *Review, requesterID string) bool {
	return isAuthor(r, requesterID)
}

func isAuthor(r *Review, requesterID string) bool {
	return r != nil && requesterID != "" && r.AuthorID == requesterID
}
