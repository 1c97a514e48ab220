package media

import "firepm/internal/domain/project"

// PrivateForStatus decides the write-time privacy default: files uploaded
// once a project is post-proposal (contract signed onward) are private to
// staff; earlier intake material stays client-visible.
func PrivateForStatus(status int) bool {
	return status >= project.StatusContract
}

// Visible applies the read-time rule to one row. Staff-capable roles see
// everything; everyone else sees only rows whose flag is false or was
// never set (pre-flag rows are public for backward compatibility).
func Visible(f *File, staff bool) bool {
	if staff {
		return true
	}
	return f.IsPrivate == nil || !*f.IsPrivate
}
