package media

import (
	"fmt"
	"strings"
	"time"
)

// DefaultBucket is the single shared bucket; storage is multi-tenant by
// key prefix, not by bucket.
const DefaultBucket = "project-media"

// StorageLocation is a routed upload destination.
type StorageLocation struct {
	Bucket     string
	PathPrefix string
}

// ResolveStorageLocation maps a target location plus optional identifiers
// to a bucket and key prefix. Pure; always returns a value. An unknown
// target falls into the general-bucket rule, same as the literal
// "project" value, so paths already in storage keep resolving.
func ResolveStorageLocation(target TargetLocation, projectID, targetID, userID *int64) StorageLocation {
	loc := StorageLocation{Bucket: DefaultBucket}

	switch target {
	case TargetDiscussions:
		switch {
		case projectID != nil && targetID != nil:
			loc.PathPrefix = fmt.Sprintf("%d/discussions/%d/", *projectID, *targetID)
		case projectID != nil:
			loc.PathPrefix = fmt.Sprintf("%d/discussions/", *projectID)
		default:
			loc.PathPrefix = "discussions/"
		}
	case TargetDocuments, TargetContracts:
		if projectID != nil {
			loc.PathPrefix = fmt.Sprintf("%d/%s/", *projectID, target)
		} else {
			loc.PathPrefix = fmt.Sprintf("%s/", target)
		}
	case TargetFinals, TargetDeliverables:
		if projectID != nil {
			loc.PathPrefix = fmt.Sprintf("%d/finals/", *projectID)
		} else {
			loc.PathPrefix = "finals/"
		}
	case TargetProfiles:
		if userID != nil {
			loc.PathPrefix = fmt.Sprintf("profiles/%d/", *userID)
		} else {
			loc.PathPrefix = "profiles/"
		}
	default:
		if projectID != nil {
			loc.PathPrefix = fmt.Sprintf("%d/general/", *projectID)
		} else {
			loc.PathPrefix = "general/"
		}
	}

	return loc
}

// sanitizeFileName keeps [A-Za-z0-9.-] and replaces everything else
// with an underscore.
func sanitizeFileName(name string) string {
	return strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '.' || r == '-' {
			return r
		}
		return '_'
	}, name)
}

// objectKey builds a collision-resistant storage key under the routed
// prefix: {unixMillis}-{sanitizedName}.
func objectKey(prefix, fileName string, now time.Time) string {
	return fmt.Sprintf("%s%d-%s", prefix, now.UnixMilli(), sanitizeFileName(fileName))
}
