package dronestorage

import (
	"errors"
)

// Errors returned by Manager operations. Each one maps to a localized reply
// sent to the invoking actor; none of them leave state behind.
var (
	ErrNoPermission           = errors.New("permission denied")
	ErrNoDrone                = errors.New("no drone found")
	ErrBuildBlocked           = errors.New("building blocked")
	ErrAlreadyHasStorage      = errors.New("drone already has storage")
	ErrIncompatibleAttachment = errors.New("drone has an incompatible attachment")
	ErrNoCapacity             = errors.New("no storage capacity allowed")
	ErrNoCostItem             = errors.New("missing deploy cost item")
	ErrSpawnVetoed            = errors.New("storage spawn vetoed")
	ErrDeployFailed           = errors.New("deploy failed")
	ErrNoSession              = errors.New("not controlling a drone with storage")
	ErrNoLock                 = errors.New("storage has no lock")
	ErrUnknownCommand         = errors.New("unknown command")
	ErrUnknownPermission      = errors.New("unknown permission")
)

// replyKeys maps errors to their localization key.
var replyKeys = map[error]string{
	ErrNoPermission:           "Error.NoPermission",
	ErrNoDrone:                "Deploy.Error.NoDrone",
	ErrBuildBlocked:           "Deploy.Error.BuildingBlocked",
	ErrAlreadyHasStorage:      "Deploy.Error.AlreadyHasStorage",
	ErrIncompatibleAttachment: "Deploy.Error.IncompatibleAttachment",
	ErrNoCapacity:             "Deploy.Error.NoCapacity",
	ErrNoCostItem:             "Deploy.Error.NoCostItem",
	ErrSpawnVetoed:            "Deploy.Error.Generic",
	ErrDeployFailed:           "Deploy.Error.Generic",
	ErrNoSession:              "Error.NoSession",
	ErrNoLock:                 "Error.NoLock",
}

// replyKey returns the localization key for err, or "" when err has none.
func replyKey(err error) string {
	for target, key := range replyKeys {
		if errors.Is(err, target) {
			return key
		}
	}
	return ""
}
