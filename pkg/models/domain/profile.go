package domain

// PlatformInfo is one device record on a user profile. LastSeen is a UNIX
// timestamp in seconds.
type PlatformInfo struct {
	Platform   string `json:"platform"`
	OSVersion  string `json:"os_version"`
	AppVersion string `json:"app_version"`
	LastSeen   int64  `json:"ls"`
}

// EventSummary is the per-event aggregate the profile API keeps for a user.
type EventSummary struct {
	Count     int   `json:"count"`
	FirstSeen int64 `json:"first_seen"`
	LastSeen  int64 `json:"last_seen"`
}

// UserProfile is a user record reduced to the fields the app consumes:
// the most recently seen device and only the requested events.
type UserProfile struct {
	Name        string                  `json:"name"`
	ProfileData map[string]any          `json:"profileData"`
	Platform    PlatformInfo            `json:"platformInfo"`
	Events      map[string]EventSummary `json:"events"`
}
