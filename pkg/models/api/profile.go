package api

// ProfileRequest is the body of POST /api/v1/get-user-profile.
type ProfileRequest struct {
	Identity     string   `json:"identity"`
	FilterEvents []string `json:"filterEvents"`
}

// UploadEventRequest is the body of POST /api/v1/upload-event.
type UploadEventRequest struct {
	Identity  string         `json:"identity"`
	EventName string         `json:"eventName"`
	EventData map[string]any `json:"eventData"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
