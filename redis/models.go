package redis

// ReloadMessage is published whenever a Staging load of a zone
// completes, first load or reload alike, so other resolver instances sharing
// the same trigger set know to invalidate any cached find_name/find_ip
// results naming that zone's old origin.
type ReloadMessage struct {
	Zone   uint8  `json:"zone"`
	Origin string `json:"origin"`
}
