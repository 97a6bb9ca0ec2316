// @title rpzindex API
// @description Admin API for an RPZ trigger index

// @contact.name rpzindex@github
// @contact.url https://github.com/0xERR0R/rpzindex

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @BasePath /api/rpz

// Package api exposes read-only status endpoints and a reload trigger
// for an rpz.Index over HTTP, the way blocky/api exposes its blocking
// and query control endpoints.
package api

const (
	// PathStatus reports the index's have-summary and per-zone counts.
	PathStatus = "/api/rpz/status"

	// PathZone reports a single zone's ZoneDesc. {num} is the zone number.
	PathZone = "/api/rpz/zones/{num}"

	// PathZoneReload triggers a BeginLoad/Ready reload of a zone from a
	// caller-supplied list of canonical owner names.
	PathZoneReload = "/api/rpz/zones/{num}/reload"
)

// StatusResponse is the JSON body of GET PathStatus.
type StatusResponse struct {
	Have  map[string]bool    `json:"have"`
	Zones []ZoneDescResponse `json:"zones"`
}

// ZoneDescResponse is the JSON shape of a rpz.ZoneDesc.
type ZoneDescResponse struct {
	Num    uint8          `json:"num"`
	Origin string         `json:"origin"`
	Counts map[string]int `json:"counts"`
}

// ReloadRequest is the JSON body of POST PathZoneReload.
type ReloadRequest struct {
	// Origin is the new origin name for the zone, logged on Ready.
	Origin string `json:"origin"`
	// Owners is the full replacement set of canonical owner names for
	// the zone, each as accepted by rpz.Staging.Add.
	Owners []string `json:"owners"`
}

// ReloadResponse reports the outcome of a reload.
type ReloadResponse struct {
	Origin        string   `json:"origin"`
	TriggersAdded int      `json:"triggersAdded"`
	Errors        []string `json:"errors,omitempty"`
}
