package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/0xERR0R/rpzindex/log"
	"github.com/0xERR0R/rpzindex/rpz"
	"github.com/0xERR0R/rpzindex/util"

	"github.com/go-chi/chi/v5"
	"github.com/hashicorp/go-multierror"
)

// Endpoints exposes idx's status and reload protocol over HTTP.
type Endpoints struct {
	idx *rpz.Index
}

// RegisterEndpoints mounts the admin endpoints for idx onto router.
func RegisterEndpoints(router chi.Router, idx *rpz.Index) {
	e := &Endpoints{idx: idx}

	router.Get(PathStatus, e.status)
	router.Get(PathZone, e.zone)
	router.Post(PathZoneReload, e.reloadZone)
}

// status is the http endpoint reporting the index's cross-zone
// have-summary and every loaded zone's trigger counts.
// @Summary Index status
// @Description have-summary and per-zone trigger counts
// @Tags rpz
// @Produce json
// @Success 200 {object} api.StatusResponse
// @Router /status [get]
func (e *Endpoints) status(rw http.ResponseWriter, _ *http.Request) {
	st := e.idx.Status()

	resp := StatusResponse{Have: st.Have, Zones: make([]ZoneDescResponse, 0, len(st.Zones))}
	for _, zd := range st.Zones {
		resp.Zones = append(resp.Zones, zoneDescResponse(zd))
	}

	writeJSON(rw, http.StatusOK, resp)
}

// zone is the http endpoint reporting a single zone's ZoneDesc.
// @Summary Zone status
// @Description a single zone's trigger counts
// @Tags rpz
// @Produce json
// @Param num path int true "zone number"
// @Success 200 {object} api.ZoneDescResponse
// @Failure 404 "zone not loaded"
// @Router /zones/{num} [get]
func (e *Endpoints) zone(rw http.ResponseWriter, r *http.Request) {
	z, ok := parseZoneNum(r)
	if !ok {
		rw.WriteHeader(http.StatusBadRequest)

		return
	}

	zd, ok := e.idx.ZoneDesc(z)
	if !ok {
		rw.WriteHeader(http.StatusNotFound)

		return
	}

	writeJSON(rw, http.StatusOK, zoneDescResponse(zd))
}

// reloadZone is the http endpoint that replaces a zone's trigger set.
// The configuration parser that discovers zone files is out of scope:
// this endpoint accepts an already-parsed list of canonical owner
// names as its request body.
// @Summary Reload a zone
// @Description replace a zone's trigger set via BeginLoad/Ready
// @Tags rpz
// @Accept json
// @Produce json
// @Param num path int true "zone number"
// @Param body body api.ReloadRequest true "replacement trigger set"
// @Success 200 {object} api.ReloadResponse
// @Failure 400 "malformed request"
// @Router /zones/{num}/reload [post]
func (e *Endpoints) reloadZone(rw http.ResponseWriter, r *http.Request) {
	z, ok := parseZoneNum(r)
	if !ok {
		rw.WriteHeader(http.StatusBadRequest)

		return
	}

	var req ReloadRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		rw.WriteHeader(http.StatusBadRequest)

		return
	}

	st := e.idx.BeginLoad(z, req.Origin)

	var loadErr *multierror.Error

	resp := ReloadResponse{Origin: req.Origin}

	for _, owner := range req.Owners {
		if err := st.Add(owner); err != nil {
			loadErr = multierror.Append(loadErr, err)

			continue
		}

		resp.TriggersAdded++
	}

	e.idx.Ready(st)

	for _, err := range loadErr.WrappedErrors() {
		resp.Errors = append(resp.Errors, err.Error())
	}

	writeJSON(rw, http.StatusOK, resp)
}

func parseZoneNum(r *http.Request) (rpz.ZoneNum, bool) {
	n, err := strconv.ParseUint(chi.URLParam(r, "num"), 10, 8)
	if err != nil {
		return 0, false
	}

	return rpz.ZoneNum(n), true
}

func zoneDescResponse(zd rpz.ZoneDesc) ZoneDescResponse {
	return ZoneDescResponse{Num: uint8(zd.Num), Origin: zd.Origin, Counts: zd.Counts()}
}

func writeJSON(rw http.ResponseWriter, status int, v interface{}) {
	body, err := json.Marshal(v)
	if err != nil {
		util.LogOnErrorWithEntry(log.PrefixedLog("api"), "can't marshal response", err)
		rw.WriteHeader(http.StatusInternalServerError)

		return
	}

	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(status)
	_, err = rw.Write(body)
	util.LogOnErrorWithEntry(log.PrefixedLog("api"), "can't write response", err)
}
