package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"activityrewards/core/ledger"
	"activityrewards/native/rewards"
)

type applyParams struct {
	Slot      string `json:"slot,omitempty"`
	User      string `json:"user,omitempty"`
	Activity  string `json:"activity"`
	NumTasks  uint64 `json:"numTasks"`
	NumUsers  uint64 `json:"numUsers"`
	Timestamp uint64 `json:"timestamp,omitempty"`
}

type slotParams struct {
	Slot string `json:"slot"`
}

type ownerParams struct {
	User string `json:"user,omitempty"`
}

type deriveParams struct {
	User  string `json:"user,omitempty"`
	Label string `json:"label"`
}

func decodeParams(req *RPCRequest, out interface{}) *RPCError {
	if len(req.Params) != 1 {
		return &RPCError{Code: codeInvalidParams, Message: "expected a single parameter object"}
	}
	dec := json.NewDecoder(bytes.NewReader(req.Params[0]))
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return &RPCError{Code: codeInvalidParams, Message: "invalid parameter object", Data: err.Error()}
	}
	return nil
}

func writeRPCError(w http.ResponseWriter, id interface{}, rpcErr *RPCError) {
	status := http.StatusBadRequest
	switch rpcErr.Code {
	case codeUnauthorized:
		status = http.StatusUnauthorized
	case codeSlotOwner:
		status = http.StatusForbidden
	case codeNotFound:
		status = http.StatusNotFound
	case codeServerError:
		status = http.StatusInternalServerError
	case codeRateLimited:
		status = http.StatusTooManyRequests
	}
	writeError(w, status, id, rpcErr.Code, rpcErr.Message, rpcErr.Data)
}

// rpcErrorFor maps ledger and engine failures onto JSON-RPC codes.
func rpcErrorFor(err error) *RPCError {
	switch {
	case errors.Is(err, rewards.ErrUnknownActivity):
		return &RPCError{Code: codeUnknownActivity, Message: err.Error()}
	case errors.Is(err, rewards.ErrOverflow):
		return &RPCError{Code: codeOverflow, Message: err.Error()}
	case errors.Is(err, ledger.ErrSlotOwner):
		return &RPCError{Code: codeSlotOwner, Message: err.Error()}
	case errors.Is(err, rewards.ErrInvalidEntry):
		return &RPCError{Code: codeInvalidEntry, Message: err.Error()}
	case errors.Is(err, ledger.ErrSlotNotFound):
		return &RPCError{Code: codeNotFound, Message: err.Error()}
	case errors.Is(err, ledger.ErrInvalidSlot), errors.Is(err, rewards.ErrInvalidRequest), errors.Is(err, rewards.ErrConfig):
		return &RPCError{Code: codeInvalidParams, Message: err.Error()}
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return &RPCError{Code: codeServerError, Message: "request canceled"}
	default:
		return &RPCError{Code: codeServerError, Message: "internal error", Data: err.Error()}
	}
}

func (s *Server) buildRequest(req *RPCRequest, caller Caller) (ledger.SlotID, rewards.Request, *RPCError) {
	var params applyParams
	if rpcErr := decodeParams(req, &params); rpcErr != nil {
		return "", rewards.Request{}, rpcErr
	}
	user, rpcErr := s.resolveUser(caller, params.User)
	if rpcErr != nil {
		return "", rewards.Request{}, rpcErr
	}
	var slot ledger.SlotID
	if strings.TrimSpace(params.Slot) != "" {
		parsed, err := ledger.ParseSlotID(params.Slot)
		if err != nil {
			return "", rewards.Request{}, rpcErrorFor(err)
		}
		slot = parsed
	}
	return slot, rewards.Request{
		User:      user,
		Activity:  rewards.ActivityID(strings.TrimSpace(params.Activity)),
		NumTasks:  params.NumTasks,
		NumUsers:  params.NumUsers,
		Timestamp: params.Timestamp,
	}, nil
}

// handleRewardsApply applies an activity. Without a slot a fresh one is
// allocated, so the application starts a new streak.
func (s *Server) handleRewardsApply(w http.ResponseWriter, r *http.Request, req *RPCRequest, caller Caller) {
	slot, request, rpcErr := s.buildRequest(req, caller)
	if rpcErr != nil {
		writeRPCError(w, req.ID, rpcErr)
		return
	}
	if slot == "" {
		slot = ledger.NewSlotID()
	}
	outcome, err := s.processor.Apply(r.Context(), slot, request)
	if err != nil {
		writeRPCError(w, req.ID, rpcErrorFor(err))
		return
	}
	writeResult(w, req.ID, outcomeResultFrom(slot, outcome, true))
}

func (s *Server) handleRewardsQuote(w http.ResponseWriter, r *http.Request, req *RPCRequest, caller Caller) {
	slot, request, rpcErr := s.buildRequest(req, caller)
	if rpcErr != nil {
		writeRPCError(w, req.ID, rpcErr)
		return
	}
	outcome, err := s.processor.Quote(r.Context(), slot, request)
	if err != nil {
		writeRPCError(w, req.ID, rpcErrorFor(err))
		return
	}
	writeResult(w, req.ID, outcomeResultFrom(slot, outcome, false))
}

func (s *Server) handleRewardsGetEntry(w http.ResponseWriter, r *http.Request, req *RPCRequest, caller Caller) {
	var params slotParams
	if rpcErr := decodeParams(req, &params); rpcErr != nil {
		writeRPCError(w, req.ID, rpcErr)
		return
	}
	slot, err := ledger.ParseSlotID(params.Slot)
	if err != nil {
		writeRPCError(w, req.ID, rpcErrorFor(err))
		return
	}
	if s.auth.Enabled() && !caller.Authenticated {
		writeRPCError(w, req.ID, &RPCError{Code: codeUnauthorized, Message: "bearer token required"})
		return
	}
	entry, err := s.processor.Entry(r.Context(), slot)
	if err != nil {
		writeRPCError(w, req.ID, rpcErrorFor(err))
		return
	}
	if s.auth.Enabled() && entry.Owner != caller.User {
		writeRPCError(w, req.ID, rpcErrorFor(ledger.ErrSlotOwner))
		return
	}
	writeResult(w, req.ID, entryResultFrom(slot, entry))
}

func (s *Server) handleRewardsListEntries(w http.ResponseWriter, r *http.Request, req *RPCRequest, caller Caller) {
	var params ownerParams
	if rpcErr := decodeParams(req, &params); rpcErr != nil {
		writeRPCError(w, req.ID, rpcErr)
		return
	}
	user, rpcErr := s.resolveUser(caller, params.User)
	if rpcErr != nil {
		writeRPCError(w, req.ID, rpcErr)
		return
	}
	entries, err := s.processor.Entries(r.Context(), user)
	if err != nil {
		writeRPCError(w, req.ID, rpcErrorFor(err))
		return
	}
	out := make([]EntryResult, 0, len(entries))
	for _, item := range entries {
		out = append(out, entryResultFrom(item.Slot, item.Entry))
	}
	writeResult(w, req.ID, out)
}

func (s *Server) handleRewardsNewSlot(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	writeResult(w, req.ID, SlotResult{Slot: string(ledger.NewSlotID())})
}

func (s *Server) handleRewardsDeriveSlot(w http.ResponseWriter, _ *http.Request, req *RPCRequest, caller Caller) {
	var params deriveParams
	if rpcErr := decodeParams(req, &params); rpcErr != nil {
		writeRPCError(w, req.ID, rpcErr)
		return
	}
	user, rpcErr := s.resolveUser(caller, params.User)
	if rpcErr != nil {
		writeRPCError(w, req.ID, rpcErr)
		return
	}
	slot, err := ledger.DeriveSlotID(user, params.Label)
	if err != nil {
		writeRPCError(w, req.ID, rpcErrorFor(err))
		return
	}
	writeResult(w, req.ID, SlotResult{Slot: string(slot)})
}

func (s *Server) handleRewardsActivities(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	catalog := s.processor.Engine().Catalog()
	out := make([]ActivityResult, 0, catalog.Len())
	for _, id := range catalog.Activities() {
		base, err := catalog.BaseReward(id)
		if err != nil {
			writeRPCError(w, req.ID, rpcErrorFor(err))
			return
		}
		out = append(out, ActivityResult{Activity: string(id), BaseReward: rewards.FormatAmount(base), BaseUnits: base})
	}
	writeResult(w, req.ID, out)
}
