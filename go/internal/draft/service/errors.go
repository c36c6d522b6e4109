package service

import (
	"errors"

	"connectrpc.com/connect"
	"github.com/google/uuid"
	"github.com/mcdev12/draftturn/go/internal/draft/engine"
)

// RejectionKindHeader and RejectionReasonHeader carry the engine rejection on
// error responses. The connect message stays the full error text.
const (
	RejectionKindHeader   = "Draft-Rejection-Kind"
	RejectionReasonHeader = "Draft-Rejection-Reason"
)

var kindCodes = map[engine.RejectionKind]connect.Code{
	engine.KindNotFound:             connect.CodeNotFound,
	engine.KindNotYourTurn:          connect.CodePermissionDenied,
	engine.KindWindowExpired:        connect.CodeDeadlineExceeded,
	engine.KindAlreadyClaimed:       connect.CodeAlreadyExists,
	engine.KindConflict:             connect.CodeAborted,
	engine.KindInvalidConfiguration: connect.CodeInvalidArgument,
	engine.KindInvalidSeating:       connect.CodeInvalidArgument,
	engine.KindScheduleCorrupt:      connect.CodeInternal,
	engine.KindNotLive:              connect.CodeFailedPrecondition,
	engine.KindAlreadyComplete:      connect.CodeFailedPrecondition,
	engine.KindNotEligible:          connect.CodeFailedPrecondition,
	engine.KindIncompleteSeating:    connect.CodeFailedPrecondition,
	engine.KindNoAdmissibleItem:     connect.CodeFailedPrecondition,
	engine.KindAlreadyStarted:       connect.CodeFailedPrecondition,
	engine.KindNotPaused:            connect.CodeFailedPrecondition,
}

// toConnectError maps engine errors onto connect codes. Anything that is not a
// rejection is an internal error.
func toConnectError(err error) error {
	var rej *engine.Rejection
	if !errors.As(err, &rej) {
		return connect.NewError(connect.CodeInternal, err)
	}
	code, ok := kindCodes[rej.Kind]
	if !ok {
		code = connect.CodeInternal
	}
	connectErr := connect.NewError(code, err)
	connectErr.Meta().Set(RejectionKindHeader, string(rej.Kind))
	if rej.Reason != "" {
		connectErr.Meta().Set(RejectionReasonHeader, rej.Reason)
	}
	return connectErr
}

// fromConnectError restores the engine rejection carried by a connect error so
// callers can keep using errors.Is against the engine sentinels.
func fromConnectError(err error, draftID uuid.UUID) error {
	var connectErr *connect.Error
	if !errors.As(err, &connectErr) {
		return err
	}
	kind := engine.RejectionKind(connectErr.Meta().Get(RejectionKindHeader))
	if kind == "" {
		return err
	}
	return &engine.Rejection{Kind: kind, DraftID: draftID, Reason: connectErr.Meta().Get(RejectionReasonHeader)}
}
