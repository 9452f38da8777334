package bizerror

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/fundwit/go-commons/types"
)

var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("record not found")
	ErrUnavailable     = errors.New("record store unavailable")

	ErrUnknownState = errors.New("unknown state")
)

type BizError interface {
	Respond() *BizErrorDetail
}

type BizErrorDetail struct {
	Status  int
	Code    string
	Message string

	Data  interface{}
	Cause error
}

type ErrBadParam struct {
	Cause error
}

func (e *ErrBadParam) Unwrap() error {
	return e.Cause
}
func (e *ErrBadParam) Error() string {
	if e.Cause != nil {
		return e.Cause.Error()
	}
	return "common.bad_param"
}
func (e *ErrBadParam) Respond() *BizErrorDetail {
	message := "common.bad_param"
	if e.Cause != nil {
		message = e.Cause.Error()
	}
	return &BizErrorDetail{Status: http.StatusBadRequest, Code: "common.bad_param", Message: message, Data: nil}
}

// conflict reason codes
const (
	ConflictVersionMismatch   = "version_mismatch"
	ConflictInvalidTransition = "invalid_transition"
	ConflictStateLocked       = "state_locked"
	ConflictReasonRequired    = "reason_required"
	ConflictAlreadyExists     = "already_exists"
)

// ConflictError reports a refused mutation: a stale version, an illegal
// state transition, or a locked record. ProvidedVersion/ExpectedVersion and
// CurrentState reflect the store at refusal time so the caller can decide
// whether to refetch and retry.
type ConflictError struct {
	Reason          string   `json:"reason"`
	ProvidedVersion int      `json:"providedVersion"`
	ExpectedVersion int      `json:"expectedVersion"`
	CurrentState    string   `json:"currentState"`
	LogID           types.ID `json:"logId,omitempty"`
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("conflict.%s: provided version %d, expected version %d, current state %s",
		e.Reason, e.ProvidedVersion, e.ExpectedVersion, e.CurrentState)
}

func (e *ConflictError) Respond() *BizErrorDetail {
	return &BizErrorDetail{Status: http.StatusConflict, Code: "conflict." + e.Reason, Message: conflictMessage(e.Reason), Data: e}
}

func conflictMessage(reason string) string {
	switch reason {
	case ConflictVersionMismatch:
		return "他の更新と競合しました。最新の状態を取得してやり直してください。"
	case ConflictInvalidTransition:
		return "現在の状態からその操作はできません。"
	case ConflictStateLocked:
		return "確定済みの日報は変更できません。"
	case ConflictReasonRequired:
		return "差戻しには理由が必要です。"
	case ConflictAlreadyExists:
		return "同じ日の日報がすでに作成されています。"
	}
	return "conflict." + reason
}
