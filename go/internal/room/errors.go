package room

import "errors"

// Code is the wire error code reported in intent acknowledgments.
type Code string

const (
	CodeValidation    Code = "VALIDATION"
	CodeInvalidPhase  Code = "INVALID_PHASE"
	CodeNotYourTurn   Code = "NOT_YOUR_TURN"
	CodeRoomFull      Code = "ROOM_FULL"
	CodeRoomNotFound  Code = "ROOM_NOT_FOUND"
	CodeRoomExists    Code = "ROOM_EXISTS"
	CodeInvalidBid    Code = "INVALID_BID"
	CodeNotDeclarer   Code = "NOT_DECLARER"
	CodeInvalidCards  Code = "INVALID_CARDS"
	CodeCardNotHeld   Code = "CARD_NOT_HELD"
	CodeSuitViolation Code = "SUIT_VIOLATION"
)

// Error is a rejected intent. Rejections are synchronous and leave round
// state untouched.
type Error struct {
	Code   Code
	Reason string
}

func (e *Error) Error() string {
	if e.Reason == "" {
		return string(e.Code)
	}
	return string(e.Code) + ": " + e.Reason
}

func reject(code Code, reason string) *Error {
	return &Error{Code: code, Reason: reason}
}

// ErrCode extracts the wire code from err, or empty if err is not a
// gameplay rejection.
func ErrCode(err error) Code {
	var re *Error
	if errors.As(err, &re) {
		return re.Code
	}
	return ""
}
