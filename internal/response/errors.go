package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrTokenRequired ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid  ErrCode = "TOKEN_INVALID"
	ErrTokenExpired  ErrCode = "TOKEN_EXPIRED"

	// ─── Authorization ─────────────────────────────────────────────────
	ErrForbidden ErrCode = "FORBIDDEN"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound ErrCode = "NOT_FOUND"

	// ─── Session-specific ──────────────────────────────────────────────
	ErrSessionFinished ErrCode = "SESSION_FINISHED"
	ErrSessionNotOpen  ErrCode = "SESSION_NOT_OPEN"
	ErrGradeInFlight   ErrCode = "GRADE_IN_FLIGHT"
	ErrStudyOnly       ErrCode = "STUDY_SESSION_ONLY"
	ErrUnknownQuestion ErrCode = "UNKNOWN_QUESTION"
	ErrUnknownAnswer   ErrCode = "UNKNOWN_ANSWER"
	ErrWrongMode       ErrCode = "WRONG_SESSION_MODE"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Authentication ────────────────────────────────────────────────
	case ErrTokenRequired:
		return "An authentication token is required."
	case ErrTokenInvalid:
		return "The authentication token is not valid."
	case ErrTokenExpired:
		return "The authentication token has expired."

	// ─── Authorization ─────────────────────────────────────────────────
	case ErrForbidden:
		return "You do not have permission to access this resource."

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidID:
		return "The ID format is not valid."
	case ErrInvalidPayload:
		return "The request payload is not valid."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "The resource was not found."

	// ─── Session-specific ──────────────────────────────────────────────
	case ErrSessionFinished:
		return "This session has already been graded."
	case ErrSessionNotOpen:
		return "This session is not open. Re-open it before sending events."
	case ErrGradeInFlight:
		return "A grading request for this session is already in progress."
	case ErrStudyOnly:
		return "This action is only available for study sessions."
	case ErrUnknownQuestion:
		return "The question order is out of range for this session."
	case ErrUnknownAnswer:
		return "The selected answer does not belong to this question."
	case ErrWrongMode:
		return "This action is not available in the session's mode."

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Too many requests. Please try again later."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "An internal server error occurred."
	default:
		return "An unexpected error occurred."
	}
}
