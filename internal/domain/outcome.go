package domain

// Outcome tags the result of a lifecycle operation.
type Outcome string

const (
	OutcomeCreatedOk             Outcome = "created"
	OutcomeResentOk              Outcome = "resent"
	OutcomeMissingEmail          Outcome = "missing_email"
	OutcomeInvalidEmail          Outcome = "invalid_email"
	OutcomeAlreadySubscribed     Outcome = "already_subscribed"
	OutcomeMailFailure           Outcome = "mail_failure"
	OutcomeUpdated               Outcome = "updated"
	OutcomeNotFound              Outcome = "not_found"
	OutcomeInvalidOrExpiredToken Outcome = "invalid_or_expired_token"
	OutcomeAlreadyValidated      Outcome = "already_validated"
	OutcomeValidated             Outcome = "validated"
)

// Success reports whether the outcome is success-shaped for the caller.
func (o Outcome) Success() bool {
	switch o {
	case OutcomeCreatedOk, OutcomeResentOk, OutcomeUpdated, OutcomeAlreadyValidated, OutcomeValidated:
		return true
	}
	return false
}

// Result is what the lifecycle service hands back to the front end.
type Result struct {
	Outcome Outcome `json:"outcome"`
	Message string  `json:"message"`
}

func (r Result) Success() bool { return r.Outcome.Success() }

// Messages shown to subscribers, one per outcome.
var outcomeMessages = map[Outcome]string{
	OutcomeCreatedOk:             "Please check your email and click the validation link to complete your subscription",
	OutcomeResentOk:              "A new validation email has been sent to your inbox",
	OutcomeMissingEmail:          "Email address is required",
	OutcomeInvalidEmail:          "Please enter a valid email address",
	OutcomeAlreadySubscribed:     "This email is already subscribed and validated",
	OutcomeMailFailure:           "Failed to send validation email. Please try again.",
	OutcomeUpdated:               "Preferences updated successfully",
	OutcomeNotFound:              "Subscriber not found",
	OutcomeInvalidOrExpiredToken: "Invalid or expired validation link. Please try subscribing again.",
	OutcomeAlreadyValidated:      "Your email is already validated. Welcome to our newsletter!",
	OutcomeValidated:             "Thank you! Your email has been validated and you're now subscribed to our newsletter.",
}

// NewResult pairs an outcome with its default message.
func NewResult(o Outcome) Result {
	return Result{Outcome: o, Message: outcomeMessages[o]}
}

// Event is a lifecycle notification published after a state change.
type Event struct {
	Type  string `json:"type"`
	Email string `json:"email"`
	At    string `json:"at"`
}

const (
	EventSubscriberCreated   = "subscriber.created"
	EventSubscriberValidated = "subscriber.validated"
)
