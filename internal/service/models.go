package service

type SubscribeInput struct {
	Email      string
	Hostname   string
	ListName   string
	PersonName *string
}

type UnsubscribeInput struct {
	Email    string
	Hostname string
	ListName string
}

type ConfirmInput struct {
	Token    string
	Hostname string
}

type ConfirmationRequestInput struct {
	Email    string
	Hostname string
	ListName string
}

type SubscribeOutcome string

const (
	OutcomeSubscribed   SubscribeOutcome = "SUBSCRIBED"
	OutcomeResubscribed SubscribeOutcome = "RESUBSCRIBED"
)
