package gateway

import (
	"math/rand"
)

// Decision is the simulated verdict on one payment.
type Decision struct {
	Approved bool
	Reason   string
}

// StatusSource decides simulated payments. Tests plug in a fixed one.
type StatusSource interface {
	GetStatus() Decision
}

var refusalReasons = []string{
	"insufficient funds",
	"request cancelled by user",
	"do not honor",
	"suspected fraud",
	"limit exceeded",
}

// RandomStatus approves successRate percent of payments.
type RandomStatus struct {
	SuccessRate int
}

func (r RandomStatus) GetStatus() Decision {
	randomInt := rand.Intn(101) // 101 because Intn is exclusive of the upper bound
	return calcStatus(randomInt, r.SuccessRate)
}

func calcStatus(randomInt, successRate int) Decision {
	if randomInt < successRate {
		return Decision{Approved: true}
	}
	otherReason := randomInt - successRate
	if otherReason == 0 || otherReason > len(refusalReasons) {
		return Decision{Reason: "unknown reason"}
	}
	return Decision{Reason: refusalReasons[otherReason-1]}
}
