package domain

// Initiator tells cancellation flows who asked for the cancellation.
// Agency with AgencyID 0 is a platform administrator acting for any agency.
type Initiator struct {
	Agency   bool
	AgencyID int64
}

// Customer is the default initiator for traveler-side requests.
var Customer = Initiator{}
