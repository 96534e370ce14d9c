package domain

// Role describes which side of a transaction a participant is on.
type Role string

const (
	RoleSender   Role = "sender"
	RoleReceiver Role = "receiver"
)

// Participant is a party named in a notification. UserID is assigned by the
// identity resolver and is only meaningful within one parsing pass.
type Participant struct {
	UserID      int    `json:"UserID"`
	Name        string `json:"Name"`
	PhoneNumber string `json:"PhoneNumber"`
	UserType    Role   `json:"UserType"`
}
